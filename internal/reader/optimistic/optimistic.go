// Package optimistic implements apply-attempt-revert updates used to
// deduplicate side effects within a reading session.
package optimistic

import (
	"context"
	"errors"

	mapset "github.com/deckarep/golang-set/v2"
)

// ErrSkipped is returned by Do when the local change was already applied
var ErrSkipped = errors.New("optimistic: already applied")

// Do applies a local change, attempts the remote operation and reverts the
// local change if the attempt fails. apply returns false when there is
// nothing to do, in which case attempt is not called.
func Do(ctx context.Context, apply func() bool, attempt func(context.Context) error, revert func()) error {
	if !apply() {
		return ErrSkipped
	}
	if err := attempt(ctx); err != nil {
		revert()
		return err
	}
	return nil
}

// Claim runs attempt only if key could be added to set, and removes key
// again when attempt fails so a later call can retry. set must be safe for
// concurrent use.
func Claim[K comparable](ctx context.Context, set mapset.Set[K], key K, attempt func(context.Context) error) error {
	return Do(ctx,
		func() bool { return set.Add(key) },
		attempt,
		func() { set.Remove(key) },
	)
}
