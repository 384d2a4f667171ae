package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrWatcherClosed is returned by Next once the watcher is closed
var ErrWatcherClosed = errors.New("config: watcher closed")

// TuningWatcher reloads the tuning file whenever it is written
type TuningWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	// Debounce waits for editors that write in several steps
	Debounce time.Duration
	// OnError receives watcher errors; they do not stop the watch
	OnError func(error)
}

// WatchTuning watches the directory of path, so the file may be created or
// replaced after the watch starts
func WatchTuning(path string) (*TuningWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch tuning directory: %w", err)
	}
	return &TuningWatcher{
		path:     filepath.Clean(path),
		watcher:  watcher,
		Debounce: 100 * time.Millisecond,
	}, nil
}

// Next blocks until the tuning file changes and returns the reloaded tuning
func (w *TuningWatcher) Next(ctx context.Context) (Tuning, error) {
	for {
		select {
		case <-ctx.Done():
			return Tuning{}, ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return Tuning{}, ErrWatcherClosed
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			time.Sleep(w.Debounce)
			return LoadTuning(w.path)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return Tuning{}, ErrWatcherClosed
			}
			if w.OnError != nil {
				w.OnError(err)
			}
		}
	}
}

// Close stops watching
func (w *TuningWatcher) Close() error {
	return w.watcher.Close()
}
