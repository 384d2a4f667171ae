package visibility

import (
	"sort"
	"sync"
)

// Config holds the observers attached to every chapter block
type Config struct {
	Activation Observer
	NearTop    Observer
	NearBottom Observer
	Completion Observer
	Preload    Observer
}

// DefaultConfig returns the reader's standard observers
func DefaultConfig() Config {
	return Config{
		Activation: Observer{
			Margin:    Margin{Top: Pct(-30), Bottom: Pct(-55)},
			Threshold: 0.1,
			Basis:     OfRoot,
		},
		NearTop: Observer{
			Margin: Margin{Top: Px(300)},
		},
		NearBottom: Observer{
			Margin: Margin{Bottom: Px(600)},
		},
		Completion: Observer{
			Margin:    Margin{Bottom: Px(-120)},
			Threshold: 0.75,
		},
		Preload: Observer{
			Margin:    Margin{Top: Px(800), Bottom: Px(800)},
			Threshold: 0.01,
		},
	}
}

// Geometry is the viewport-relative position of one chapter block
type Geometry struct {
	Index       int
	Block       Span
	TopSentinel Span
	Completion  Span
	Trailer     Span
	Pages       []Span
}

// EventKind identifies an observer transition
type EventKind int

const (
	// EventActivate fires when a block starts covering the activation band
	EventActivate EventKind = iota
	// EventDeactivate fires when a block stops covering the activation band
	EventDeactivate
	// EventNearTop fires when the reader approaches the top of a block
	EventNearTop
	// EventNearBottom fires when the reader approaches the end of a block
	EventNearBottom
	// EventComplete fires when the completion sentinel is substantially seen
	EventComplete
)

// String returns the event name
func (k EventKind) String() string {
	switch k {
	case EventActivate:
		return "activate"
	case EventDeactivate:
		return "deactivate"
	case EventNearTop:
		return "near_top"
	case EventNearBottom:
		return "near_bottom"
	case EventComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Event is one observer transition for a block
type Event struct {
	Kind  EventKind
	Index int
}

type blockState struct {
	active     bool
	coverage   float64
	nearTop    bool
	nearBottom bool
	complete   bool
	phase      Phase
}

func (b *blockState) observed() bool {
	return b.active || b.nearTop || b.nearBottom || b.complete
}

// Tracker evaluates the observers of every block and reports transitions.
// It is safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	cfg    Config
	blocks map[int]*blockState
	phases map[int]Phase
}

// NewTracker creates a tracker with cfg
func NewTracker(cfg Config) *Tracker {
	return &Tracker{
		cfg:    cfg,
		blocks: make(map[int]*blockState),
		phases: make(map[int]Phase),
	}
}

// SetConfig replaces the observers. Current intersection state is kept so
// only real transitions fire afterwards.
func (t *Tracker) SetConfig(cfg Config) {
	t.mu.Lock()
	t.cfg = cfg
	t.mu.Unlock()
}

// Config returns the current observers
func (t *Tracker) Config() Config {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cfg
}

// Observe evaluates every block against a viewport of rootHeight and returns
// the transitions since the previous call, ordered by index. Blocks missing
// from geoms stop being observed.
func (t *Tracker) Observe(geoms []Geometry, rootHeight float64) []Event {
	t.mu.Lock()
	defer t.mu.Unlock()

	var events []Event
	seen := make(map[int]bool, len(geoms))

	sorted := make([]Geometry, len(geoms))
	copy(sorted, geoms)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	for _, g := range sorted {
		seen[g.Index] = true
		st, ok := t.blocks[g.Index]
		if !ok {
			st = &blockState{phase: t.phases[g.Index]}
			t.blocks[g.Index] = st
		}

		coverage, active := t.cfg.Activation.Measure(g.Block, rootHeight)
		_, nearTop := t.cfg.NearTop.Measure(g.TopSentinel, rootHeight)
		_, nearBottom := t.cfg.NearBottom.Measure(g.Trailer, rootHeight)
		_, complete := t.cfg.Completion.Measure(g.Completion, rootHeight)

		if nearTop && !st.nearTop {
			events = append(events, Event{Kind: EventNearTop, Index: g.Index})
		}
		if nearBottom && !st.nearBottom {
			events = append(events, Event{Kind: EventNearBottom, Index: g.Index})
		}
		if active && !st.active {
			events = append(events, Event{Kind: EventActivate, Index: g.Index})
		}
		if !active && st.active {
			events = append(events, Event{Kind: EventDeactivate, Index: g.Index})
		}
		if complete && !st.complete {
			events = append(events, Event{Kind: EventComplete, Index: g.Index})
		}

		st.active, st.coverage = active, coverage
		st.nearTop, st.nearBottom, st.complete = nearTop, nearBottom, complete
	}

	for index := range t.blocks {
		if !seen[index] {
			delete(t.blocks, index)
		}
	}

	for _, e := range events {
		st := t.blocks[e.Index]
		st.phase = st.phase.Next(e.Kind, st.observed())
	}
	for index, st := range t.blocks {
		st.phase = st.phase.Settle(st.observed())
		t.phases[index] = st.phase
	}

	return events
}

// Dominant returns the block covering most of the activation band
func (t *Tracker) Dominant() (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	best, bestCoverage, found := 0, -1.0, false
	for index, st := range t.blocks {
		if !st.active {
			continue
		}
		if st.coverage > bestCoverage || (st.coverage == bestCoverage && index < best) {
			best, bestCoverage, found = index, st.coverage, true
		}
	}
	return best, found
}

// Phase returns the phase of the chapter at index
func (t *Tracker) Phase(index int) Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phases[index]
}

// Phases returns a copy of every known phase
func (t *Tracker) Phases() map[int]Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[int]Phase, len(t.phases))
	for k, v := range t.phases {
		out[k] = v
	}
	return out
}

// MarkCompleted moves a chapter to Completed without a sentinel, for
// chapters the progress store already reports as finished
func (t *Tracker) MarkCompleted(index int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phases[index] = Completed
	if st, ok := t.blocks[index]; ok {
		st.phase = Completed
	}
}

// Reset forgets every block and phase
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.blocks)
	clear(t.phases)
}

// InRange reports, per page, whether it lies within the preload margin
func (t *Tracker) InRange(g Geometry, rootHeight float64) []bool {
	t.mu.Lock()
	preload := t.cfg.Preload
	t.mu.Unlock()

	out := make([]bool, len(g.Pages))
	for i, p := range g.Pages {
		_, out[i] = preload.Measure(p, rootHeight)
	}
	return out
}
