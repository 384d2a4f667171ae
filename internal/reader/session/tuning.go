package session

import (
	"time"

	"github.com/justyntemme/webby-manga/internal/reader/chrome"
	"github.com/justyntemme/webby-manga/internal/reader/gesture"
	"github.com/justyntemme/webby-manga/internal/reader/layout"
	"github.com/justyntemme/webby-manga/internal/reader/visibility"
)

// Tuning groups every adjustable threshold of a session
type Tuning struct {
	Gesture   gesture.Config
	Chrome    chrome.Config
	Observers visibility.Config
	// Layout sizes chapter blocks; its Width and Height are ignored
	Layout layout.Metrics
	// UpwardScrollWindow is how recently the reader must have scrolled up
	// for approaching a chapter top to load the previous chapter
	UpwardScrollWindow time.Duration
}

// DefaultTuning returns the standard thresholds
func DefaultTuning() Tuning {
	return Tuning{
		Gesture:            gesture.DefaultConfig(),
		Chrome:             chrome.DefaultConfig(),
		Observers:          visibility.DefaultConfig(),
		Layout:             layout.DefaultMetrics(0, 0),
		UpwardScrollWindow: 1350 * time.Millisecond,
	}
}
