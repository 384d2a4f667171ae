// Package chrome controls whether the reader header and footer are shown.
package chrome

import (
	"math"
	"sync"
)

// Config holds the scroll auto-hide thresholds in pixels
type Config struct {
	Threshold float64 `toml:"threshold_px" env:"THRESHOLD_PX"`
	DeadZone  float64 `toml:"dead_zone_px" env:"DEAD_ZONE_PX"`
	// InteractionDelta is the scroll distance that counts as the reader
	// interacting with the page
	InteractionDelta float64 `toml:"interaction_delta_px" env:"INTERACTION_DELTA_PX"`
}

// DefaultConfig returns the default thresholds
func DefaultConfig() Config {
	return Config{Threshold: 36, DeadZone: 4, InteractionDelta: 2}
}

// Controller owns the chrome flag. Scrolling down hides the chrome once the
// reader has interacted, scrolling up shows it again.
type Controller struct {
	mu          sync.Mutex
	cfg         Config
	visible     bool
	interacted  bool
	pending     float64
	accumulated float64
	onChange    func(visible bool)
}

// New creates a controller with chrome visible
func New(cfg Config, onChange func(visible bool)) *Controller {
	return &Controller{cfg: cfg, visible: true, onChange: onChange}
}

// SetConfig replaces the thresholds
func (c *Controller) SetConfig(cfg Config) {
	c.mu.Lock()
	c.cfg = cfg
	c.mu.Unlock()
}

// Visible reports whether chrome is shown
func (c *Controller) Visible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible
}

// Set shows or hides chrome
func (c *Controller) Set(visible bool) {
	c.mu.Lock()
	changed := c.visible != visible
	c.visible = visible
	c.mu.Unlock()
	if changed && c.onChange != nil {
		c.onChange(visible)
	}
}

// Toggle flips chrome from a key press and counts as interaction
func (c *Controller) Toggle() {
	c.mu.Lock()
	c.interacted = true
	c.mu.Unlock()
	c.Set(!c.Visible())
}

// Scrolled feeds a scroll delta in pixels, positive when moving down.
// Movements within the dead zone are summed until they leave it.
func (c *Controller) Scrolled(delta float64) {
	c.mu.Lock()
	if math.Abs(delta) > c.cfg.InteractionDelta {
		c.interacted = true
	}
	c.pending += delta
	if math.Abs(c.pending) <= c.cfg.DeadZone {
		c.mu.Unlock()
		return
	}
	c.accumulated += c.pending
	c.pending = 0

	var target *bool
	switch {
	case c.accumulated <= -c.cfg.Threshold:
		show := true
		target = &show
		c.accumulated = 0
	case c.accumulated >= c.cfg.Threshold && c.interacted:
		hide := false
		target = &hide
		c.accumulated = 0
	}
	c.mu.Unlock()

	if target != nil {
		c.Set(*target)
	}
}

// Reset shows chrome and clears scroll state
func (c *Controller) Reset() {
	c.mu.Lock()
	c.interacted = false
	c.pending = 0
	c.accumulated = 0
	c.mu.Unlock()
	c.Set(true)
}
