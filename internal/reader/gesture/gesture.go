// Package gesture turns raw pointer input into reader actions: chrome
// toggles, double tap likes and horizontal swipes between chapters.
package gesture

import (
	"math"
	"slices"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/justyntemme/webby-manga/internal/reader/clock"
)

// Config holds the gesture thresholds
type Config struct {
	Jitter           float64       `toml:"jitter_px" env:"JITTER_PX"`
	SwipeMinWidth    float64       `toml:"swipe_min_width_px" env:"SWIPE_MIN_WIDTH_PX"`
	SwipeMinDX       float64       `toml:"swipe_min_dx_px" env:"SWIPE_MIN_DX_PX"`
	SwipeRatio       float64       `toml:"swipe_ratio" env:"SWIPE_RATIO"`
	SwipeMaxDY       float64       `toml:"swipe_max_dy_px" env:"SWIPE_MAX_DY_PX"`
	SwipeMaxDuration time.Duration `toml:"swipe_max_duration" env:"SWIPE_MAX_DURATION"`
	DoubleTapWindow  time.Duration `toml:"double_tap_window" env:"DOUBLE_TAP_WINDOW"`
	ToggleDelay      time.Duration `toml:"toggle_delay" env:"TOGGLE_DELAY"`
	LikeCooldown     time.Duration `toml:"like_cooldown" env:"LIKE_COOLDOWN"`
	BurstLifetime    time.Duration `toml:"burst_lifetime" env:"BURST_LIFETIME"`
	SkipClickWindow  time.Duration `toml:"skip_click_window" env:"SKIP_CLICK_WINDOW"`
}

// DefaultConfig returns the default thresholds
func DefaultConfig() Config {
	return Config{
		Jitter:           12,
		SwipeMinWidth:    768,
		SwipeMinDX:       120,
		SwipeRatio:       1.5,
		SwipeMaxDY:       140,
		SwipeMaxDuration: 700 * time.Millisecond,
		DoubleTapWindow:  280 * time.Millisecond,
		ToggleDelay:      260 * time.Millisecond,
		LikeCooldown:     600 * time.Millisecond,
		BurstLifetime:    1200 * time.Millisecond,
		SkipClickWindow:  400 * time.Millisecond,
	}
}

// Point is a position in surface pixels
type Point struct {
	X, Y float64
}

// Burst is a heart animation shown where a like happened
type Burst struct {
	ID      uint64
	At      Point
	Created time.Time
}

// Actions are the effects a gesture can have
type Actions interface {
	Next()
	Previous()
	Like()
	Chrome() bool
	SetChrome(visible bool)
}

// Outcome describes how a touch ended
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeTap
	OutcomeDoubleTap
	OutcomeSwipeNext
	OutcomeSwipePrevious
	OutcomeDrag
)

// Clicks reports whether the platform would follow this outcome with a click
func (o Outcome) Clicks() bool {
	return o == OutcomeTap || o == OutcomeDoubleTap
}

// Options configures a Disambiguator
type Options struct {
	Clock clock.Clock
	// OnChange is called when bursts appear or expire
	OnChange func()
}

// Disambiguator holds the gesture state of one reader surface
type Disambiguator struct {
	actions  Actions
	clock    clock.Clock
	onChange func()

	mu      sync.Mutex
	cfg     Config
	limiter *rate.Limiter
	width   float64

	touching  bool
	moved     bool
	origin    Point
	startedAt time.Time

	lastTap       time.Time
	initialChrome bool
	pending       clock.Timer
	pendingSeq    uint64

	skip      bool
	skipTimer clock.Timer

	bursts    []Burst
	nextBurst uint64
}

// New creates a disambiguator
func New(actions Actions, cfg Config, opts Options) *Disambiguator {
	c := opts.Clock
	if c == nil {
		c = clock.Real()
	}
	return &Disambiguator{
		actions:  actions,
		clock:    c,
		onChange: opts.OnChange,
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Every(cfg.LikeCooldown), 1),
	}
}

// SetConfig replaces the thresholds
func (d *Disambiguator) SetConfig(cfg Config) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg = cfg
	d.limiter.SetLimitAt(d.clock.Now(), rate.Every(cfg.LikeCooldown))
}

// SetWidth sets the viewport width used to enable swipes
func (d *Disambiguator) SetWidth(width float64) {
	d.mu.Lock()
	d.width = width
	d.mu.Unlock()
}

// TouchStart begins a touch at p
func (d *Disambiguator) TouchStart(p Point) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.touching = true
	d.moved = false
	d.origin = p
	d.startedAt = d.clock.Now()
}

// TouchMove tracks a touch. Movement past the jitter cancels a pending toggle.
func (d *Disambiguator) TouchMove(p Point) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.touching || d.moved {
		return
	}
	if math.Abs(p.X-d.origin.X) > d.cfg.Jitter || math.Abs(p.Y-d.origin.Y) > d.cfg.Jitter {
		d.moved = true
		d.cancelPending()
	}
}

// TouchEnd finishes a touch at p and performs the resulting action
func (d *Disambiguator) TouchEnd(p Point) Outcome {
	chrome := d.actions.Chrome()

	d.mu.Lock()
	if !d.touching {
		d.mu.Unlock()
		return OutcomeNone
	}
	d.touching = false
	now := d.clock.Now()

	if d.moved {
		d.lastTap = time.Time{}
		outcome := d.swipe(p, now)
		d.mu.Unlock()

		switch outcome {
		case OutcomeSwipeNext:
			d.actions.Next()
		case OutcomeSwipePrevious:
			d.actions.Previous()
		}
		return outcome
	}

	if !d.lastTap.IsZero() {
		if delta := now.Sub(d.lastTap); delta > 0 && delta < d.cfg.DoubleTapWindow {
			d.cancelPending()
			restore := d.initialChrome
			d.lastTap = time.Time{}
			liked := d.attemptLike(p, now)
			d.mu.Unlock()

			d.actions.SetChrome(restore)
			d.afterLike(liked)
			return OutcomeDoubleTap
		}
	}

	d.initialChrome = chrome
	d.lastTap = now
	d.schedule()
	d.mu.Unlock()
	return OutcomeTap
}

// Click handles a click that follows a tap
func (d *Disambiguator) Click(Point) {
	d.mu.Lock()
	if d.skip {
		d.clearSkip()
		d.mu.Unlock()
		return
	}
	if d.pending != nil {
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()
	d.actions.SetChrome(!d.actions.Chrome())
}

// DoubleClick likes the chapter at p, subject to the cooldown. The click
// that follows it is swallowed either way.
func (d *Disambiguator) DoubleClick(p Point) {
	d.mu.Lock()
	liked := d.attemptLike(p, d.clock.Now())
	d.mu.Unlock()
	d.afterLike(liked)
}

// Bursts returns the live heart bursts
func (d *Disambiguator) Bursts() []Burst {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.bursts)
}

// TogglePending reports whether a chrome toggle is scheduled
func (d *Disambiguator) TogglePending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Reset cancels timers and clears all gesture state
func (d *Disambiguator) Reset() {
	d.mu.Lock()
	d.cancelPending()
	d.clearSkip()
	d.touching = false
	d.moved = false
	d.lastTap = time.Time{}
	d.bursts = nil
	d.mu.Unlock()
}

func (d *Disambiguator) swipe(p Point, now time.Time) Outcome {
	if d.width < d.cfg.SwipeMinWidth {
		return OutcomeDrag
	}
	dx := p.X - d.origin.X
	dy := p.Y - d.origin.Y
	adx, ady := math.Abs(dx), math.Abs(dy)
	if adx < d.cfg.SwipeMinDX || adx < d.cfg.SwipeRatio*ady {
		return OutcomeDrag
	}
	if now.Sub(d.startedAt) > d.cfg.SwipeMaxDuration || ady > d.cfg.SwipeMaxDY {
		return OutcomeDrag
	}
	if dx < 0 {
		return OutcomeSwipeNext
	}
	return OutcomeSwipePrevious
}

// schedule arms the single tap toggle; d.mu must be held
func (d *Disambiguator) schedule() {
	d.cancelPending()
	d.pendingSeq++
	seq := d.pendingSeq
	d.pending = d.clock.AfterFunc(d.cfg.ToggleDelay, func() {
		d.mu.Lock()
		if d.pending == nil || d.pendingSeq != seq {
			d.mu.Unlock()
			return
		}
		d.pending = nil
		d.mu.Unlock()
		d.actions.SetChrome(!d.actions.Chrome())
	})
}

// cancelPending stops the scheduled toggle; d.mu must be held
func (d *Disambiguator) cancelPending() {
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
	d.pendingSeq++
}

func (d *Disambiguator) clearSkip() {
	d.skip = false
	if d.skipTimer != nil {
		d.skipTimer.Stop()
		d.skipTimer = nil
	}
}

// attemptLike arms the click skip and, when the cooldown allows, records a
// burst. It reports whether the like action should run; d.mu must be held.
func (d *Disambiguator) attemptLike(p Point, now time.Time) bool {
	d.armSkip()
	if !d.limiter.AllowN(now, 1) {
		return false
	}

	d.nextBurst++
	id := d.nextBurst
	d.bursts = append(d.bursts, Burst{ID: id, At: p, Created: now})
	d.clock.AfterFunc(d.cfg.BurstLifetime, func() { d.expireBurst(id) })
	return true
}

// armSkip swallows the click that follows a double tap; d.mu must be held
func (d *Disambiguator) armSkip() {
	if d.skipTimer != nil {
		d.skipTimer.Stop()
	}
	d.skip = true
	var timer clock.Timer
	timer = d.clock.AfterFunc(d.cfg.SkipClickWindow, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.skipTimer == timer {
			d.skip = false
			d.skipTimer = nil
		}
	})
	d.skipTimer = timer
}

func (d *Disambiguator) afterLike(liked bool) {
	if !liked {
		return
	}
	d.notify()
	d.actions.Like()
}

func (d *Disambiguator) expireBurst(id uint64) {
	d.mu.Lock()
	d.bursts = slices.DeleteFunc(d.bursts, func(b Burst) bool { return b.ID == id })
	d.mu.Unlock()
	d.notify()
}

func (d *Disambiguator) notify() {
	if d.onChange != nil {
		d.onChange()
	}
}
