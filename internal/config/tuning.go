package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/justyntemme/webby-manga/internal/reader/chrome"
	"github.com/justyntemme/webby-manga/internal/reader/gesture"
	"github.com/justyntemme/webby-manga/internal/reader/layout"
	"github.com/justyntemme/webby-manga/internal/reader/session"
	"github.com/justyntemme/webby-manga/internal/reader/visibility"
)

const tuningFileName = "tuning.toml"

// ObserverTuning positions the chapter observers. Percentages are of the
// viewport height, negative margins shrink the viewport.
type ObserverTuning struct {
	ActivationTopPct    float64 `toml:"activation_top_pct" env:"ACTIVATION_TOP_PCT"`
	ActivationBottomPct float64 `toml:"activation_bottom_pct" env:"ACTIVATION_BOTTOM_PCT"`
	ActivationThreshold float64 `toml:"activation_threshold" env:"ACTIVATION_THRESHOLD"`
	NearTopPx           float64 `toml:"near_top_px" env:"NEAR_TOP_PX"`
	NearBottomPx        float64 `toml:"near_bottom_px" env:"NEAR_BOTTOM_PX"`
	CompletionBottomPx  float64 `toml:"completion_bottom_px" env:"COMPLETION_BOTTOM_PX"`
	CompletionThreshold float64 `toml:"completion_threshold" env:"COMPLETION_THRESHOLD"`
	PreloadPx           float64 `toml:"preload_px" env:"PRELOAD_PX"`
}

// LayoutTuning sizes the parts of a chapter block
type LayoutTuning struct {
	LeadPx         float64 `toml:"lead_px" env:"LEAD_PX"`
	HeaderPx       float64 `toml:"header_px" env:"HEADER_PX"`
	SentinelPx     float64 `toml:"sentinel_px" env:"SENTINEL_PX"`
	TrailerPx      float64 `toml:"trailer_px" env:"TRAILER_PX"`
	PageGapPx      float64 `toml:"page_gap_px" env:"PAGE_GAP_PX"`
	MaxPageWidthPx float64 `toml:"max_page_width_px" env:"MAX_PAGE_WIDTH_PX"`
	DefaultAspect  float64 `toml:"default_aspect" env:"DEFAULT_ASPECT"`
	EmptyFraction  float64 `toml:"empty_fraction" env:"EMPTY_FRACTION"`
}

// CellTuning is the pixel size assumed for one terminal cell
type CellTuning struct {
	WidthPx  float64 `toml:"width_px" env:"WIDTH_PX"`
	HeightPx float64 `toml:"height_px" env:"HEIGHT_PX"`
}

// Tuning holds every adjustable reader threshold
type Tuning struct {
	Gesture  gesture.Config `toml:"gesture" envPrefix:"GESTURE_"`
	Chrome   chrome.Config  `toml:"chrome" envPrefix:"CHROME_"`
	Observer ObserverTuning `toml:"observer" envPrefix:"OBSERVER_"`
	Layout   LayoutTuning   `toml:"layout" envPrefix:"LAYOUT_"`
	Cell     CellTuning     `toml:"cell" envPrefix:"CELL_"`

	UpwardScrollWindow time.Duration `toml:"upward_scroll_window" env:"UPWARD_SCROLL_WINDOW"`
}

// DefaultTuning returns the default thresholds
func DefaultTuning() Tuning {
	m := layout.DefaultMetrics(0, 0)
	return Tuning{
		Gesture: gesture.DefaultConfig(),
		Chrome:  chrome.DefaultConfig(),
		Observer: ObserverTuning{
			ActivationTopPct:    -30,
			ActivationBottomPct: -55,
			ActivationThreshold: 0.1,
			NearTopPx:           300,
			NearBottomPx:        600,
			CompletionBottomPx:  -120,
			CompletionThreshold: 0.75,
			PreloadPx:           800,
		},
		Layout: LayoutTuning{
			LeadPx:         m.LeadHeight,
			HeaderPx:       m.HeaderHeight,
			SentinelPx:     m.SentinelHeight,
			TrailerPx:      m.TrailerHeight,
			PageGapPx:      m.PageGap,
			MaxPageWidthPx: m.MaxPageWidth,
			DefaultAspect:  m.DefaultAspect,
			EmptyFraction:  m.EmptyFraction,
		},
		Cell:               CellTuning{WidthPx: 10, HeightPx: 20},
		UpwardScrollWindow: 1350 * time.Millisecond,
	}
}

// TuningPath returns the tuning file next to the config file
func TuningPath(configDir string) string {
	return filepath.Join(configDir, tuningFileName)
}

// LoadTuning reads path over the defaults and applies WEBBY_MANGA_
// environment overrides. A missing file yields the defaults.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return DefaultTuning(), fmt.Errorf("failed to read tuning file: %w", err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, &t); err != nil {
			return DefaultTuning(), fmt.Errorf("failed to parse tuning file: %w", err)
		}
	}

	if err := env.ParseWithOptions(&t, env.Options{Prefix: envPrefix}); err != nil {
		return DefaultTuning(), fmt.Errorf("failed to parse tuning environment: %w", err)
	}
	return t, nil
}

// SaveTuning writes t to path
func SaveTuning(path string, t Tuning) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create tuning file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(t); err != nil {
		return fmt.Errorf("failed to write tuning: %w", err)
	}
	return nil
}

// Session converts t into the reader session tuning
func (t Tuning) Session() session.Tuning {
	o := t.Observer
	return session.Tuning{
		Gesture: t.Gesture,
		Chrome:  t.Chrome,
		Observers: visibility.Config{
			Activation: visibility.Observer{
				Margin:    visibility.Margin{Top: visibility.Pct(o.ActivationTopPct), Bottom: visibility.Pct(o.ActivationBottomPct)},
				Threshold: o.ActivationThreshold,
				Basis:     visibility.OfRoot,
			},
			NearTop: visibility.Observer{
				Margin: visibility.Margin{Top: visibility.Px(o.NearTopPx)},
			},
			NearBottom: visibility.Observer{
				Margin: visibility.Margin{Bottom: visibility.Px(o.NearBottomPx)},
			},
			Completion: visibility.Observer{
				Margin:    visibility.Margin{Bottom: visibility.Px(o.CompletionBottomPx)},
				Threshold: o.CompletionThreshold,
			},
			Preload: visibility.Observer{
				Margin:    visibility.Margin{Top: visibility.Px(o.PreloadPx), Bottom: visibility.Px(o.PreloadPx)},
				Threshold: 0.01,
			},
		},
		Layout: layout.Metrics{
			LeadHeight:     t.Layout.LeadPx,
			HeaderHeight:   t.Layout.HeaderPx,
			SentinelHeight: t.Layout.SentinelPx,
			TrailerHeight:  t.Layout.TrailerPx,
			PageGap:        t.Layout.PageGapPx,
			MaxPageWidth:   t.Layout.MaxPageWidthPx,
			DefaultAspect:  t.Layout.DefaultAspect,
			EmptyFraction:  t.Layout.EmptyFraction,
		},
		UpwardScrollWindow: t.UpwardScrollWindow,
	}
}
