// Package title picks the longest chapter title that fits the header.
package title

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/justyntemme/webby-manga/pkg/models"
)

// Variant names a title length, longest first
type Variant int

const (
	Full Variant = iota
	Medium
	Short
	Minimal
)

// String returns the variant name
func (v Variant) String() string {
	switch v {
	case Full:
		return "full"
	case Medium:
		return "medium"
	case Short:
		return "short"
	default:
		return "minimal"
	}
}

// Variants holds one title per Variant
type Variants [4]string

// Build returns the title variants of a chapter
func Build(ch models.Chapter) Variants {
	number := ch.DisplayNumber()
	short := "Ch. " + number

	medium := short
	if t := strings.TrimSpace(ch.Title); t != "" {
		medium = short + ": " + t
	}

	full := medium
	if vol := ch.DisplayVolume(); vol != "" {
		full = "Vol. " + vol + " " + medium
	}

	return Variants{full, medium, short, number}
}

// Measurer returns the rendered width of s in pixels
type Measurer func(s string) float64

// Cells measures terminal strings with width and converts cells to pixels
func Cells(cellWidth float64, width func(string) int) Measurer {
	return func(s string) float64 {
		return float64(width(s)) * cellWidth
	}
}

// DefaultMeasurer measures with go-runewidth on 10px cells
func DefaultMeasurer() Measurer {
	return Cells(10, runewidth.StringWidth)
}

// Guess returns the starting variant for a viewport width in pixels
func Guess(viewportWidth float64) Variant {
	switch {
	case viewportWidth >= 1024:
		return Full
	case viewportWidth >= 768:
		return Medium
	case viewportWidth >= 480:
		return Short
	default:
		return Minimal
	}
}

// Fitted is the result of Fit
type Fitted struct {
	Variant Variant
	Text    string
}

// Fit returns the longest variant that fits available pixels. The search
// starts at the guess for viewportWidth, grows while longer variants fit and
// shrinks while the current one overflows. Minimal is returned when nothing fits.
func Fit(v Variants, available, viewportWidth float64, measure Measurer) Fitted {
	if measure == nil {
		measure = DefaultMeasurer()
	}
	fits := func(i Variant) bool { return measure(v[i]) <= available }

	i := Guess(viewportWidth)
	for i > Full && fits(i-1) {
		i--
	}
	for i < Minimal && !fits(i) {
		i++
	}
	return Fitted{Variant: i, Text: v[i]}
}
