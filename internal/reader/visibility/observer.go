// Package visibility decides, from block geometry, when chapters become
// active, when the reader nears a chapter edge and when a chapter is done.
//
// Observers behave like viewport intersection observers: each has a root
// margin and a threshold and fires when its target starts intersecting.
package visibility

import "math"

// Length is a root margin component in pixels or percent of the root height
type Length struct {
	Value   float64
	Percent bool
}

// Px returns a pixel length
func Px(v float64) Length { return Length{Value: v} }

// Pct returns a length relative to the root height
func Pct(v float64) Length { return Length{Value: v, Percent: true} }

// Resolve converts l to pixels for a root of the given height
func (l Length) Resolve(rootHeight float64) float64 {
	if l.Percent {
		return rootHeight * l.Value / 100
	}
	return l.Value
}

// Margin grows (positive) or shrinks (negative) the root vertically
type Margin struct {
	Top    Length
	Bottom Length
}

// Basis selects what an intersection ratio is measured against
type Basis int

const (
	// OfTarget measures the visible share of the target
	OfTarget Basis = iota
	// OfRoot measures how much of the margin-adjusted root the target covers
	OfRoot
)

// Span is a vertical extent relative to the top of the viewport
type Span struct {
	Top    float64
	Bottom float64
}

// Height returns the extent of s
func (s Span) Height() float64 {
	return s.Bottom - s.Top
}

// Observer is one intersection rule
type Observer struct {
	Margin    Margin
	Threshold float64
	Basis     Basis
}

// Root returns the margin-adjusted root for a viewport of rootHeight
func (o Observer) Root(rootHeight float64) Span {
	return Span{
		Top:    -o.Margin.Top.Resolve(rootHeight),
		Bottom: rootHeight + o.Margin.Bottom.Resolve(rootHeight),
	}
}

// Measure returns the intersection ratio of target and whether it counts as
// intersecting under the observer's threshold
func (o Observer) Measure(target Span, rootHeight float64) (float64, bool) {
	root := o.Root(rootHeight)
	if root.Bottom < root.Top {
		return 0, false
	}
	if target.Bottom < root.Top || target.Top > root.Bottom {
		return 0, false
	}

	overlap := math.Min(target.Bottom, root.Bottom) - math.Max(target.Top, root.Top)
	overlap = math.Max(overlap, 0)

	var ratio float64
	switch o.Basis {
	case OfRoot:
		if h := root.Height(); h > 0 {
			ratio = overlap / h
		}
	default:
		if h := target.Height(); h > 0 {
			ratio = overlap / h
		} else {
			ratio = 1
		}
	}

	if o.Threshold <= 0 {
		return ratio, true
	}
	return ratio, ratio >= o.Threshold
}
