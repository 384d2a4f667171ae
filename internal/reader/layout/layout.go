// Package layout stacks materialized chapters into a vertical scroll surface.
// All lengths are pixels; hosts without pixels convert their own units.
package layout

import (
	"math"
	"sync"

	"github.com/justyntemme/webby-manga/internal/reader/window"
)

// Metrics controls the size of every part of a chapter block
type Metrics struct {
	Width  float64
	Height float64

	// LeadHeight is the spacer above the first chapter of the manga
	LeadHeight float64
	// HeaderHeight is the divider band above every other chapter
	HeaderHeight   float64
	SentinelHeight float64
	TrailerHeight  float64
	PageGap        float64
	MaxPageWidth   float64
	DefaultAspect  float64
	// EmptyFraction sizes the "chapter not found" body relative to Height
	EmptyFraction float64
}

// DefaultMetrics returns metrics for a viewport of the given size
func DefaultMetrics(width, height float64) Metrics {
	return Metrics{
		Width:          width,
		Height:         height,
		LeadHeight:     48,
		HeaderHeight:   80,
		SentinelHeight: 4,
		TrailerHeight:  256,
		MaxPageWidth:   896,
		DefaultAspect:  1.4,
		EmptyFraction:  0.4,
	}
}

// PageWidth returns the rendered width of a page
func (m Metrics) PageWidth() float64 {
	if m.MaxPageWidth > 0 && m.MaxPageWidth < m.Width {
		return m.MaxPageWidth
	}
	return m.Width
}

// Rect is a vertical extent in surface coordinates
type Rect struct {
	Top    float64
	Height float64
}

// Bottom returns the lower edge
func (r Rect) Bottom() float64 {
	return r.Top + r.Height
}

// Shift returns r moved by d
func (r Rect) Shift(d float64) Rect {
	return Rect{Top: r.Top + d, Height: r.Height}
}

// Block is the laid out form of one chapter
type Block struct {
	Index     int
	ChapterID int64
	Empty     bool

	Rect        Rect
	TopSentinel Rect
	Header      Rect
	Pages       []Rect
	Completion  Rect
	Trailer     Rect
}

// Compute lays out entries top to bottom starting at zero
func Compute(entries []window.Entry, m Metrics) []Block {
	blocks := make([]Block, 0, len(entries))
	y := 0.0
	pageWidth := m.PageWidth()

	for _, e := range entries {
		b := Block{Index: e.Index, ChapterID: e.Chapter.ID, Empty: e.Empty()}
		start := y

		b.TopSentinel = Rect{Top: y, Height: m.SentinelHeight}
		y += m.SentinelHeight

		header := m.HeaderHeight
		if e.Index == 0 {
			header = m.LeadHeight
		}
		b.Header = Rect{Top: y, Height: header}
		y += header

		if b.Empty {
			empty := Rect{Top: y, Height: m.Height * m.EmptyFraction}
			b.Pages = []Rect{empty}
			y += empty.Height
		} else {
			b.Pages = make([]Rect, len(e.Images))
			for i, img := range e.Images {
				h := math.Round(pageWidth * img.AspectRatio(m.DefaultAspect))
				b.Pages[i] = Rect{Top: y, Height: h}
				y += h
				if i < len(e.Images)-1 {
					y += m.PageGap
				}
			}
		}

		b.Completion = Rect{Top: y, Height: m.SentinelHeight}
		y += m.SentinelHeight
		b.Trailer = Rect{Top: y, Height: m.TrailerHeight}
		y += m.TrailerHeight

		b.Rect = Rect{Top: start, Height: y - start}
		blocks = append(blocks, b)
	}
	return blocks
}

// Viewport is the visible window onto the surface
type Viewport struct {
	Top    float64
	Width  float64
	Height float64
}

// Bottom returns the lower edge of the viewport
func (v Viewport) Bottom() float64 {
	return v.Top + v.Height
}

// Surface is a scrollable stack of chapter blocks backed by a window store.
// It is safe for concurrent use.
type Surface struct {
	mu        sync.Mutex
	store     *window.Store
	metrics   Metrics
	blocks    []Block
	total     float64
	scrollTop float64
}

// NewSurface creates a surface over store
func NewSurface(store *window.Store, metrics Metrics) *Surface {
	s := &Surface{store: store, metrics: metrics}
	s.relayout()
	return s
}

// Reflow recomputes the layout from the store
func (s *Surface) Reflow() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relayout()
}

// Preserve runs mutate and then scrolls so the block for index keeps the
// viewport offset it had before. Used when content is inserted above it.
func (s *Surface) Preserve(index int, mutate func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before, ok := s.offsetOf(index)
	mutate()
	s.relayout()
	if !ok {
		return
	}
	if after, ok := s.offsetOf(index); ok {
		s.scrollTop += after - before
		s.clamp()
	}
}

// Resize changes the viewport size and re-lays out, keeping the block at the
// top of the viewport at the same relative position.
func (s *Surface) Resize(width, height float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	anchor, fraction, ok := s.topAnchor()
	s.metrics.Width = width
	s.metrics.Height = height
	s.relayout()
	if ok {
		if b, found := s.block(anchor); found {
			s.scrollTop = b.Rect.Top + fraction*b.Rect.Height
		}
	}
	s.clamp()
}

// SetMetrics replaces all metrics except the viewport size
func (s *Surface) SetMetrics(m Metrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.Width = s.metrics.Width
	m.Height = s.metrics.Height
	s.metrics = m
	s.relayout()
	s.clamp()
}

// Metrics returns the current metrics
func (s *Surface) Metrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics
}

// ScrollBy moves the viewport and returns the distance actually scrolled
func (s *Surface) ScrollBy(delta float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.scrollTop
	s.scrollTop += delta
	s.clamp()
	return s.scrollTop - before
}

// ScrollTo aligns the top of the block for index with the top of the viewport
func (s *Surface) ScrollTo(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.block(index)
	if !ok {
		return false
	}
	s.scrollTop = b.Rect.Top
	s.clamp()
	return true
}

// OffsetOf returns the viewport-relative top of the block for index
func (s *Surface) OffsetOf(index int) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offsetOf(index)
}

// Viewport returns the current viewport
func (s *Surface) Viewport() Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Viewport{Top: s.scrollTop, Width: s.metrics.Width, Height: s.metrics.Height}
}

// Blocks returns a copy of the laid out blocks
func (s *Surface) Blocks() []Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Block, len(s.blocks))
	copy(out, s.blocks)
	return out
}

// Frame returns the blocks and the viewport from the same layout pass
func (s *Surface) Frame() ([]Block, Viewport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Block, len(s.blocks))
	copy(out, s.blocks)
	return out, Viewport{Top: s.scrollTop, Width: s.metrics.Width, Height: s.metrics.Height}
}

// TotalHeight returns the height of all blocks
func (s *Surface) TotalHeight() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Reset scrolls to the top and drops the layout
func (s *Surface) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrollTop = 0
	s.relayout()
}

func (s *Surface) relayout() {
	s.blocks = Compute(s.store.Entries(), s.metrics)
	s.total = 0
	if n := len(s.blocks); n > 0 {
		s.total = s.blocks[n-1].Rect.Bottom()
	}
}

func (s *Surface) clamp() {
	maxTop := math.Max(0, s.total-s.metrics.Height)
	s.scrollTop = math.Min(math.Max(s.scrollTop, 0), maxTop)
}

func (s *Surface) block(index int) (Block, bool) {
	for _, b := range s.blocks {
		if b.Index == index {
			return b, true
		}
	}
	return Block{}, false
}

func (s *Surface) offsetOf(index int) (float64, bool) {
	b, ok := s.block(index)
	if !ok {
		return 0, false
	}
	return b.Rect.Top - s.scrollTop, true
}

// topAnchor returns the block under the top edge of the viewport and how far
// into it the viewport starts
func (s *Surface) topAnchor() (int, float64, bool) {
	for _, b := range s.blocks {
		if b.Rect.Bottom() > s.scrollTop && b.Rect.Height > 0 {
			return b.Index, (s.scrollTop - b.Rect.Top) / b.Rect.Height, true
		}
	}
	return 0, 0, false
}
