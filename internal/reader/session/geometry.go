package session

import (
	"github.com/justyntemme/webby-manga/internal/reader/layout"
	"github.com/justyntemme/webby-manga/internal/reader/visibility"
)

func span(r layout.Rect, top float64) visibility.Span {
	return visibility.Span{Top: r.Top - top, Bottom: r.Bottom() - top}
}

// geometry converts a laid out block to viewport-relative spans
func geometry(b layout.Block, vp layout.Viewport) visibility.Geometry {
	pages := make([]visibility.Span, len(b.Pages))
	for i, p := range b.Pages {
		pages[i] = span(p, vp.Top)
	}
	return visibility.Geometry{
		Index:       b.Index,
		Block:       span(b.Rect, vp.Top),
		TopSentinel: span(b.TopSentinel, vp.Top),
		Completion:  span(b.Completion, vp.Top),
		Trailer:     span(b.Trailer, vp.Top),
		Pages:       pages,
	}
}

func geometries(blocks []layout.Block, vp layout.Viewport) []visibility.Geometry {
	out := make([]visibility.Geometry, len(blocks))
	for i, b := range blocks {
		out[i] = geometry(b, vp)
	}
	return out
}
