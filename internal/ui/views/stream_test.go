package views

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/justyntemme/webby-manga/internal/reader/gesture"
	"github.com/justyntemme/webby-manga/internal/reader/session"
)

func TestHeartColumns(t *testing.T) {
	snap := session.Snapshot{Bursts: []gesture.Burst{
		{ID: 1, At: gesture.Point{X: 200, Y: 400}, Created: time.Now()},
		{ID: 2, At: gesture.Point{X: 55, Y: 405}, Created: time.Now()},
		{ID: 3, At: gesture.Point{X: 5000, Y: 10}, Created: time.Now()},
	}}

	hearts := heartColumns(snap, 40, 30, DefaultCellSize)
	assert.Equal(t, map[int][]int{20: {5, 20}}, hearts)
}

func TestStyleRowDrawsHearts(t *testing.T) {
	out := styleRow(streamRow{text: "abcdefgh"}, []int{2, 5})
	assert.Contains(t, out, "ab")
	assert.Contains(t, out, "de")
	assert.Contains(t, out, "gh")
	assert.Equal(t, 2, strings.Count(out, "♥"))
	assert.NotContains(t, out, "c")
	assert.NotContains(t, out, "f")
}
