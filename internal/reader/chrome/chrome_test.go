package chrome_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/justyntemme/webby-manga/internal/reader/chrome"
)

func TestScrollHidesAndShows(t *testing.T) {
	var changes []bool
	c := chrome.New(chrome.DefaultConfig(), func(v bool) { changes = append(changes, v) })

	c.Scrolled(20)
	assert.True(t, c.Visible())
	c.Scrolled(20)
	assert.False(t, c.Visible())

	c.Scrolled(-30)
	assert.False(t, c.Visible())
	c.Scrolled(-10)
	assert.True(t, c.Visible())

	assert.Equal(t, []bool{false, true}, changes)
}

func TestDeadZoneMovementsAccumulate(t *testing.T) {
	c := chrome.New(chrome.DefaultConfig(), nil)

	for range 10 {
		c.Scrolled(4)
	}
	assert.False(t, c.Visible(), "small steps still add up past the threshold")
}

func TestNoHideWithoutInteraction(t *testing.T) {
	c := chrome.New(chrome.DefaultConfig(), nil)

	for range 20 {
		c.Scrolled(2)
	}
	assert.True(t, c.Visible())

	c.Toggle()
	assert.False(t, c.Visible())
	c.Toggle()
	c.Scrolled(40)
	assert.False(t, c.Visible())
}

func TestReset(t *testing.T) {
	c := chrome.New(chrome.DefaultConfig(), nil)
	c.Set(false)
	c.Reset()
	assert.True(t, c.Visible())
}
