package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationsKeepLatest(t *testing.T) {
	l := NewLocations()
	l.ReplaceLocation(1)
	l.ReplaceLocation(2)
	l.ReplaceLocation(3)

	cmd := l.Wait()
	require.NotNil(t, cmd)
	assert.Equal(t, locationMsg{chapterID: 3}, cmd())
}

func TestNilLocationsWaitIsNoop(t *testing.T) {
	var l *Locations
	assert.Nil(t, l.Wait())
}
