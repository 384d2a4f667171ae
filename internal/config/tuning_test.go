package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/webby-manga/internal/config"
	"github.com/justyntemme/webby-manga/internal/reader/session"
)

func TestDefaultTuningMatchesSessionDefaults(t *testing.T) {
	assert.Equal(t, session.DefaultTuning(), config.DefaultTuning().Session())
}

func TestLoadTuningMissingFile(t *testing.T) {
	tuning, err := config.LoadTuning(filepath.Join(t.TempDir(), "tuning.toml"))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultTuning(), tuning)
}

func TestLoadTuningOverridesOnlyGivenKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
upward_scroll_window = "2s"

[gesture]
double_tap_window = "350ms"
jitter_px = 8

[observer]
near_bottom_px = 900
`), 0600))

	tuning, err := config.LoadTuning(path)
	require.NoError(t, err)

	want := config.DefaultTuning()
	want.UpwardScrollWindow = 2 * time.Second
	want.Gesture.DoubleTapWindow = 350 * time.Millisecond
	want.Gesture.Jitter = 8
	want.Observer.NearBottomPx = 900
	assert.Equal(t, want, tuning)

	s := tuning.Session()
	assert.Equal(t, 900.0, s.Observers.NearBottom.Margin.Bottom.Value)
}

func TestTuningEnvironmentBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.toml")
	require.NoError(t, os.WriteFile(path, []byte("[chrome]\nthreshold_px = 50\n"), 0600))
	t.Setenv("WEBBY_MANGA_CHROME_THRESHOLD_PX", "70")
	t.Setenv("WEBBY_MANGA_CELL_WIDTH_PX", "8")

	tuning, err := config.LoadTuning(path)
	require.NoError(t, err)
	assert.Equal(t, 70.0, tuning.Chrome.Threshold)
	assert.Equal(t, 8.0, tuning.Cell.WidthPx)
}

func TestLoadTuningBrokenFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.toml")
	require.NoError(t, os.WriteFile(path, []byte("[gesture\n"), 0600))

	tuning, err := config.LoadTuning(path)
	assert.Error(t, err)
	assert.Equal(t, config.DefaultTuning(), tuning)
}

func TestSaveTuningRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "tuning.toml")
	tuning := config.DefaultTuning()
	tuning.Layout.MaxPageWidthPx = 640

	require.NoError(t, config.SaveTuning(path, tuning))
	loaded, err := config.LoadTuning(path)
	require.NoError(t, err)
	assert.Equal(t, 640.0, loaded.Layout.MaxPageWidthPx)
}
