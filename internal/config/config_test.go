package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/webby-manga/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := config.LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultServerURL, cfg.ServerURL)
	assert.False(t, cfg.IsAuthenticated())
	assert.Equal(t, path, cfg.Path())
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg, err := config.LoadFrom(path)
	require.NoError(t, err)
	cfg.ServerURL = "https://manga.example"
	require.NoError(t, cfg.SetToken("abc"))

	loaded, err := config.LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "https://manga.example", loaded.ServerURL)
	assert.Equal(t, "abc", loaded.Token)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server_url":"http://file"}`), 0600))
	t.Setenv("WEBBY_MANGA_SERVER_URL", "http://env")

	cfg, err := config.LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "http://env", cfg.ServerURL)
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{`), 0600))

	_, err := config.LoadFrom(path)
	assert.Error(t, err)
}

func TestAddRecentlyRead(t *testing.T) {
	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	_, ok := cfg.LastRead()
	assert.False(t, ok)

	require.NoError(t, cfg.AddRecentlyRead(10, 1, "Ch. 1"))
	require.NoError(t, cfg.AddRecentlyRead(20, 2, "Ch. 4"))
	require.NoError(t, cfg.AddRecentlyRead(11, 1, "Ch. 2"))

	require.Len(t, cfg.RecentlyRead, 2)
	last, ok := cfg.LastRead()
	require.True(t, ok)
	assert.Equal(t, int64(11), last.ChapterID)
	assert.Equal(t, int64(20), cfg.RecentlyRead[1].ChapterID)

	for i := int64(0); i < config.MaxRecentlyRead+3; i++ {
		require.NoError(t, cfg.AddRecentlyRead(100+i, 100+i, "x"))
	}
	assert.Len(t, cfg.RecentlyRead, config.MaxRecentlyRead)
}
