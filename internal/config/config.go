package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DefaultServerURL = "http://localhost:8080"
	configFileName   = "config.json"
	configDirName    = "webby-manga"
	envPrefix        = "WEBBY_MANGA_"
	MaxRecentlyRead  = 10 // Maximum number of recently read chapters to track
)

// RecentlyReadEntry represents a recently read chapter
type RecentlyReadEntry struct {
	ChapterID int64     `json:"chapter_id"`
	MangaID   int64     `json:"manga_id"`
	Title     string    `json:"title"`
	OpenedAt  time.Time `json:"opened_at"`
}

// Config holds the application configuration
type Config struct {
	ServerURL    string              `json:"server_url" env:"SERVER_URL"`
	Token        string              `json:"token,omitempty" env:"TOKEN"`
	Theme        string              `json:"theme,omitempty" env:"THEME"`
	RecentlyRead []RecentlyReadEntry `json:"recently_read,omitempty"`

	// Path to config file (not persisted)
	path string `json:"-"`
}

// Load loads configuration from the default config file
func Load() (*Config, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom loads configuration from path. Environment variables prefixed
// with WEBBY_MANGA_ override file values.
func LoadFrom(configPath string) (*Config, error) {
	cfg := &Config{
		ServerURL: DefaultServerURL,
		path:      configPath,
	}

	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	cfg.path = configPath
	return cfg, nil
}

// Path returns the file the config is saved to
func (c *Config) Path() string {
	return c.path
}

// Dir returns the directory holding the config files
func (c *Config) Dir() string {
	return filepath.Dir(c.path)
}

// Save persists the configuration to disk
func (c *Config) Save() error {
	// Ensure directory exists
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(c.path, data, 0600)
}

// SetToken updates the token and saves
func (c *Config) SetToken(token string) error {
	c.Token = token
	return c.Save()
}

// IsAuthenticated returns true if a token is stored
func (c *Config) IsAuthenticated() bool {
	return c.Token != ""
}

// AddRecentlyRead moves a chapter to the front of the recently read list
func (c *Config) AddRecentlyRead(chapterID, mangaID int64, title string) error {
	// Drop the previous entry for the same manga
	newList := make([]RecentlyReadEntry, 0, MaxRecentlyRead)
	for _, entry := range c.RecentlyRead {
		if entry.MangaID != mangaID {
			newList = append(newList, entry)
		}
	}

	entry := RecentlyReadEntry{
		ChapterID: chapterID,
		MangaID:   mangaID,
		Title:     title,
		OpenedAt:  time.Now(),
	}
	c.RecentlyRead = append([]RecentlyReadEntry{entry}, newList...)

	// Trim to max size
	if len(c.RecentlyRead) > MaxRecentlyRead {
		c.RecentlyRead = c.RecentlyRead[:MaxRecentlyRead]
	}

	return c.Save()
}

// LastRead returns the most recently opened chapter
func (c *Config) LastRead() (RecentlyReadEntry, bool) {
	if len(c.RecentlyRead) == 0 {
		return RecentlyReadEntry{}, false
	}
	return c.RecentlyRead[0], true
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".config")
	}

	return filepath.Join(configDir, configDirName, configFileName), nil
}
