package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/justyntemme/webby-manga/internal/api"
	"github.com/justyntemme/webby-manga/internal/config"
	"github.com/justyntemme/webby-manga/internal/reader/progress"
	"github.com/justyntemme/webby-manga/internal/reader/session"
	"github.com/justyntemme/webby-manga/internal/reader/title"
	"github.com/justyntemme/webby-manga/internal/ui"
)

const logFileName = "webby-manga.log"

func main() {
	// Define flags
	serverURL := flag.String("url", "", "Server URL (e.g., http://myserver:8080)")
	flag.StringVar(serverURL, "s", "", "Server URL (shorthand)")
	chapterID := flag.Int64("chapter", 0, "Chapter ID to open")
	flag.Int64Var(chapterID, "c", 0, "Chapter ID to open (shorthand)")
	showHelp := flag.Bool("help", false, "Show help message")
	flag.BoolVar(showHelp, "h", false, "Show help (shorthand)")
	debug := flag.Bool("debug", false, "Write debug records to the log file")

	flag.Parse()

	if *showHelp {
		printUsage()
		os.Exit(0)
	}

	if err := run(*serverURL, *chapterID, *debug); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(serverURL string, chapterID int64, debug bool) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Override server URL if provided via flag
	if serverURL != "" {
		cfg.ServerURL = serverURL
		if err := cfg.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not save server URL to config: %v\n", err)
		}
	}

	tuningPath := config.TuningPath(cfg.Dir())
	tuning, err := config.LoadTuning(tuningPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: using default tuning: %v\n", err)
	}

	// The terminal owns stdout, so logs go to a file
	if err := os.MkdirAll(cfg.Dir(), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	logFile, err := tea.LogToFile(filepath.Join(cfg.Dir(), logFileName), "")
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	logger := newLogger(logFile, debug)
	slog.SetDefault(logger)

	// Resume the most recently read chapter
	if chapterID == 0 {
		if last, ok := cfg.LastRead(); ok {
			chapterID = last.ChapterID
		}
	}

	client := api.NewClient(cfg.ServerURL, cfg.Token)

	tracker := progress.NewRemote(client, logger)
	if cfg.IsAuthenticated() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := tracker.Load(ctx); err != nil {
			logger.Warn("progress_load_failed", slog.String("error", err.Error()))
		}
		cancel()
	}

	locations := ui.NewLocations()
	sess := session.New(session.Dependencies{
		Chapters: client,
		Progress: tracker,
		Likes:    client,
	}, session.Options{
		Logger:    logger,
		Navigator: locations,
		Tuning:    tuning.Session(),
		Measurer:  title.Cells(tuning.Cell.WidthPx, lipgloss.Width),
	})
	defer sess.Close()

	watcher, err := config.WatchTuning(tuningPath)
	if err != nil {
		logger.Warn("tuning_watch_failed", slog.String("error", err.Error()))
		watcher = nil
	} else {
		watcher.OnError = func(err error) {
			logger.Warn("tuning_watch_error", slog.String("error", err.Error()))
		}
		defer watcher.Close()
	}

	logger.Info("app_started",
		slog.String("server_url", cfg.ServerURL),
		slog.Int64("chapter_id", chapterID),
		slog.Bool("authenticated", cfg.IsAuthenticated()),
	)

	// Run TUI mode
	app := ui.NewApp(ui.Options{
		Config:    cfg,
		Session:   sess,
		Pages:     client,
		Locations: locations,
		Tuning:    tuning,
		Watcher:   watcher,
		Logger:    logger,
		Chapter:   chapterID,
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// newLogger returns a JSON logger tagged with a fresh session id
func newLogger(f *os.File, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
	if id, err := uuid.NewV7(); err == nil {
		logger = logger.With(slog.String("session_id", id.String()))
	}
	return logger
}

func printUsage() {
	fmt.Println("webby-manga - Terminal manga reader with continuous chapter scrolling")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  webby-manga                 Resume the most recently read chapter")
	fmt.Println("  webby-manga -c <id>         Open a chapter")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -s, --url <url>        Set server URL (saved to config)")
	fmt.Println("  -c, --chapter <id>     Chapter to open")
	fmt.Println("      --debug            Write debug records to the log file")
	fmt.Println("  -h, --help             Show this help message")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  WEBBY_MANGA_SERVER_URL, WEBBY_MANGA_TOKEN, WEBBY_MANGA_THEME")
	fmt.Println("  WEBBY_MANGA_GESTURE_*, WEBBY_MANGA_CHROME_*, WEBBY_MANGA_OBSERVER_* (tuning)")
	fmt.Println()
	fmt.Println("Config: ~/.config/webby-manga/config.json")
	fmt.Println("Tuning: ~/.config/webby-manga/tuning.toml (reloaded on save)")
}
