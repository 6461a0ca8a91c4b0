// ABOUTME: Entry point for the companion-syncd local-first sync daemon
// ABOUTME: Wires storage media, the scoped store, the event bus, and the sync engine

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/2389/companion-sync/internal/config"
	"github.com/2389/companion-sync/internal/events"
	"github.com/2389/companion-sync/internal/gateway"
	"github.com/2389/companion-sync/internal/medium"
	"github.com/2389/companion-sync/internal/store"
	"github.com/2389/companion-sync/internal/syncer"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
                                            _
  ___ ___  _ __ ___  _ __   __ _ _ __  (_) ___  _ __        ___ _   _ _ __   ___
 / __/ _ \| '_ ' _ \| '_ \ / _' | '_ \ | |/ _ \| '_ \ _____/ __| | | | '_ \ / __|
| (_| (_) | | | | | | |_) | (_| | | | || | (_) | | | |_____\__ \ |_| | | | | (__
 \___\___/|_| |_| |_| .__/ \__,_|_| |_||_|\___/|_| |_|     |___/\__, |_| |_|\___|
                    |_|                                         |___/
`

// getConfigPath returns the path to the daemon config file.
// Priority: COMPANION_SYNC_CONFIG env var > XDG_CONFIG_HOME/companion-sync/config.yaml > ~/.config/companion-sync/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("COMPANION_SYNC_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "companion-sync", "config.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: companion-syncd <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  run [user-id]    Start the sync daemon, optionally with an active session")
		fmt.Println("  sync <user-id>   Run one push cycle and exit")
		fmt.Println("  version          Print the version")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "run":
		err = runDaemon(ctx)
	case "sync":
		err = runOnce(ctx)
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// buildEngine wires the full stack from config: storage media, scoped
// store, event bus, REST gateway, sync engine.
func buildEngine(cfg *config.Config, logger *slog.Logger) (*syncer.Engine, func(), error) {
	primary, err := medium.NewSQLiteMedium(cfg.Storage.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening primary storage: %w", err)
	}

	fallbackDir := cfg.Storage.FallbackDir
	if fallbackDir == "" {
		fallbackDir = filepath.Join(filepath.Dir(cfg.Storage.Path), "fallback")
	}
	fallback, err := medium.NewFileMedium(fallbackDir)
	if err != nil {
		primary.Close()
		return nil, nil, fmt.Errorf("opening fallback storage: %w", err)
	}

	st := store.New(primary, fallback, store.NewSessionTracker())
	bus := events.NewBus(logger)

	gw := gateway.NewREST(gateway.RESTConfig{
		BaseURL:     cfg.Remote.BaseURL,
		APIKey:      cfg.Remote.APIKey,
		AccessToken: cfg.Remote.AccessToken,
		Client:      &http.Client{Timeout: 30 * time.Second},
		Logger:      logger,
	})

	engine := syncer.New(syncer.Options{
		Store:   st,
		Gateway: gw,
		Bus:     bus,
		Config: syncer.Config{
			Debounce:    cfg.Sync.Debounce,
			MinInterval: cfg.Sync.MinInterval,
		},
		Logger: logger,
	})

	cleanup := func() {
		engine.Close()
		bus.Close()
		primary.Close()
	}
	return engine, cleanup, nil
}

func runDaemon(ctx context.Context) error {
	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Storage:  %s\n", cfg.Storage.Path)
	green.Print("    ▶ ")
	fmt.Printf("Remote:   %s\n", cfg.Remote.BaseURL)
	fmt.Println()

	logger.Info("starting companion-syncd",
		"config", configPath,
		"storage", cfg.Storage.Path,
		"remote", cfg.Remote.BaseURL,
	)

	engine, cleanup, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if len(os.Args) > 2 {
		userID := os.Args[2]
		rep := engine.StartSession(ctx, userID)
		if !rep.OK() {
			for _, d := range rep.Failed() {
				logger.Warn("initial pull incomplete", "domain", d, "error", rep.Err(d))
			}
		}
		defer engine.EndSession()
	}

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

func runOnce(ctx context.Context) error {
	if len(os.Args) < 3 {
		return fmt.Errorf("sync requires a user id")
	}
	userID := os.Args[2]

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	engine, cleanup, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	rep := engine.StartSession(ctx, userID)
	if !rep.OK() {
		for _, d := range rep.Failed() {
			logger.Warn("pull incomplete", "domain", d, "error", rep.Err(d))
		}
	}

	rep = engine.SyncNow(ctx)
	engine.EndSession()

	if rep != nil && !rep.OK() {
		return fmt.Errorf("push incomplete: %d domain(s) failed", len(rep.Failed()))
	}
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	buf.WriteString(r.Message)

	// Print handler-level attrs first (from WithAttrs)
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}
