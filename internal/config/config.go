// Package config provides configuration management for the timeline server.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/heimdex/heimdex-timeline/internal/logging"
)

const (
	// Default values
	DefaultPort               = 8788
	DefaultLogLevel           = "info"
	DefaultDataDir            = ".heimdex-timeline"
	DefaultHistoryLimit       = 100
	DefaultAutosaveIntervalMs = 2000
	DefaultSnapThresholdPx    = 10.0
	DefaultTrackHeightPx      = 64.0

	// Environment variable names
	EnvPort               = "TIMELINE_PORT"
	EnvLogLevel           = "TIMELINE_LOG_LEVEL"
	EnvDataDir            = "TIMELINE_DATA_DIR"
	EnvHistoryLimit       = "TIMELINE_HISTORY_LIMIT"
	EnvAutosaveIntervalMs = "TIMELINE_AUTOSAVE_INTERVAL_MS"
	EnvSnapThresholdPx    = "TIMELINE_SNAP_THRESHOLD_PX"
	EnvTrackHeightPx      = "TIMELINE_TRACK_HEIGHT_PX"
	EnvHeadless           = "TIMELINE_HEADLESS"

	// Database filename
	DBFilename = "timeline.db"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	HistoryLimit() int
	AutosaveInterval() time.Duration
	SnapThresholdPx() float64
	TrackHeightPx() float64
	Headless() bool
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port               int
	logLevel           string
	dataDir            string
	historyLimit       int
	autosaveIntervalMs int
	snapThresholdPx    float64
	trackHeightPx      float64
	headless           bool
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:               DefaultPort,
		logLevel:           DefaultLogLevel,
		dataDir:            defaultDataDir(),
		historyLimit:       DefaultHistoryLimit,
		autosaveIntervalMs: DefaultAutosaveIntervalMs,
		snapThresholdPx:    DefaultSnapThresholdPx,
		trackHeightPx:      DefaultTrackHeightPx,
	}

	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		if _, err := logging.ParseLevel(ll); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvLogLevel, err)
		}
		cfg.logLevel = strings.ToLower(ll)
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	var err error
	if cfg.historyLimit, err = positiveInt(EnvHistoryLimit, cfg.historyLimit); err != nil {
		return nil, err
	}
	if cfg.autosaveIntervalMs, err = positiveInt(EnvAutosaveIntervalMs, cfg.autosaveIntervalMs); err != nil {
		return nil, err
	}
	if cfg.snapThresholdPx, err = positiveFloat(EnvSnapThresholdPx, cfg.snapThresholdPx); err != nil {
		return nil, err
	}
	if cfg.trackHeightPx, err = positiveFloat(EnvTrackHeightPx, cfg.trackHeightPx); err != nil {
		return nil, err
	}

	if h := os.Getenv(EnvHeadless); h != "" {
		headless, err := strconv.ParseBool(h)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		cfg.headless = headless
	}

	return cfg, nil
}

func positiveInt(env string, def int) (int, error) {
	v := os.Getenv(env)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", env, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("invalid %s: must be positive", env)
	}
	return n, nil
}

func positiveFloat(env string, def float64) (float64, error) {
	v := os.Getenv(env)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", env, err)
	}
	if f <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", env)
	}
	return f, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// HistoryLimit is the number of undo entries kept per open project.
func (c *EnvConfig) HistoryLimit() int {
	return c.historyLimit
}

func (c *EnvConfig) AutosaveInterval() time.Duration {
	return time.Duration(c.autosaveIntervalMs) * time.Millisecond
}

func (c *EnvConfig) SnapThresholdPx() float64 {
	return c.snapThresholdPx
}

func (c *EnvConfig) TrackHeightPx() float64 {
	return c.trackHeightPx
}

// Headless disables the system tray.
func (c *EnvConfig) Headless() bool {
	return c.headless
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
