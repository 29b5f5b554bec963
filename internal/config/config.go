// Package config loads the owl TOML configuration. Every field has a default,
// so a missing file is not an error; unknown keys are ignored.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/Guilhem-Bonnet/episode-owl/internal/domain"
)

const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
)

type Config struct {
	DataDir  string         `toml:"data_dir"`
	Storage  StorageConfig  `toml:"storage"`
	Tracking TrackingConfig `toml:"tracking"`
	TVMaze   TVMazeConfig   `toml:"tvmaze"`
	Logging  LoggingConfig  `toml:"logging"`
	Server   ServerConfig   `toml:"server"`
}

type StorageConfig struct {
	Backend    string `toml:"backend"`
	SQLitePath string `toml:"sqlite_path"`
}

type TrackingConfig struct {
	MaxNotifications        int    `toml:"max_notifications"`
	ArchiveWatchedAfterDays int    `toml:"archive_watched_after_days"`
	DateFormat              string `toml:"date_format"`
	IncludeSpecials         string `toml:"include_specials"`
	ExportPath              string `toml:"export_path"`
}

type TVMazeConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	RetryAttempts  int    `toml:"retry_attempts"`
	RequestDelayMS int    `toml:"request_delay_ms"`
}

type LoggingConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"` // auto, console, json
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

type ServerConfig struct {
	Addr                 string `toml:"addr"`
	CheckIntervalMinutes int    `toml:"check_interval_minutes"`
}

func Default() Config {
	settings := domain.DefaultSettings()
	return Config{
		DataDir: envOr("OWL_DATA_DIR", "~/.local/share/owl"),
		Storage: StorageConfig{
			Backend:    envOr("OWL_STORAGE", BackendSQLite),
			SQLitePath: os.Getenv("OWL_DB_PATH"),
		},
		Tracking: TrackingConfig{
			MaxNotifications:        settings.MaxNotifications,
			ArchiveWatchedAfterDays: settings.ArchiveWatchedAfterDays,
			DateFormat:              settings.DateFormat,
			IncludeSpecials:         string(settings.IncludeSpecials),
		},
		TVMaze: TVMazeConfig{
			BaseURL:        envOr("OWL_TVMAZE_URL", "https://api.tvmaze.com"),
			TimeoutSeconds: 10,
			RetryAttempts:  1,
			RequestDelayMS: 500,
		},
		Logging: LoggingConfig{
			Level:      envOr("OWL_LOG_LEVEL", "info"),
			Format:     "auto",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Server: ServerConfig{
			Addr:                 envOr("OWL_ADDR", "127.0.0.1:8080"),
			CheckIntervalMinutes: envIntOr("OWL_CHECK_INTERVAL_MINUTES", 0),
		},
	}
}

// DefaultConfigPath is where Load looks first when no path is given.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/owl/config.toml")
}

// Load decodes the TOML file at path over Default(). With an empty path it
// tries DefaultConfigPath() then ./owl.toml. It returns the resolved path and
// whether the file existed.
func Load(path string) (Config, string, bool, error) {
	cfg := Default()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return Config{}, "", false, err
	}
	if exists {
		f, err := os.Open(resolved)
		if err != nil {
			return Config{}, "", false, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := toml.NewDecoder(f).Decode(&cfg); err != nil {
			return Config{}, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return Config{}, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, "", false, err
	}
	return cfg, resolved, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if strings.TrimSpace(path) != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("owl.toml")
	if err != nil {
		return "", false, err
	}
	for _, p := range []string{defaultPath, projectPath} {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true, nil
		}
	}
	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	var err error
	if c.DataDir, err = expandPath(c.DataDir); err != nil {
		return err
	}
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if strings.TrimSpace(c.Storage.SQLitePath) == "" {
		c.Storage.SQLitePath = filepath.Join(c.DataDir, "owl.db")
	} else if c.Storage.SQLitePath != ":memory:" {
		if c.Storage.SQLitePath, err = expandPath(c.Storage.SQLitePath); err != nil {
			return err
		}
	}
	if strings.TrimSpace(c.Tracking.ExportPath) == "" {
		c.Tracking.ExportPath = filepath.Join(c.DataDir, "notifications.txt")
	} else if c.Tracking.ExportPath, err = expandPath(c.Tracking.ExportPath); err != nil {
		return err
	}
	if c.Logging.File != "" {
		if c.Logging.File, err = expandPath(c.Logging.File); err != nil {
			return err
		}
	}
	c.Tracking.DateFormat = StrftimeToLayout(strings.TrimSpace(c.Tracking.DateFormat))
	if c.Tracking.DateFormat == "" {
		c.Tracking.DateFormat = domain.DateLayout
	}
	c.Tracking.IncludeSpecials = strings.ToLower(strings.TrimSpace(c.Tracking.IncludeSpecials))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.TVMaze.BaseURL = strings.TrimRight(strings.TrimSpace(c.TVMaze.BaseURL), "/")
	return nil
}

func (c Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite, BackendJSON:
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q", BackendSQLite, BackendJSON, c.Storage.Backend)
	}
	if c.Tracking.MaxNotifications < 0 {
		return errors.New("tracking.max_notifications must be >= 0")
	}
	if !domain.SpecialsPolicy(c.Tracking.IncludeSpecials).Valid() {
		return fmt.Errorf("tracking.include_specials must be smart, all or none, got %q", c.Tracking.IncludeSpecials)
	}
	if c.TVMaze.BaseURL == "" {
		return errors.New("tvmaze.base_url is required")
	}
	if c.TVMaze.TimeoutSeconds <= 0 {
		return errors.New("tvmaze.timeout_seconds must be > 0")
	}
	if c.TVMaze.RetryAttempts < 0 {
		return errors.New("tvmaze.retry_attempts must be >= 0")
	}
	if c.TVMaze.RequestDelayMS < 0 {
		return errors.New("tvmaze.request_delay_ms must be >= 0")
	}
	switch c.Logging.Format {
	case "", "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format must be auto, console or json, got %q", c.Logging.Format)
	}
	if c.Server.CheckIntervalMinutes < 0 {
		return errors.New("server.check_interval_minutes must be >= 0")
	}
	return nil
}

// Settings returns the tracking settings handed to the session.
func (c Config) Settings() domain.Settings {
	return domain.Settings{
		MaxNotifications:        c.Tracking.MaxNotifications,
		ArchiveWatchedAfterDays: c.Tracking.ArchiveWatchedAfterDays,
		DateFormat:              c.Tracking.DateFormat,
		IncludeSpecials:         domain.SpecialsPolicy(c.Tracking.IncludeSpecials),
	}
}

func (c Config) LockPath() string {
	return filepath.Join(c.DataDir, "owl.lock")
}

func (c Config) TVMazeTimeout() time.Duration {
	return time.Duration(c.TVMaze.TimeoutSeconds) * time.Second
}

func (c Config) TVMazeRequestDelay() time.Duration {
	return time.Duration(c.TVMaze.RequestDelayMS) * time.Millisecond
}

func (c Config) CheckInterval() time.Duration {
	return time.Duration(c.Server.CheckIntervalMinutes) * time.Minute
}

// StrftimeToLayout converts the common strftime directives (%Y %m %d %H %M
// %S %b %B %a %A %y) to a Go time layout. Strings without '%' are returned
// unchanged, so Go layouts work too.
func StrftimeToLayout(format string) string {
	if !strings.Contains(format, "%") {
		return format
	}
	r := strings.NewReplacer(
		"%Y", "2006", "%y", "06", "%m", "01", "%d", "02",
		"%H", "15", "%M", "04", "%S", "05",
		"%b", "Jan", "%B", "January", "%a", "Mon", "%A", "Monday",
		"%%", "%",
	)
	return r.Replace(format)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	abs, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return abs, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
