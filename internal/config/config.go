package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Calendar CalendarConfig `mapstructure:"calendar"`
	UI       UIConfig       `mapstructure:"ui"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// SyncConfig holds the remote backend settings. An empty DSN disables sync.
type SyncConfig struct {
	DSN      string        `mapstructure:"dsn"`
	Debounce time.Duration `mapstructure:"debounce"`
	AutoSync bool          `mapstructure:"auto_sync"`
}

// CalendarConfig holds the calendar functions endpoint.
type CalendarConfig struct {
	FunctionsURL string `mapstructure:"functions_url"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	Timezone  string `mapstructure:"timezone"`
	Currency  string `mapstructure:"currency"`
	WeekStart string `mapstructure:"week_start"`
}

// Location resolves the configured timezone, falling back to local time.
func (u UIConfig) Location() *time.Location {
	if u.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// FirstWeekday parses WeekStart; anything but "monday" means Sunday.
func (u UIConfig) FirstWeekday() time.Weekday {
	if strings.EqualFold(u.WeekStart, "monday") {
		return time.Monday
	}
	return time.Sunday
}

// SetTimezone stores an IANA zone name; an empty name means local time.
func (u *UIConfig) SetTimezone(name string) error {
	name = strings.TrimSpace(name)
	if name != "" {
		if _, err := time.LoadLocation(name); err != nil {
			return fmt.Errorf("timezone %q: %w", name, err)
		}
	}
	u.Timezone = name
	return nil
}

// SetWeekStart accepts sunday or monday in any case.
func (u *UIConfig) SetWeekStart(day string) error {
	day = strings.ToLower(strings.TrimSpace(day))
	if day != "sunday" && day != "monday" {
		return fmt.Errorf("week start %q: want sunday or monday", day)
	}
	u.WeekStart = day
	return nil
}

func home() string { return os.Getenv("HOME") }

// Path returns the config file location.
func Path() string {
	if p := os.Getenv("CALENDARSPENT_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(home(), ".config", "calendarspent", "config.toml")
}

// Load reads configuration from file and env. Env var overrides use prefix CALENDARSPENT_.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("database.path", filepath.Join(home(), ".local", "share", "calendarspent", "calendarspent.db"))
	v.SetDefault("sync.dsn", "")
	v.SetDefault("sync.debounce", 2*time.Second)
	v.SetDefault("sync.auto_sync", false)
	v.SetDefault("calendar.functions_url", "")
	v.SetDefault("ui.timezone", "")
	v.SetDefault("ui.currency", "USD")
	v.SetDefault("ui.week_start", "sunday")

	v.SetConfigType("toml")
	v.SetConfigFile(Path())

	v.SetEnvPrefix("CALENDARSPENT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// a missing file means defaults; a broken one is an error
	if _, err := os.Stat(Path()); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes cfg to Path, creating the config directory if needed. The sync
// DSN may carry a password; prefer the CALENDARSPENT_SYNC_DSN env var.
func Save(cfg Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("sync.dsn", cfg.Sync.DSN)
	v.Set("sync.debounce", cfg.Sync.Debounce.String())
	v.Set("sync.auto_sync", cfg.Sync.AutoSync)
	v.Set("calendar.functions_url", cfg.Calendar.FunctionsURL)
	v.Set("ui.timezone", cfg.UI.Timezone)
	v.Set("ui.currency", cfg.UI.Currency)
	v.Set("ui.week_start", cfg.UI.WeekStart)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
