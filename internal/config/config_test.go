package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Tests here use t.Setenv and so cannot run in parallel.

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("CALENDARSPENT_CONFIG", filepath.Join(dir, "missing.toml"))

	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, ".local", "share", "calendarspent", "calendarspent.db"), c.Database.Path)
	require.Equal(t, 2*time.Second, c.Sync.Debounce)
	require.Equal(t, "USD", c.UI.Currency)
	require.Equal(t, time.Sunday, c.UI.FirstWeekday())
	require.Equal(t, time.Local, c.UI.Location())
}

func TestSaveThenLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("CALENDARSPENT_CONFIG", filepath.Join(dir, "conf", "config.toml"))

	want := Config{
		Database: DatabaseConfig{Path: filepath.Join(dir, "x.db")},
		Sync:     SyncConfig{DSN: "postgres://localhost/cs", Debounce: 5 * time.Second, AutoSync: true},
		Calendar: CalendarConfig{FunctionsURL: "https://fn.example/functions/v1"},
		UI:       UIConfig{Timezone: "Europe/Berlin", Currency: "EUR", WeekStart: "monday"},
	}
	require.NoError(t, Save(want))

	got, err := Load()
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.Equal(t, time.Monday, got.UI.FirstWeekday())
	require.Equal(t, "Europe/Berlin", got.UI.Location().String())
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("CALENDARSPENT_CONFIG", filepath.Join(dir, "none.toml"))
	t.Setenv("CALENDARSPENT_SYNC_DSN", "postgres://env/cs")
	t.Setenv("CALENDARSPENT_UI_CURRENCY", "GBP")

	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, "postgres://env/cs", c.Sync.DSN)
	require.Equal(t, "GBP", c.UI.Currency)
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[ui\ncurrency = "), 0o600))
	t.Setenv("CALENDARSPENT_CONFIG", path)

	_, err := Load()
	require.Error(t, err)
}

func TestUISetters(t *testing.T) {
	var u UIConfig
	require.NoError(t, u.SetTimezone(" America/New_York "))
	require.Equal(t, "America/New_York", u.Location().String())
	require.Error(t, u.SetTimezone("Mars/Olympus"))
	require.Equal(t, "America/New_York", u.Timezone, "a bad zone keeps the old one")
	require.NoError(t, u.SetTimezone(""))
	require.Equal(t, time.Local, u.Location())

	require.NoError(t, u.SetWeekStart("Monday"))
	require.Equal(t, "monday", u.WeekStart)
	require.Equal(t, time.Monday, u.FirstWeekday())
	require.Error(t, u.SetWeekStart("friday"))
	require.Equal(t, "monday", u.WeekStart)
}
