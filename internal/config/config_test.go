package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"absolute", "/var/lib/fieldclock.db", "/var/lib/fieldclock.db"},
		{"bare tilde", "~", home},
		{"tilde slash", "~/data/fieldclock.db", filepath.Join(home, "data", "fieldclock.db")},
		{"tilde user untouched", "~bob/data.db", "~bob/data.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandHome(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir()) // no config file in the way
	for _, key := range []string{"FIELDCLOCK_DB", "FIELDCLOCK_LOG_LEVEL", "FIELDCLOCK_LOG_FORMAT", "FIELDCLOCK_RECURRING_CRON", "FIELDCLOCK_GEOFENCE_POLL_SECONDS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultLogFormat, cfg.LogFormat)
	assert.Equal(t, DefaultRecurringCron, cfg.RecurringCron)
	assert.Equal(t, DefaultGeofencePollSeconds, cfg.GeofencePollSeconds)
	assert.NotEmpty(t, cfg.DatabasePath)
}

func TestLoadEnvironmentWins(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("FIELDCLOCK_DB", "/tmp/fieldclock-test.db")
	t.Setenv("FIELDCLOCK_LOG_LEVEL", "debug")
	t.Setenv("FIELDCLOCK_RECURRING_CRON", "@hourly")
	t.Setenv("FIELDCLOCK_GEOFENCE_POLL_SECONDS", "15")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/fieldclock-test.db", cfg.DatabasePath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "@hourly", cfg.RecurringCron)
	assert.Equal(t, 15, cfg.GeofencePollSeconds)
}

func TestLoadIgnoresBadPollInterval(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("FIELDCLOCK_GEOFENCE_POLL_SECONDS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultGeofencePollSeconds, cfg.GeofencePollSeconds)
}
