package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	DatabasePath        string `yaml:"database_path"`
	LogLevel            string `yaml:"log_level"`  // debug, info, warn, error
	LogFormat           string `yaml:"log_format"` // text, json
	RecurringCron       string `yaml:"recurring_cron"`        // cron spec for the recurring-job pass
	GeofencePollSeconds int    `yaml:"geofence_poll_seconds"` // location re-evaluation interval for the daemon
}

// Defaults applied when neither environment nor config file set a value.
const (
	DefaultLogLevel            = "info"
	DefaultLogFormat           = "text"
	DefaultRecurringCron       = "@every 15m"
	DefaultGeofencePollSeconds = 60
)

// GetConfigDir returns the OS-specific config directory for fieldclock
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", eris.Wrap(err, "failed to get user home directory")
		}
		baseDir = filepath.Join(home, "Library", "Application Support")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", eris.New("APPDATA environment variable not set")
		}
		baseDir = appData
	default: // linux and others
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = xdgConfigHome
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", eris.Wrap(err, "failed to get user home directory")
			}
			baseDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(baseDir, "fieldclock"), nil
}

// Load resolves the configuration with the hierarchy
// environment > config file > defaults.
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:            DefaultLogLevel,
		LogFormat:           DefaultLogFormat,
		RecurringCron:       DefaultRecurringCron,
		GeofencePollSeconds: DefaultGeofencePollSeconds,
	}

	if file, err := loadConfigFile(); err == nil {
		if file.DatabasePath != "" {
			cfg.DatabasePath = file.DatabasePath
		}
		if file.LogLevel != "" {
			cfg.LogLevel = file.LogLevel
		}
		if file.LogFormat != "" {
			cfg.LogFormat = file.LogFormat
		}
		if file.RecurringCron != "" {
			cfg.RecurringCron = file.RecurringCron
		}
		if file.GeofencePollSeconds > 0 {
			cfg.GeofencePollSeconds = file.GeofencePollSeconds
		}
	}

	if env := os.Getenv("FIELDCLOCK_DB"); env != "" {
		cfg.DatabasePath = env
	}
	if env := os.Getenv("FIELDCLOCK_LOG_LEVEL"); env != "" {
		cfg.LogLevel = env
	}
	if env := os.Getenv("FIELDCLOCK_LOG_FORMAT"); env != "" {
		cfg.LogFormat = env
	}
	if env := os.Getenv("FIELDCLOCK_RECURRING_CRON"); env != "" {
		cfg.RecurringCron = env
	}
	if env := os.Getenv("FIELDCLOCK_GEOFENCE_POLL_SECONDS"); env != "" {
		if n, err := strconv.Atoi(env); err == nil && n > 0 {
			cfg.GeofencePollSeconds = n
		}
	}

	if cfg.DatabasePath == "" {
		dbPath, err := defaultDatabasePath()
		if err != nil {
			return nil, err
		}
		cfg.DatabasePath = dbPath
	}

	expanded, err := expandHome(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	cfg.DatabasePath = expanded

	return cfg, nil
}

func loadConfigFile() (*Config, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(configDir, "config.yaml"))
	if err != nil {
		return nil, eris.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, eris.Wrap(err, "failed to parse config file")
	}

	return &cfg, nil
}

func defaultDatabasePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", eris.Wrap(err, "failed to get user home directory")
	}
	return filepath.Join(home, ".fieldclock", "fieldclock.db"), nil
}

// expandHome expands a leading ~ to the user home directory
func expandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	if path != "~" && path[1] != '/' && path[1] != filepath.Separator {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", eris.Wrap(err, "failed to get user home directory")
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}
