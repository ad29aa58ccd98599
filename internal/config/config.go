package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete claudeflow configuration
type Config struct {
	Tracker    TrackerConfig    `mapstructure:"tracker"`
	Hooks      HooksConfig      `mapstructure:"hooks"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Sources    SourcesConfig    `mapstructure:"sources"`
	Events     EventsConfig     `mapstructure:"events"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// TrackerConfig controls the permission-request tracker
type TrackerConfig struct {
	// MaxHistorySize bounds the number of requests kept in history (default: 100).
	// Changing it at runtime re-trims the history immediately.
	MaxHistorySize int `mapstructure:"max_history_size"`
	// SweepIntervalSeconds is how often timed-out requests are resolved (default: 10)
	SweepIntervalSeconds int `mapstructure:"sweep_interval_seconds"`
	// Timeouts are per request type, in seconds
	Timeouts TimeoutsConfig `mapstructure:"timeouts"`
}

// TimeoutsConfig holds the per-type request timeouts in seconds
type TimeoutsConfig struct {
	FileAccessSeconds    int `mapstructure:"file_access_seconds"`
	NetworkAccessSeconds int `mapstructure:"network_access_seconds"`
	SystemCommandSeconds int `mapstructure:"system_command_seconds"`
	UserInputSeconds     int `mapstructure:"user_input_seconds"`
	ConfirmationSeconds  int `mapstructure:"confirmation_seconds"`
	UnknownSeconds       int `mapstructure:"unknown_seconds"`
}

// HooksConfig controls the hook log reader
type HooksConfig struct {
	// Enabled turns on hook log ingestion
	Enabled bool `mapstructure:"enabled"`
	// FilePath is the hook log location. Relative paths resolve against the
	// working directory.
	FilePath string `mapstructure:"file_path"`
}

// ClassifierConfig controls the output pattern classifier
type ClassifierConfig struct {
	// RulesFile is an optional YAML file with extra rules
	RulesFile string `mapstructure:"rules_file"`
	// DisableDefaults drops the built-in rules, leaving only RulesFile
	DisableDefaults bool `mapstructure:"disable_defaults"`
	// StripANSI removes terminal escape sequences before classification (default: true)
	StripANSI bool `mapstructure:"strip_ansi"`
}

// SourcesConfig filters which text sources are classified
type SourcesConfig struct {
	// Include lists glob patterns of accepted source identifiers.
	// Empty means every source is accepted.
	Include []string `mapstructure:"include"`
}

// EventsConfig controls the in-memory event window
type EventsConfig struct {
	// RecentCapacity is how many recent events are kept (default: 200)
	RecentCapacity int `mapstructure:"recent_capacity"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Dir is where claudeflow.log is written. Empty logs to stderr.
	Dir string `mapstructure:"dir"`
	// MaxSizeMB rotates the log file at this size; 0 disables rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated files kept (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
	// Compress gzips rotated files (default: false)
	Compress bool `mapstructure:"compress"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Tracker: TrackerConfig{
			MaxHistorySize:       100,
			SweepIntervalSeconds: 10,
			Timeouts: TimeoutsConfig{
				FileAccessSeconds:    60,
				NetworkAccessSeconds: 120,
				SystemCommandSeconds: 30,
				UserInputSeconds:     300,
				ConfirmationSeconds:  180,
				UnknownSeconds:       120,
			},
		},
		Hooks: HooksConfig{
			Enabled:  false,
			FilePath: "",
		},
		Classifier: ClassifierConfig{
			RulesFile:       "",
			DisableDefaults: false,
			StripANSI:       true,
		},
		Sources: SourcesConfig{
			Include: []string{},
		},
		Events: EventsConfig{
			RecentCapacity: 200,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Dir:        "",
			MaxSizeMB:  10,
			MaxBackups: 3,
			Compress:   false,
		},
	}
}

// SweepInterval returns the sweep interval as a time.Duration
func (c *TrackerConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

// ByType returns the timeouts keyed by request type name
// ("file-access", "network-access", ...).
func (c *TimeoutsConfig) ByType() map[string]time.Duration {
	return map[string]time.Duration{
		"file-access":    time.Duration(c.FileAccessSeconds) * time.Second,
		"network-access": time.Duration(c.NetworkAccessSeconds) * time.Second,
		"system-command": time.Duration(c.SystemCommandSeconds) * time.Second,
		"user-input":     time.Duration(c.UserInputSeconds) * time.Second,
		"confirmation":   time.Duration(c.ConfirmationSeconds) * time.Second,
		"unknown":        time.Duration(c.UnknownSeconds) * time.Second,
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Tracker defaults
	viper.SetDefault("tracker.max_history_size", defaults.Tracker.MaxHistorySize)
	viper.SetDefault("tracker.sweep_interval_seconds", defaults.Tracker.SweepIntervalSeconds)
	viper.SetDefault("tracker.timeouts.file_access_seconds", defaults.Tracker.Timeouts.FileAccessSeconds)
	viper.SetDefault("tracker.timeouts.network_access_seconds", defaults.Tracker.Timeouts.NetworkAccessSeconds)
	viper.SetDefault("tracker.timeouts.system_command_seconds", defaults.Tracker.Timeouts.SystemCommandSeconds)
	viper.SetDefault("tracker.timeouts.user_input_seconds", defaults.Tracker.Timeouts.UserInputSeconds)
	viper.SetDefault("tracker.timeouts.confirmation_seconds", defaults.Tracker.Timeouts.ConfirmationSeconds)
	viper.SetDefault("tracker.timeouts.unknown_seconds", defaults.Tracker.Timeouts.UnknownSeconds)

	// Hooks defaults
	viper.SetDefault("hooks.enabled", defaults.Hooks.Enabled)
	viper.SetDefault("hooks.file_path", defaults.Hooks.FilePath)

	// Classifier defaults
	viper.SetDefault("classifier.rules_file", defaults.Classifier.RulesFile)
	viper.SetDefault("classifier.disable_defaults", defaults.Classifier.DisableDefaults)
	viper.SetDefault("classifier.strip_ansi", defaults.Classifier.StripANSI)

	// Sources defaults
	viper.SetDefault("sources.include", defaults.Sources.Include)

	// Events defaults
	viper.SetDefault("events.recent_capacity", defaults.Events.RecentCapacity)

	// Logging defaults
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate the configuration
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "claudeflow")
	}
	// Fall back to ~/.config/claudeflow
	home, err := os.UserHomeDir()
	if err != nil {
		return ".claudeflow"
	}
	return filepath.Join(home, ".config", "claudeflow")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
