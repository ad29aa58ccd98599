package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "tracker.max_history_size")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Upper bounds for numeric and path settings.
const (
	maxHistorySizeLimit  = 10000
	maxSweepIntervalSecs = 3600
	maxTimeoutSeconds    = 24 * 60 * 60
	maxRecentCapacity    = 100000
	maxPathLength        = 4096
	maxLogSizeMB         = 1024
	maxLogBackups        = 100
)

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateTracker()...)
	errors = append(errors, c.validateHooks()...)
	errors = append(errors, c.validateClassifier()...)
	errors = append(errors, c.validateSources()...)
	errors = append(errors, c.validateEvents()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateTracker validates the TrackerConfig
func (c *Config) validateTracker() []ValidationError {
	var errors []ValidationError

	if c.Tracker.MaxHistorySize < 1 || c.Tracker.MaxHistorySize > maxHistorySizeLimit {
		errors = append(errors, ValidationError{
			Field:   "tracker.max_history_size",
			Value:   c.Tracker.MaxHistorySize,
			Message: fmt.Sprintf("must be between 1 and %d", maxHistorySizeLimit),
		})
	}

	if c.Tracker.SweepIntervalSeconds < 1 || c.Tracker.SweepIntervalSeconds > maxSweepIntervalSecs {
		errors = append(errors, ValidationError{
			Field:   "tracker.sweep_interval_seconds",
			Value:   c.Tracker.SweepIntervalSeconds,
			Message: fmt.Sprintf("must be between 1 and %d", maxSweepIntervalSecs),
		})
	}

	timeouts := []struct {
		field string
		value int
	}{
		{"tracker.timeouts.file_access_seconds", c.Tracker.Timeouts.FileAccessSeconds},
		{"tracker.timeouts.network_access_seconds", c.Tracker.Timeouts.NetworkAccessSeconds},
		{"tracker.timeouts.system_command_seconds", c.Tracker.Timeouts.SystemCommandSeconds},
		{"tracker.timeouts.user_input_seconds", c.Tracker.Timeouts.UserInputSeconds},
		{"tracker.timeouts.confirmation_seconds", c.Tracker.Timeouts.ConfirmationSeconds},
		{"tracker.timeouts.unknown_seconds", c.Tracker.Timeouts.UnknownSeconds},
	}
	for _, to := range timeouts {
		if to.value < 1 || to.value > maxTimeoutSeconds {
			errors = append(errors, ValidationError{
				Field:   to.field,
				Value:   to.value,
				Message: fmt.Sprintf("must be between 1 and %d", maxTimeoutSeconds),
			})
		}
	}

	return errors
}

// validateHooks validates the HooksConfig
func (c *Config) validateHooks() []ValidationError {
	var errors []ValidationError

	if c.Hooks.Enabled && strings.TrimSpace(c.Hooks.FilePath) == "" {
		errors = append(errors, ValidationError{
			Field:   "hooks.file_path",
			Value:   c.Hooks.FilePath,
			Message: "is required when hooks.enabled is true",
		})
	}
	errors = append(errors, validatePath("hooks.file_path", c.Hooks.FilePath)...)

	return errors
}

// validateClassifier validates the ClassifierConfig
func (c *Config) validateClassifier() []ValidationError {
	var errors []ValidationError

	if c.Classifier.DisableDefaults && strings.TrimSpace(c.Classifier.RulesFile) == "" {
		errors = append(errors, ValidationError{
			Field:   "classifier.disable_defaults",
			Value:   c.Classifier.DisableDefaults,
			Message: "requires classifier.rules_file, otherwise no rules are active",
		})
	}
	errors = append(errors, validatePath("classifier.rules_file", c.Classifier.RulesFile)...)

	return errors
}

// validateSources validates the SourcesConfig
func (c *Config) validateSources() []ValidationError {
	var errors []ValidationError

	for i, pattern := range c.Sources.Include {
		field := fmt.Sprintf("sources.include[%d]", i)
		if strings.TrimSpace(pattern) == "" {
			errors = append(errors, ValidationError{
				Field:   field,
				Value:   pattern,
				Message: "pattern cannot be empty",
			})
			continue
		}
		if _, err := glob.Compile(pattern); err != nil {
			errors = append(errors, ValidationError{
				Field:   field,
				Value:   pattern,
				Message: fmt.Sprintf("invalid glob pattern: %v", err),
			})
		}
	}

	return errors
}

// validateEvents validates the EventsConfig
func (c *Config) validateEvents() []ValidationError {
	var errors []ValidationError

	if c.Events.RecentCapacity < 1 || c.Events.RecentCapacity > maxRecentCapacity {
		errors = append(errors, ValidationError{
			Field:   "events.recent_capacity",
			Value:   c.Events.RecentCapacity,
			Message: fmt.Sprintf("must be between 1 and %d", maxRecentCapacity),
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	// Validate log level
	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}
	errors = append(errors, validatePath("logging.dir", c.Logging.Dir)...)

	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("must be between 0 and %d", maxLogSizeMB),
		})
	}
	if c.Logging.MaxBackups < 0 || c.Logging.MaxBackups > maxLogBackups {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: fmt.Sprintf("must be between 0 and %d", maxLogBackups),
		})
	}

	return errors
}

// validatePath rejects paths no filesystem will accept. Empty paths pass.
func validatePath(field, path string) []ValidationError {
	var errors []ValidationError

	// Check for null bytes which are invalid in paths
	if strings.ContainsRune(path, '\x00') {
		errors = append(errors, ValidationError{
			Field:   field,
			Value:   path,
			Message: "path contains invalid null character",
		})
	}

	if len(path) > maxPathLength {
		errors = append(errors, ValidationError{
			Field:   field,
			Value:   path,
			Message: fmt.Sprintf("path exceeds maximum length of %d characters", maxPathLength),
		})
	}

	return errors
}
