package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/claudeflow/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify claudeflow configuration",
	Long: `View or modify claudeflow configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  claudeflow config set tracker.max_history_size 250
  claudeflow config set hooks.file_path .claude/hooks.log
  claudeflow config set logging.level debug

Valid keys:
  tracker.max_history_size                - Requests kept in history
  tracker.sweep_interval_seconds          - Timeout sweep interval
  tracker.timeouts.<type>_seconds         - Per-type timeout, where <type> is one of
                                            file_access, network_access, system_command,
                                            user_input, confirmation, unknown
  hooks.enabled                           - Read the hook log (true/false)
  hooks.file_path                         - Hook log location
  classifier.rules_file                   - YAML file with extra rules
  classifier.disable_defaults             - Drop the built-in rules (true/false)
  classifier.strip_ansi                   - Strip escape sequences (true/false)
  events.recent_capacity                  - Recent events kept in memory
  logging.level                           - debug, info, warn, error
  logging.dir                             - Log directory (empty logs to stderr)
  logging.max_size_mb                     - Rotate the log file at this size (0 disables)
  logging.max_backups                     - Rotated log files kept
  logging.compress                        - Gzip rotated log files (true/false)`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/claudeflow/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config file in your editor",
	Long: `Open the config file in your preferred editor.

Uses $EDITOR environment variable, or falls back to common editors (vim, nano, vi).
A running 'claudeflow watch' picks up saved tracker changes.`,
	RunE: runConfigEdit,
}

// Wrapper functions for exec to allow testing
var execLookPath = exec.LookPath
var execCommand = exec.Command

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configEditCmd)
}

// configKeys maps every settable key to its value type.
var configKeys = map[string]string{
	"tracker.max_history_size":                "int",
	"tracker.sweep_interval_seconds":          "int",
	"tracker.timeouts.file_access_seconds":    "int",
	"tracker.timeouts.network_access_seconds": "int",
	"tracker.timeouts.system_command_seconds": "int",
	"tracker.timeouts.user_input_seconds":     "int",
	"tracker.timeouts.confirmation_seconds":   "int",
	"tracker.timeouts.unknown_seconds":        "int",
	"hooks.enabled":                           "bool",
	"hooks.file_path":                         "string",
	"classifier.rules_file":                   "string",
	"classifier.disable_defaults":             "bool",
	"classifier.strip_ansi":                   "bool",
	"events.recent_capacity":                  "int",
	"logging.level":                           "string",
	"logging.dir":                             "string",
	"logging.max_size_mb":                     "int",
	"logging.max_backups":                     "int",
	"logging.compress":                        "bool",
}

// parseConfigValue converts a command-line value to the type of key.
func parseConfigValue(key, value string) (any, error) {
	keyType, ok := configKeys[key]
	if !ok {
		return nil, fmt.Errorf("unknown configuration key: %s\nRun 'claudeflow config set --help' to see valid keys", key)
	}

	switch keyType {
	case "bool":
		if value != "true" && value != "false" {
			return nil, fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		return value == "true", nil
	case "int":
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected integer", key)
		}
		if intVal < 0 {
			return nil, fmt.Errorf("invalid value for %s: must be non-negative", key)
		}
		return intVal, nil
	default:
		if key == "logging.level" {
			value = strings.ToLower(value)
		}
		return value, nil
	}
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintln(out)

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Config file: (none - using defaults)\n")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "tracker:")
	fmt.Fprintf(out, "  max_history_size: %d\n", cfg.Tracker.MaxHistorySize)
	fmt.Fprintf(out, "  sweep_interval_seconds: %d\n", cfg.Tracker.SweepIntervalSeconds)
	fmt.Fprintln(out, "  timeouts:")
	t := cfg.Tracker.Timeouts
	fmt.Fprintf(out, "    file_access_seconds: %d\n", t.FileAccessSeconds)
	fmt.Fprintf(out, "    network_access_seconds: %d\n", t.NetworkAccessSeconds)
	fmt.Fprintf(out, "    system_command_seconds: %d\n", t.SystemCommandSeconds)
	fmt.Fprintf(out, "    user_input_seconds: %d\n", t.UserInputSeconds)
	fmt.Fprintf(out, "    confirmation_seconds: %d\n", t.ConfirmationSeconds)
	fmt.Fprintf(out, "    unknown_seconds: %d\n", t.UnknownSeconds)

	fmt.Fprintln(out, "hooks:")
	fmt.Fprintf(out, "  enabled: %v\n", cfg.Hooks.Enabled)
	fmt.Fprintf(out, "  file_path: %q\n", cfg.Hooks.FilePath)

	fmt.Fprintln(out, "classifier:")
	fmt.Fprintf(out, "  rules_file: %q\n", cfg.Classifier.RulesFile)
	fmt.Fprintf(out, "  disable_defaults: %v\n", cfg.Classifier.DisableDefaults)
	fmt.Fprintf(out, "  strip_ansi: %v\n", cfg.Classifier.StripANSI)

	fmt.Fprintln(out, "sources:")
	fmt.Fprintf(out, "  include: [%s]\n", strings.Join(cfg.Sources.Include, ", "))

	fmt.Fprintln(out, "events:")
	fmt.Fprintf(out, "  recent_capacity: %d\n", cfg.Events.RecentCapacity)

	fmt.Fprintln(out, "logging:")
	fmt.Fprintf(out, "  level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(out, "  dir: %q\n", cfg.Logging.Dir)
	fmt.Fprintf(out, "  max_size_mb: %d\n", cfg.Logging.MaxSizeMB)
	fmt.Fprintf(out, "  max_backups: %d\n", cfg.Logging.MaxBackups)
	fmt.Fprintf(out, "  compress: %v\n", cfg.Logging.Compress)

	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	typedValue, err := parseConfigValue(key, args[1])
	if err != nil {
		return err
	}

	// Ensure config directory exists
	configDir := config.ConfigDir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	viper.Set(key, typedValue)
	if _, err := config.Load(); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	configFile := config.ConfigFile()
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", key, typedValue)
	fmt.Fprintf(cmd.OutOrStdout(), "Config saved to %s\n", configFile)

	return nil
}

const defaultConfigContent = `# claudeflow configuration
# See: https://github.com/Iron-Ham/claudeflow

# Permission request tracking
tracker:
  # Requests kept in history; active requests are never evicted
  max_history_size: 100
  # How often timed-out requests are resolved
  sweep_interval_seconds: 10
  # Per-type timeouts
  timeouts:
    file_access_seconds: 60
    network_access_seconds: 120
    system_command_seconds: 30
    user_input_seconds: 300
    confirmation_seconds: 180
    unknown_seconds: 120

# Hook log ingestion
hooks:
  enabled: false
  # Relative paths resolve against the working directory
  file_path: ""

# Output classification
classifier:
  # YAML file with extra rules (see 'claudeflow rules --format yaml')
  rules_file: ""
  disable_defaults: false
  strip_ansi: true

# Glob patterns of accepted source identifiers (empty accepts all)
sources:
  include: []

events:
  # Recent events kept in memory
  recent_capacity: 200

logging:
  # debug, info, warn, error
  level: info
  # Directory for claudeflow.log; empty logs to stderr
  dir: ""
  # Rotate claudeflow.log at this size (0 disables rotation)
  max_size_mb: 10
  max_backups: 3
  compress: false
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'claudeflow config set' to modify values", configFile)
	}

	// Create config directory
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configFile, []byte(defaultConfigContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", configFile)
	fmt.Fprintln(cmd.OutOrStdout(), "Edit this file to customize claudeflow's behavior.")

	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", config.ConfigFile())
	}

	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", config.ConfigFile())
	fmt.Fprintf(out, "  2. ./config.yaml (current directory)\n")
	fmt.Fprintln(out, "\nEnvironment variables: CLAUDEFLOW_* (e.g., CLAUDEFLOW_TRACKER_MAX_HISTORY_SIZE)")

	return nil
}

// findEditor picks $EDITOR, then $VISUAL, then the first common editor on PATH.
func findEditor() string {
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor
	}
	if editor := os.Getenv("VISUAL"); editor != "" {
		return editor
	}
	for _, e := range []string{"vim", "nano", "vi"} {
		if _, err := execLookPath(e); err == nil {
			return e
		}
	}
	return ""
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	configFile := config.ConfigFile()

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		fmt.Fprintln(cmd.OutOrStdout(), "Config file doesn't exist, creating with defaults...")
		if err := runConfigInit(cmd, args); err != nil {
			return err
		}
	}

	editor := findEditor()
	if editor == "" {
		return fmt.Errorf("no editor found. Set $EDITOR environment variable")
	}

	editorCmd := execCommand(editor, configFile)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor exited with error: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Config file saved: %s\n", configFile)
	return nil
}
