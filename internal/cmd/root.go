package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/claudeflow/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "claudeflow",
	Short: "Activity and permission tracking for Claude Code sessions",
	Long: `claudeflow watches the output of a Claude Code session and turns it into
lifecycle events: task started, task completed, attention required and idle.

Attention events open permission requests that are tracked until the
assistant completes the task, the user approves or denies them, or they
time out.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/claudeflow/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("CLAUDEFLOW")
	// Replace dots with underscores for nested keys in env vars
	// e.g., CLAUDEFLOW_TRACKER_MAX_HISTORY_SIZE for tracker.max_history_size
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
