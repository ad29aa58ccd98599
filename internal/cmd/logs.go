package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/claudeflow/internal/config"
	"github.com/Iron-Ham/claudeflow/internal/logging"
)

var (
	logsDir       string
	logsLevel     string
	logsComponent string
	logsSource    string
	logsGrep      string
	logsSince     time.Duration
	logsTail      int
	logsFormat    string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show claudeflow's own log records",
	Long: `Show records from claudeflow.log and its rotated backups, oldest first.

Logs are only written to a file when logging.dir is set.

Examples:
  claudeflow logs --level warn
  claudeflow logs --component tracker --since 10m
  claudeflow logs --format csv > claudeflow.csv`,
	RunE: runLogs,
}

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().StringVar(&logsDir, "dir", "", "Log directory (default: logging.dir)")
	logsCmd.Flags().StringVarP(&logsLevel, "level", "l", "", "Minimum level: debug, info, warn, error")
	logsCmd.Flags().StringVar(&logsComponent, "component", "", "Only records from this component (bus, tracker, hooklog, ...)")
	logsCmd.Flags().StringVar(&logsSource, "source", "", "Only records for this event source")
	logsCmd.Flags().StringVarP(&logsGrep, "grep", "g", "", "Only records whose message contains this text")
	logsCmd.Flags().DurationVar(&logsSince, "since", 0, "Only records newer than this (e.g. 5m, 1h)")
	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 0, "Show only the last N records")
	logsCmd.Flags().StringVarP(&logsFormat, "format", "f", "text", "Output format: text, json, csv")
}

func runLogs(cmd *cobra.Command, args []string) error {
	dir := logsDir
	if dir == "" {
		dir = config.Get().Logging.Dir
	}
	if dir == "" {
		return fmt.Errorf("no log directory: set logging.dir or pass --dir")
	}

	entries, err := logging.ReadEntries(dir)
	if err != nil {
		return err
	}

	filter := logging.Filter{
		Level:     logsLevel,
		Component: logsComponent,
		Source:    logsSource,
		Contains:  logsGrep,
	}
	if logsSince > 0 {
		filter.Since = time.Now().Add(-logsSince)
	}
	entries = logging.FilterEntries(entries, filter)

	if logsTail > 0 && len(entries) > logsTail {
		entries = entries[len(entries)-logsTail:]
	}
	return logging.WriteEntries(cmd.OutOrStdout(), entries, logsFormat)
}
