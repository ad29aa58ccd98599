package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/claudeflow/internal/config"
	"github.com/Iron-Ham/claudeflow/internal/detect"
	"github.com/Iron-Ham/claudeflow/internal/logging"
	"github.com/Iron-Ham/claudeflow/internal/schedule"
)

var (
	watchSource string
	watchHooks  string
	watchFormat string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Classify session output from stdin and track permission requests",
	Long: `Watch reads Claude Code output line by line from stdin, classifies it into
activity events and prints every event as it is published.

Attention events open permission requests. When stdin closes (or on
Ctrl+C) a summary of the tracked requests is printed.

Examples:
  claude 2>&1 | claudeflow watch
  tmux pipe-pane -o 'claudeflow watch --source terminal:claude-1'
  claudeflow watch --hooks .claude/hooks.log < /dev/null`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchSource, "source", "s", "terminal:claude", "Source identifier attached to stdin events")
	watchCmd.Flags().StringVar(&watchHooks, "hooks", "", "Hook log to watch (enables hook ingestion)")
	watchCmd.Flags().StringVarP(&watchFormat, "format", "f", formatAuto, "Output format: auto, text, json")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	applyWatchFlags(cfg)

	format, err := resolveFormat(watchFormat, os.Stdout)
	if err != nil {
		return err
	}

	logger, err := logging.NewLoggerWithRotation(cfg.Logging.Dir, cfg.Logging.Level, logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	a, err := newApp(cfg, logger, schedule.NewReal())
	if err != nil {
		return err
	}

	checkSource(cmd.ErrOrStderr(), logger, watchSource)

	printer := newEventPrinter(cmd.OutOrStdout(), format)
	printerID := a.bus.SubscribeAll(printer.print)

	if err := a.start(); err != nil {
		return err
	}
	defer a.close()

	if viper.ConfigFileUsed() != "" {
		config.Watch(func(cfg *config.Config) {
			applyWatchFlags(cfg)
			a.applyConfig(cfg)
		}, func(err error) {
			logger.Warn("ignoring invalid configuration change", "error", err)
		})
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("watching", "source", watchSource, "hooks", cfg.Hooks.Enabled)
	scanErr := scanInput(ctx, a, cmd, watchSource)

	// An abandoned scanner may still publish; nothing reaches stdout after
	// this point except the summary.
	a.bus.Unsubscribe(printerID)
	printer.close()
	if scanErr != nil {
		return scanErr
	}

	return printSummary(cmd.OutOrStdout(), a.summary(), format)
}

// applyWatchFlags layers command-line overrides on a loaded config.
func applyWatchFlags(cfg *config.Config) {
	if watchHooks != "" {
		cfg.Hooks.Enabled = true
		cfg.Hooks.FilePath = watchHooks
	}
}

// checkSource warns when the stdin source name does not look like an
// assistant session. Events from it are still classified.
func checkSource(w io.Writer, logger *logging.Logger, source string) bool {
	if detect.IsAssistantSource(source) {
		return true
	}
	logger.Warn("source does not look like an assistant session", "source", source)
	fmt.Fprintf(w, "warning: source %q does not look like a Claude session; classification may be noisy\n", source)
	return false
}

// scanInput feeds stdin until EOF or cancellation. With hooks enabled,
// EOF on stdin keeps the watch alive until ctx is cancelled.
func scanInput(ctx context.Context, a *app, cmd *cobra.Command, source string) error {
	done := make(chan error, 1)
	go func() {
		_, err := a.feeder.Scan(ctx, cmd.InOrStdin(), source)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("failed to read input: %w", err)
		}
		if a.hookReader() != nil && ctx.Err() == nil {
			<-ctx.Done()
		}
	case <-ctx.Done():
		// The scanner may be blocked in Read; it is abandoned.
	}
	return nil
}
