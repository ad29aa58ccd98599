// Package logging provides structured logging for claudeflow.
//
// The [Logger] type wraps log/slog with a JSON handler. Child loggers created
// with [Logger.WithComponent], [Logger.WithSource] and [Logger.With] carry
// persistent attributes and share the parent's output.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger(dir, "info")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	busLog := logger.WithComponent("bus")
//	busLog.Error("event handler panicked", "kind", "task.started")
//
// Output:
//
//	{"time":"...","level":"ERROR","msg":"event handler panicked","component":"bus","kind":"task.started"}
//
// [NewLoggerWithRotation] rotates claudeflow.log by size, optionally gzipping
// backups. [ReadEntries] reads the log and its backups back for the logs
// command.
//
// Tests use [NopLogger] or [NewWriterLogger] over a bytes.Buffer to assert
// on emitted records.
package logging
