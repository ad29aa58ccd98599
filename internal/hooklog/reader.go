// Package hooklog tails an append-only hook log written by the assistant's
// hook scripts and republishes its records as activity events.
//
// Each line of the log is a JSON object:
//
//	{"type": "task_completed", "message": "done"}
//
// Only the most recent non-empty line is considered on every change
// notification. Lines appended between two notifications are skipped.
package hooklog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Iron-Ham/claudeflow/internal/event"
	"github.com/Iron-Ham/claudeflow/internal/logging"
)

// DefaultDebounce coalesces bursts of filesystem notifications for one write.
const DefaultDebounce = 50 * time.Millisecond

// SourcePrefix prefixes the absolute log path in produced event sources.
const SourcePrefix = "hook:"

var (
	// ErrMalformedRecord is returned for lines that are not a JSON hook record.
	ErrMalformedRecord = errors.New("malformed hook record")
	// ErrUnknownType is returned for records whose type has no event mapping.
	ErrUnknownType = errors.New("unknown hook record type")
)

// recordKinds maps hook record types to event kinds.
var recordKinds = map[string]event.Kind{
	"task_started":       event.TaskStarted,
	"task_completed":     event.TaskCompleted,
	"attention_required": event.AttentionRequired,
}

// Handler receives events decoded from the hook log.
type Handler func(event.ActivityEvent)

// Reader watches a hook log file and emits an event for its latest record
// after every change.
type Reader struct {
	path     string
	logger   *logging.Logger
	now      func() time.Time
	debounce time.Duration

	mu       sync.Mutex
	handlers []Handler
	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	done     chan struct{}
}

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sets the reader's logger.
func WithLogger(logger *logging.Logger) Option {
	return func(r *Reader) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock sets the time source used to stamp events.
func WithClock(now func() time.Time) Option {
	return func(r *Reader) {
		if now != nil {
			r.now = now
		}
	}
}

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(r *Reader) {
		if d > 0 {
			r.debounce = d
		}
	}
}

// New creates a Reader for path. A relative path is resolved against baseDir,
// or against the working directory when baseDir is empty.
func New(path, baseDir string, opts ...Option) *Reader {
	r := &Reader{
		path:     resolvePath(path, baseDir),
		logger:   logging.NopLogger(),
		now:      time.Now,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithComponent("hooklog").With("path", r.path)
	return r
}

func resolvePath(path, baseDir string) string {
	if path == "" {
		return ""
	}
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return filepath.Clean(path)
}

// Path returns the resolved absolute path of the hook log.
func (r *Reader) Path() string {
	return r.path
}

// Source returns the event source used for records from this log.
func (r *Reader) Source() string {
	return SourcePrefix + r.path
}

// OnEvent registers a handler. Handlers run on the reader's watch goroutine.
func (r *Reader) OnEvent(handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append(r.handlers, handler)
}

// Running reports whether the reader is currently watching its file.
func (r *Reader) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.watcher != nil
}

// Start begins watching the log. A missing file is not an error: the reader
// logs it and stays stopped, so Start can be retried later. Calling Start on
// a running reader is a no-op.
func (r *Reader) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.watcher != nil || r.path == "" {
		return nil
	}

	if _, err := os.Stat(r.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			r.logger.Info("hook log does not exist, not watching")
			return nil
		}
		return fmt.Errorf("failed to stat hook log: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	// Watch the directory so the log can be truncated or recreated.
	if err := watcher.Add(filepath.Dir(r.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch hook log directory: %w", err)
	}

	r.watcher = watcher
	r.stopCh = make(chan struct{})
	r.done = make(chan struct{})
	go r.watchLoop(watcher, r.stopCh, r.done)

	r.logger.Info("watching hook log")
	return nil
}

// Stop stops watching and waits for the watch goroutine to exit. No handler
// runs after Stop returns. It is safe to call multiple times, but must not be
// called from a handler.
func (r *Reader) Stop() {
	r.mu.Lock()
	watcher, stopCh, done := r.watcher, r.stopCh, r.done
	r.watcher, r.stopCh, r.done = nil, nil, nil
	r.mu.Unlock()

	if watcher == nil {
		return
	}
	close(stopCh)
	_ = watcher.Close()
	<-done
	r.logger.Info("stopped watching hook log")
}

// watchLoop processes filesystem events until stopCh closes.
func (r *Reader) watchLoop(watcher *fsnotify.Watcher, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	r.readLatest(stopCh)

	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C
	defer debounceTimer.Stop()

	for {
		select {
		case <-stopCh:
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != r.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			debounceTimer.Reset(r.debounce)
		case <-debounceTimer.C:
			r.readLatest(stopCh)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			r.logger.Warn("watcher error", "error", err.Error())
		}
	}
}

// readLatest decodes the last non-empty line and dispatches it.
func (r *Reader) readLatest(stopCh <-chan struct{}) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		r.logger.Warn("failed to read hook log", "error", err.Error())
		return
	}

	line := lastNonEmptyLine(string(data))
	if line == "" {
		return
	}

	rec, err := parseLine(line)
	if err != nil {
		if errors.Is(err, ErrUnknownType) {
			r.logger.Debug("ignoring hook record", "error", err.Error())
		} else {
			r.logger.Warn("ignoring hook record", "line", line, "error", err.Error())
		}
		return
	}

	// Stop may have been requested while the file was being read.
	select {
	case <-stopCh:
		return
	default:
	}

	e := event.New(rec.kind, r.now(), r.Source(), map[string]any{
		event.DetailRaw:      rec.message,
		event.DetailHookType: rec.recordType,
		event.DetailLine:     line,
	})

	r.mu.Lock()
	handlers := make([]Handler, len(r.handlers))
	copy(handlers, r.handlers)
	r.mu.Unlock()

	for _, h := range handlers {
		h(e)
	}
}

// lastNonEmptyLine returns the last line of data that is not blank, trimmed.
func lastNonEmptyLine(data string) string {
	lines := strings.Split(data, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

type record struct {
	Type    string          `json:"type"`
	Message json.RawMessage `json:"message"`
}

type parsedRecord struct {
	recordType string
	kind       event.Kind
	message    string
}

// parseLine decodes a hook record and maps its type to an event kind.
func parseLine(line string) (parsedRecord, error) {
	var rec record
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return parsedRecord{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	kind, ok := recordKinds[rec.Type]
	if !ok {
		return parsedRecord{}, fmt.Errorf("%w: %q", ErrUnknownType, rec.Type)
	}

	return parsedRecord{
		recordType: rec.Type,
		kind:       kind,
		message:    messageText(rec.Message),
	}, nil
}

// messageText renders a record message: strings verbatim, null or missing as
// "", anything else as its JSON text.
func messageText(msg json.RawMessage) string {
	if len(msg) == 0 || string(msg) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return s
	}
	return string(msg)
}
