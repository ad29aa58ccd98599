// Package ingest is the integration point between text producers and the
// event bus. A Feeder classifies (text, sourceID) pairs and publishes the
// resulting events.
package ingest

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gobwas/glob"

	"github.com/Iron-Ham/claudeflow/internal/detect"
	"github.com/Iron-Ham/claudeflow/internal/event"
	"github.com/Iron-Ham/claudeflow/internal/logging"
)

// maxLineSize bounds a single scanned line.
const maxLineSize = 1024 * 1024

// Feeder classifies text chunks and publishes the resulting events.
type Feeder struct {
	classifier *detect.Classifier
	bus        *event.Bus
	logger     *logging.Logger

	include   []glob.Glob
	stripANSI bool
}

// Option configures a Feeder.
type Option func(*Feeder) error

// WithSourceFilter restricts the feeder to sources matching at least one of
// the glob patterns. With no patterns every source is accepted.
func WithSourceFilter(patterns ...string) Option {
	return func(f *Feeder) error {
		for _, p := range patterns {
			g, err := glob.Compile(p)
			if err != nil {
				return fmt.Errorf("invalid source pattern %q: %w", p, err)
			}
			f.include = append(f.include, g)
		}
		return nil
	}
}

// WithANSIStripping removes terminal escape sequences before classification.
func WithANSIStripping(enabled bool) Option {
	return func(f *Feeder) error {
		f.stripANSI = enabled
		return nil
	}
}

// WithLogger sets the feeder's logger.
func WithLogger(logger *logging.Logger) Option {
	return func(f *Feeder) error {
		if logger != nil {
			f.logger = logger
		}
		return nil
	}
}

// NewFeeder creates a Feeder publishing classifier output on bus.
func NewFeeder(classifier *detect.Classifier, bus *event.Bus, opts ...Option) (*Feeder, error) {
	f := &Feeder{
		classifier: classifier,
		bus:        bus,
		logger:     logging.NopLogger(),
	}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	f.logger = f.logger.WithComponent("ingest")
	return f, nil
}

// Accepts reports whether events from sourceID pass the source filter.
func (f *Feeder) Accepts(sourceID string) bool {
	if len(f.include) == 0 {
		return true
	}
	for _, g := range f.include {
		if g.Match(sourceID) {
			return true
		}
	}
	return false
}

// Feed classifies one chunk of text and publishes every resulting event.
// Returns the number of events published.
func (f *Feeder) Feed(text, sourceID string) int {
	if !f.Accepts(sourceID) {
		return 0
	}
	if f.stripANSI {
		text = detect.StripANSI(text)
	}

	events := f.classifier.Classify(text, sourceID)
	for _, e := range events {
		f.logger.Debug("publishing classified event",
			"kind", string(e.Kind),
			"source", sourceID,
			"rule", e.Detail(event.DetailPatternName))
		f.bus.Publish(e)
	}
	return len(events)
}

// Scan feeds r line by line until EOF, a read error, or ctx is done. Lines
// longer than maxLineSize are truncated with a warning and classified from
// what was kept. Returns the total number of events published.
func (f *Feeder) Scan(ctx context.Context, r io.Reader, sourceID string) (int, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		line, truncated, err := readLine(br, maxLineSize)
		if truncated {
			f.logger.Warn("truncated over-long input line",
				"source", sourceID,
				"limit", maxLineSize)
		}
		if err == nil || line != "" {
			total += f.Feed(line, sourceID)
		}
		if errors.Is(err, io.EOF) {
			return total, nil
		}
		if err != nil {
			return total, fmt.Errorf("failed to read %s: %w", sourceID, err)
		}
	}
}

// readLine reads up to and excluding the next newline, keeping at most limit
// bytes of the line. The rest of an over-long line is consumed and dropped.
// A trailing carriage return is removed.
func readLine(br *bufio.Reader, limit int) (string, bool, error) {
	var buf []byte
	truncated := false
	for {
		chunk, err := br.ReadSlice('\n')
		chunk = bytes.TrimSuffix(chunk, []byte{'\n'})
		if room := limit - len(buf); len(chunk) > room {
			buf = append(buf, chunk[:room]...)
			truncated = true
		} else {
			buf = append(buf, chunk...)
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return string(bytes.TrimSuffix(buf, []byte{'\r'})), truncated, err
	}
}
