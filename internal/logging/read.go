package logging

import (
	"bufio"
	"compress/gzip"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Entry is one decoded log record.
type Entry struct {
	Time      time.Time      `json:"time"`
	Level     string         `json:"level"`
	Message   string         `json:"msg"`
	Component string         `json:"component,omitempty"`
	Source    string         `json:"source,omitempty"`
	Attrs     map[string]any `json:"attrs,omitempty"`
}

// Filter selects entries. Zero fields match everything; set fields are
// combined with AND.
type Filter struct {
	// Level is the minimum level (DEBUG < INFO < WARN < ERROR).
	Level     string
	Since     time.Time
	Component string
	Source    string
	// Contains is a substring of the message.
	Contains string
}

var levelRank = map[string]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// ReadEntries loads claudeflow.log and its rotated backups from dir,
// oldest first. Lines that are not JSON records are skipped.
func ReadEntries(dir string) ([]Entry, error) {
	base := filepath.Join(dir, LogFileName)
	if _, err := os.Stat(base); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no log file in %s: %w", dir, err)
		}
		return nil, fmt.Errorf("failed to stat log file: %w", err)
	}

	backups, _ := filepath.Glob(base + ".*")
	files := append(backups, base)

	var entries []Entry
	for _, path := range files {
		got, err := readFile(path)
		if err != nil {
			return nil, err
		}
		entries = append(entries, got...)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Time.Before(entries[j].Time)
	})
	return entries, nil
}

func readFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to open compressed log %s: %w", path, err)
		}
		defer func() { _ = zr.Close() }()
		r = zr
	}

	const maxLine = 1024 * 1024
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

	var entries []Entry
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entry, err := ParseEntry(line)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return entries, nil
}

// ParseEntry decodes a single JSON record written by Logger.
func ParseEntry(line string) (Entry, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{}, fmt.Errorf("invalid JSON: %w", err)
	}

	var entry Entry
	if s, ok := raw["time"].(string); ok {
		entry.Time, _ = time.Parse(time.RFC3339Nano, s)
	}
	entry.Level, _ = raw["level"].(string)
	entry.Message, _ = raw["msg"].(string)
	entry.Component, _ = raw["component"].(string)
	entry.Source, _ = raw["source"].(string)

	for _, k := range []string{"time", "level", "msg", "component", "source"} {
		delete(raw, k)
	}
	if len(raw) > 0 {
		entry.Attrs = raw
	}
	return entry, nil
}

// Match reports whether e passes every criterion in f.
func (f Filter) Match(e Entry) bool {
	if f.Level != "" {
		want, okWant := levelRank[strings.ToUpper(f.Level)]
		got, okGot := levelRank[e.Level]
		if okWant && okGot && got < want {
			return false
		}
	}
	if !f.Since.IsZero() && e.Time.Before(f.Since) {
		return false
	}
	if f.Component != "" && e.Component != f.Component {
		return false
	}
	if f.Source != "" && e.Source != f.Source {
		return false
	}
	if f.Contains != "" && !strings.Contains(e.Message, f.Contains) {
		return false
	}
	return true
}

// FilterEntries returns the entries matching f, preserving order.
func FilterEntries(entries []Entry, f Filter) []Entry {
	var out []Entry
	for _, e := range entries {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

// WriteEntries renders entries as "text", "json" (one record per line) or
// "csv".
func WriteEntries(w io.Writer, entries []Entry, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		for _, e := range entries {
			if err := enc.Encode(e); err != nil {
				return fmt.Errorf("failed to encode entry: %w", err)
			}
		}
		return nil
	case "csv":
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"time", "level", "component", "source", "message", "attrs"})
		for _, e := range entries {
			_ = cw.Write([]string{
				e.Time.Format(time.RFC3339Nano), e.Level, e.Component, e.Source, e.Message, formatAttrs(e.Attrs),
			})
		}
		cw.Flush()
		return cw.Error()
	case "text", "":
		for _, e := range entries {
			line := fmt.Sprintf("%s %-5s", e.Time.Format("2006-01-02 15:04:05.000"), e.Level)
			if e.Component != "" {
				line += " [" + e.Component + "]"
			}
			line += " " + e.Message
			if attrs := formatAttrs(e.Attrs); attrs != "" {
				line += " " + attrs
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported format %q: use text, json or csv", format)
	}
}

// formatAttrs renders attributes as sorted key=value pairs.
func formatAttrs(attrs map[string]any) string {
	if len(attrs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, attrs[k]))
	}
	return strings.Join(parts, " ")
}
