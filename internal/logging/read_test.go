package logging

import (
	"bytes"
	"compress/gzip"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTestLog(t *testing.T, dir string) {
	t.Helper()
	logger, err := NewLogger(dir, LevelDebug)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	logger.WithComponent("bus").Debug("subscribed", "kind", "task.started")
	logger.WithComponent("tracker").WithSource("terminal:claude").Info("permission request opened", "type", "confirmation")
	logger.WithComponent("hooklog").Warn("skipping malformed hook record")
	logger.Error("failed to read input")
	if err := logger.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestReadEntries(t *testing.T) {
	dir := t.TempDir()
	writeTestLog(t, dir)
	// Garbage lines are skipped.
	f, err := os.OpenFile(filepath.Join(dir, LogFileName), os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = f.WriteString("not json\n\n")
	_ = f.Close()

	entries, err := ReadEntries(dir)
	if err != nil {
		t.Fatalf("ReadEntries() error = %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("len(entries) = %d, want 4", len(entries))
	}

	opened := entries[1]
	if opened.Message != "permission request opened" {
		t.Fatalf("entries[1].Message = %q", opened.Message)
	}
	if opened.Component != "tracker" || opened.Source != "terminal:claude" {
		t.Errorf("component/source = %q/%q", opened.Component, opened.Source)
	}
	if opened.Level != LevelInfo {
		t.Errorf("Level = %q", opened.Level)
	}
	if opened.Attrs["type"] != "confirmation" {
		t.Errorf("Attrs = %v", opened.Attrs)
	}
	if opened.Time.IsZero() {
		t.Error("Time should be parsed")
	}
}

func TestReadEntries_MissingFile(t *testing.T) {
	if _, err := ReadEntries(t.TempDir()); err == nil {
		t.Error("expected error for missing log file")
	}
}

func TestReadEntries_IncludesBackups(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, LogFileName)

	older := `{"time":"2024-01-01T00:00:00Z","level":"INFO","msg":"oldest"}` + "\n"
	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, _ = zw.Write([]byte(older))
	_ = zw.Close()
	if err := os.WriteFile(base+".2.gz", gz.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(base+".1", []byte(`{"time":"2024-01-01T00:01:00Z","level":"INFO","msg":"middle"}`+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(base, []byte(`{"time":"2024-01-01T00:02:00Z","level":"INFO","msg":"newest"}`+"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	entries, err := ReadEntries(dir)
	if err != nil {
		t.Fatalf("ReadEntries() error = %v", err)
	}
	var got []string
	for _, e := range entries {
		got = append(got, e.Message)
	}
	if strings.Join(got, ",") != "oldest,middle,newest" {
		t.Errorf("messages = %v", got)
	}
}

func TestFilterEntries(t *testing.T) {
	dir := t.TempDir()
	writeTestLog(t, dir)
	entries, err := ReadEntries(dir)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"empty filter", Filter{}, 4},
		{"warn and above", Filter{Level: "warn"}, 2},
		{"component", Filter{Component: "tracker"}, 1},
		{"source", Filter{Source: "terminal:claude"}, 1},
		{"contains", Filter{Contains: "hook"}, 1},
		{"since future", Filter{Since: time.Now().Add(time.Hour)}, 0},
		{"combined", Filter{Level: "info", Component: "bus"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FilterEntries(entries, tt.filter); len(got) != tt.want {
				t.Errorf("FilterEntries() = %d entries, want %d", len(got), tt.want)
			}
		})
	}
}

func TestWriteEntries(t *testing.T) {
	entries := []Entry{{
		Time:      time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		Level:     LevelWarn,
		Message:   "ignoring invalid configuration change",
		Component: "config",
		Attrs:     map[string]any{"error": "bad", "attempt": 2},
	}}

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteEntries(&buf, entries, "text"); err != nil {
			t.Fatal(err)
		}
		want := "2024-01-01 12:00:00.000 WARN  [config] ignoring invalid configuration change attempt=2 error=bad\n"
		if buf.String() != want {
			t.Errorf("text = %q, want %q", buf.String(), want)
		}
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteEntries(&buf, entries, "json"); err != nil {
			t.Fatal(err)
		}
		got, err := ParseEntry(strings.TrimSpace(buf.String()))
		if err != nil {
			t.Fatalf("output is not a parseable record: %v", err)
		}
		if got.Message != entries[0].Message || got.Component != "config" {
			t.Errorf("round trip = %+v", got)
		}
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteEntries(&buf, entries, "csv"); err != nil {
			t.Fatal(err)
		}
		records, err := csv.NewReader(&buf).ReadAll()
		if err != nil {
			t.Fatal(err)
		}
		if len(records) != 2 || records[1][1] != LevelWarn {
			t.Errorf("records = %v", records)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if err := WriteEntries(&bytes.Buffer{}, entries, "xml"); err == nil {
			t.Error("expected error")
		}
	})
}
