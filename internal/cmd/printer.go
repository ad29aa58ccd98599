package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"

	"github.com/Iron-Ham/claudeflow/internal/event"
	"github.com/Iron-Ham/claudeflow/internal/permission"
)

// Output formats
const (
	formatAuto = "auto"
	formatText = "text"
	formatJSON = "json"
)

// resolveFormat turns "auto" into text for terminals and JSON otherwise.
func resolveFormat(format string, out *os.File) (string, error) {
	switch format {
	case formatText, formatJSON:
		return format, nil
	case formatAuto, "":
		if out != nil && term.IsTerminal(int(out.Fd())) {
			return formatText, nil
		}
		return formatJSON, nil
	default:
		return "", fmt.Errorf("invalid format %q: must be one of auto, text, json", format)
	}
}

// eventPrinter writes bus events to an output stream.
type eventPrinter struct {
	mu     sync.Mutex
	w      io.Writer
	format string
	closed bool
}

func newEventPrinter(w io.Writer, format string) *eventPrinter {
	return &eventPrinter{w: w, format: format}
}

func (p *eventPrinter) print(e event.ActivityEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	if p.format == formatJSON {
		_ = json.NewEncoder(p.w).Encode(e)
		return
	}

	label := e.Detail(event.DetailPatternName)
	if label == "" {
		label = e.Detail(event.DetailHookType)
	}
	text := e.Detail(event.DetailMatchedText)
	if text == "" {
		text = e.Detail(event.DetailRaw)
	}
	fmt.Fprintf(p.w, "%s  %s  %s  %s  %q\n",
		timeStyle.Render(e.Time.Format("15:04:05")),
		kindStyle(e.Kind).Render(string(e.Kind)),
		sourceStyle.Render(ansi.Truncate(e.Source, 24, "…")),
		labelStyle.Render(ansi.Truncate(label, 20, "…")),
		ansi.Truncate(text, maxTextWidth, "..."))
}

// close waits for an in-flight print and drops every later event.
func (p *eventPrinter) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

// maxTextWidth bounds the matched-text column in text output.
const maxTextWidth = 60

// watchSummary is the report written when watch exits.
type watchSummary struct {
	permission.Snapshot
	RecentEvents []event.ActivityEvent `json:"recent_events"`
}

// printSummary writes the tracker state and recent events. JSON output is a
// single object; text output lists statistics and still-active requests.
func printSummary(w io.Writer, summary watchSummary, format string) error {
	if format == formatJSON {
		return json.NewEncoder(w).Encode(summary)
	}

	printStatistics(w, summary.Statistics)

	if len(summary.Active) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headingStyle.Render("STILL ACTIVE"))
		fmt.Fprintln(w, strings.Repeat("─", 50))
		for _, req := range summary.Active {
			fmt.Fprintf(w, "%s  %-16s %s  %q\n",
				req.Time.Format("15:04:05"),
				req.Type,
				ansi.Truncate(req.Source, 24, "…"),
				ansi.Truncate(req.Description, maxTextWidth, "..."))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Recent events: %d\n", len(summary.RecentEvents))
	return nil
}

func printStatistics(w io.Writer, stats permission.Statistics) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, headingStyle.Render("PERMISSION REQUESTS"))
	fmt.Fprintln(w, strings.Repeat("─", 50))
	fmt.Fprintf(w, "Total:     %d\n", stats.Total)
	fmt.Fprintf(w, "Active:    %d\n", stats.Active)
	fmt.Fprintf(w, "Approved:  %d\n", stats.Approved)
	fmt.Fprintf(w, "Denied:    %d\n", stats.Denied)
	fmt.Fprintf(w, "Timed out: %d\n", stats.TimedOut)
	if stats.ResolvedSamples > 0 {
		fmt.Fprintf(w, "Average resolution: %s (%d samples)\n",
			stats.AverageResolution.Round(100*time.Millisecond), stats.ResolvedSamples)
	}

	if len(stats.ByType) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headingStyle.Render("BY TYPE"))
		fmt.Fprintln(w, strings.Repeat("─", 50))
		types := make([]string, 0, len(stats.ByType))
		for typ := range stats.ByType {
			types = append(types, string(typ))
		}
		sort.Strings(types)
		for _, typ := range types {
			fmt.Fprintf(w, "%-16s %d\n", typ, stats.ByType[permission.RequestType(typ)])
		}
	}
}
