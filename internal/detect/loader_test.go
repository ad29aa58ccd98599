package detect

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Iron-Ham/claudeflow/internal/event"
)

func writeRuleFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write rule file: %v", err)
	}
	return path
}

func TestLoadRules(t *testing.T) {
	path := writeRuleFile(t, `
rules:
  - name: build-failed
    pattern: 'BUILD FAILED'
    kind: attention_required
    description: Build needs a look
    case_sensitive: true
  - name: tests-passed
    pattern: 'ok\s+\S+'
    kind: task.completed
  - name: legacy
    pattern: 'waiting'
    kind: userAttentionRequired
`)

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules() error = %v", err)
	}
	if len(rules) != 3 {
		t.Fatalf("got %d rules, want 3", len(rules))
	}

	want := []Rule{
		{Name: "build-failed", Pattern: "BUILD FAILED", Kind: event.AttentionRequired, Description: "Build needs a look", CaseSensitive: true},
		{Name: "tests-passed", Pattern: `ok\s+\S+`, Kind: event.TaskCompleted},
		{Name: "legacy", Pattern: "waiting", Kind: event.AttentionRequired},
	}
	for i := range want {
		if rules[i] != want[i] {
			t.Errorf("rules[%d] = %+v, want %+v", i, rules[i], want[i])
		}
	}
}

func TestLoadRules_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "unknown kind",
			content: "rules:\n  - name: a\n    pattern: x\n    kind: exploded\n",
			wantErr: ErrUnknownKind,
		},
		{
			name:    "bad pattern",
			content: "rules:\n  - name: a\n    pattern: '('\n    kind: idle\n",
			wantErr: ErrInvalidPattern,
		},
		{
			name:    "duplicate",
			content: "rules:\n  - name: a\n    pattern: x\n    kind: idle\n  - name: a\n    pattern: y\n    kind: idle\n",
			wantErr: ErrDuplicateRule,
		},
		{
			name:    "missing name",
			content: "rules:\n  - pattern: x\n    kind: idle\n",
			wantErr: ErrEmptyRuleName,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRules(writeRuleFile(t, tt.content))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("LoadRules() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadRules_MissingFile(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadRules() error = %v, want os.ErrNotExist", err)
	}
}

func TestParseRules_Malformed(t *testing.T) {
	if _, err := ParseRules([]byte("rules: [unterminated")); err == nil {
		t.Error("expected an error for malformed YAML")
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    event.Kind
		wantErr bool
	}{
		{"task_started", event.TaskStarted, false},
		{"task.completed", event.TaskCompleted, false},
		{"Attention_Required", event.AttentionRequired, false},
		{"idle", event.Idle, false},
		{"claudeIdle", event.Idle, false},
		{"", "", true},
		{"sleeping", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKind(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
