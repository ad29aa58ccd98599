package detect

import (
	"fmt"
	"strings"

	"github.com/Iron-Ham/claudeflow/internal/event"
)

// Rule maps a regular expression to the event kind it produces.
type Rule struct {
	// Name identifies the rule. Names are unique within a Classifier.
	Name string `yaml:"name"`
	// Pattern is a Go regular expression. Flags such as (?m) belong in the
	// pattern itself.
	Pattern string `yaml:"pattern"`
	// Kind is the event kind emitted when Pattern matches.
	Kind event.Kind `yaml:"kind"`
	// Description is copied into the emitted event's details.
	Description string `yaml:"description"`
	// CaseSensitive disables the default case-insensitive matching.
	CaseSensitive bool `yaml:"case_sensitive"`
}

// DefaultRules returns the built-in rule table in evaluation order.
// The returned slice is freshly allocated on every call.
func DefaultRules() []Rule {
	return []Rule{
		// Task started
		{
			Name:        "claude-thinking",
			Pattern:     `(?m)^(▶|Thinking|Starting|Begin|Initializing)`,
			Kind:        event.TaskStarted,
			Description: "Claude starts a new task",
		},
		{
			Name:        "tool-execution",
			Pattern:     `Using \w+ (tool|command)`,
			Kind:        event.TaskStarted,
			Description: "Claude executes a tool",
		},

		// Task completed
		{
			Name:        "task-success",
			Pattern:     `(?m)(✓|✨|Done|Completed|Finished|All set)`,
			Kind:        event.TaskCompleted,
			Description: "Claude completes a task successfully",
		},
		{
			Name:        "file-changed",
			Pattern:     `(Created|Updated|Modified|Deleted) \S+`,
			Kind:        event.TaskCompleted,
			Description: "Claude modifies files",
		},

		// Attention required
		{
			Name:        "permission-request",
			Pattern:     `\b(Permission|Confirm|Allow|Proceed)\b`,
			Kind:        event.AttentionRequired,
			Description: "Claude requests user permission",
		},
		{
			Name:          "question-prompt",
			Pattern:       `\?(\s*$|\s*\n)`,
			Kind:          event.AttentionRequired,
			Description:   "Claude asks a question",
			CaseSensitive: true,
		},
		{
			Name:        "y-n-confirmation",
			Pattern:     `\b(y/n|yes/no)\b`,
			Kind:        event.AttentionRequired,
			Description: "Claude requests y/n confirmation",
		},
		{
			Name:        "confirmation-prompt",
			Pattern:     `\b(continue\?|proceed\?|allow\?|confirm\?)\b`,
			Kind:        event.AttentionRequired,
			Description: "Claude requests confirmation",
		},
		{
			Name:        "user-input-needed",
			Pattern:     `(Waiting for|Need|Please provide) (input|response|answer)`,
			Kind:        event.AttentionRequired,
			Description: "Claude waits for user input",
		},
		{
			Name:        "sure-confirmation",
			Pattern:     `\b(are you sure|is this ok|do you want to)\b`,
			Kind:        event.AttentionRequired,
			Description: "Claude requests sure confirmation",
		},

		// Idle
		{
			Name:        "ready-prompt",
			Pattern:     `(I'm ready|How can I help|What would you like|Ready to assist)`,
			Kind:        event.Idle,
			Description: "Claude is ready for next instruction",
		},
		{
			Name:        "conversation-end",
			Pattern:     `(Anything else|Is there anything|Need anything else)`,
			Kind:        event.Idle,
			Description: "Claude finishes current task",
		},
	}
}

// kindAliases maps the names accepted in rule files to bus kinds.
var kindAliases = map[string]event.Kind{
	"task_started":          event.TaskStarted,
	"taskstarted":           event.TaskStarted,
	"task_completed":        event.TaskCompleted,
	"taskcompleted":         event.TaskCompleted,
	"attention_required":    event.AttentionRequired,
	"attentionrequired":     event.AttentionRequired,
	"userattentionrequired": event.AttentionRequired,
	"idle":                  event.Idle,
	"claudeidle":            event.Idle,
}

// ParseKind resolves a kind name from a rule file. It accepts the bus kind
// strings ("task.started") as well as snake_case aliases ("task_started").
func ParseKind(s string) (event.Kind, error) {
	k := event.Kind(strings.TrimSpace(s))
	if k.Valid() {
		return k, nil
	}
	if alias, ok := kindAliases[strings.ToLower(string(k))]; ok {
		return alias, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}
