package event

import "time"

// Kind identifies the lifecycle signal carried by an ActivityEvent.
// Convention: "category.action".
type Kind string

const (
	// TaskStarted fires when the assistant begins working on something.
	TaskStarted Kind = "task.started"
	// TaskCompleted fires when the assistant reports finished work.
	TaskCompleted Kind = "task.completed"
	// AttentionRequired fires when the assistant is waiting on the user
	// (permission prompt, question, confirmation).
	AttentionRequired Kind = "attention.required"
	// Idle fires when the assistant is ready for the next instruction.
	Idle Kind = "assistant.idle"
)

// Kinds returns every known kind in declaration order.
func Kinds() []Kind {
	return []Kind{TaskStarted, TaskCompleted, AttentionRequired, Idle}
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case TaskStarted, TaskCompleted, AttentionRequired, Idle:
		return true
	default:
		return false
	}
}

// String returns the kind's wire name.
func (k Kind) String() string {
	return string(k)
}

// Well-known Details keys.
const (
	DetailPatternName = "pattern_name"
	DetailPattern     = "pattern"
	DetailMatchedText = "matched_text"
	DetailFullText    = "full_text"
	DetailDescription = "description"

	DetailRaw      = "raw"
	DetailHookType = "hook_type"
	DetailLine     = "line"
)

// ActivityEvent is one classified signal. Handlers receive it by value and
// must treat Details as read-only.
type ActivityEvent struct {
	Kind    Kind           `json:"kind"`
	Time    time.Time      `json:"timestamp"`
	Source  string         `json:"source"`
	Details map[string]any `json:"details,omitempty"`
}

// New creates an ActivityEvent.
func New(kind Kind, at time.Time, source string, details map[string]any) ActivityEvent {
	return ActivityEvent{
		Kind:    kind,
		Time:    at,
		Source:  source,
		Details: details,
	}
}

// Detail returns the string value stored under key, or "" when the key is
// absent or not a string.
func (e ActivityEvent) Detail(key string) string {
	if e.Details == nil {
		return ""
	}
	s, _ := e.Details[key].(string)
	return s
}
