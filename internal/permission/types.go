package permission

import (
	"maps"
	"time"
)

// RequestType classifies what the assistant is asking for.
type RequestType string

const (
	TypeFileAccess    RequestType = "file-access"
	TypeNetworkAccess RequestType = "network-access"
	TypeSystemCommand RequestType = "system-command"
	TypeUserInput     RequestType = "user-input"
	TypeConfirmation  RequestType = "confirmation"
	TypeUnknown       RequestType = "unknown"
)

// RequestTypes returns every request type.
func RequestTypes() []RequestType {
	return []RequestType{
		TypeFileAccess,
		TypeNetworkAccess,
		TypeSystemCommand,
		TypeUserInput,
		TypeConfirmation,
		TypeUnknown,
	}
}

// Valid reports whether t is a known request type.
func (t RequestType) Valid() bool {
	for _, known := range RequestTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// Resolution is the terminal state of a request. The zero value means the
// request is still active.
type Resolution string

const (
	ResolutionNone     Resolution = ""
	ResolutionApproved Resolution = "approved"
	ResolutionDenied   Resolution = "denied"
	ResolutionTimeout  Resolution = "timeout"
)

// DefaultTimeouts returns the per-type timeouts applied when no override is
// configured.
func DefaultTimeouts() map[RequestType]time.Duration {
	return map[RequestType]time.Duration{
		TypeFileAccess:    60 * time.Second,
		TypeNetworkAccess: 120 * time.Second,
		TypeSystemCommand: 30 * time.Second,
		TypeUserInput:     300 * time.Second,
		TypeConfirmation:  180 * time.Second,
		TypeUnknown:       120 * time.Second,
	}
}

// Request is a single attention episode.
type Request struct {
	ID          string         `json:"id"`
	Type        RequestType    `json:"type"`
	Source      string         `json:"source"`
	Description string         `json:"description"`
	Details     map[string]any `json:"details,omitempty"`
	Time        time.Time      `json:"timestamp"`
	Resolved    bool           `json:"resolved"`
	Resolution  Resolution     `json:"resolution,omitempty"`
	ResolvedAt  time.Time      `json:"resolved_at,omitzero"`
	Timeout     time.Duration  `json:"timeout"`

	seq uint64
}

// Active reports whether the request is still awaiting resolution.
func (r Request) Active() bool {
	return !r.Resolved
}

// clone returns a copy safe to hand to callers.
func (r *Request) clone() Request {
	c := *r
	if r.Details != nil {
		c.Details = maps.Clone(r.Details)
	}
	return c
}

// Config holds tracker tunables.
type Config struct {
	// MaxHistorySize bounds the history. Values below 1 use DefaultMaxHistorySize.
	MaxHistorySize int
	// SweepInterval is how often timeouts are checked. Values below or equal
	// to zero use DefaultSweepInterval.
	SweepInterval time.Duration
	// Timeouts overrides DefaultTimeouts per type. Missing or non-positive
	// entries keep the default.
	Timeouts map[RequestType]time.Duration
}

const (
	DefaultMaxHistorySize = 100
	DefaultSweepInterval  = 10 * time.Second
)

// DefaultConfig returns the default tracker configuration.
func DefaultConfig() Config {
	return Config{
		MaxHistorySize: DefaultMaxHistorySize,
		SweepInterval:  DefaultSweepInterval,
		Timeouts:       DefaultTimeouts(),
	}
}
