package detect

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/Iron-Ham/claudeflow/internal/event"
	"github.com/Iron-Ham/claudeflow/internal/logging"
)

// Sentinel errors for rule management.
var (
	ErrInvalidPattern = errors.New("invalid rule pattern")
	ErrDuplicateRule  = errors.New("duplicate rule name")
	ErrUnknownKind    = errors.New("unknown event kind")
	ErrEmptyRuleName  = errors.New("rule name is required")
)

type compiledRule struct {
	rule Rule
	re   *regexp.Regexp
}

// Classifier evaluates an ordered rule table against text chunks.
// It is safe for concurrent use.
type Classifier struct {
	mu     sync.RWMutex
	rules  []compiledRule
	logger *logging.Logger
	now    func() time.Time
}

// NewClassifier builds a classifier from rules. Rules that fail validation
// (bad pattern, unknown kind, duplicate or empty name) are logged and skipped.
func NewClassifier(rules []Rule, logger *logging.Logger) *Classifier {
	if logger == nil {
		logger = logging.NopLogger()
	}
	c := &Classifier{
		logger: logger.WithComponent("classifier"),
		now:    time.Now,
	}
	for _, r := range rules {
		if err := c.AddRule(r); err != nil {
			c.logger.Warn("skipping rule", "rule", r.Name, "error", err.Error())
		}
	}
	return c
}

// SetClock overrides the time source used to stamp events.
func (c *Classifier) SetClock(now func() time.Time) {
	if now == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func compileRule(r Rule) (compiledRule, error) {
	if strings.TrimSpace(r.Name) == "" {
		return compiledRule{}, ErrEmptyRuleName
	}
	if !r.Kind.Valid() {
		return compiledRule{}, fmt.Errorf("rule %q: %w: %q", r.Name, ErrUnknownKind, r.Kind)
	}
	expr := r.Pattern
	if !r.CaseSensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return compiledRule{}, fmt.Errorf("rule %q: %w: %v", r.Name, ErrInvalidPattern, err)
	}
	return compiledRule{rule: r, re: re}, nil
}

// AddRule appends a rule to the end of the table.
func (c *Classifier) AddRule(r Rule) error {
	cr, err := compileRule(r)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.rules {
		if existing.rule.Name == r.Name {
			return fmt.Errorf("%w: %s", ErrDuplicateRule, r.Name)
		}
	}
	c.rules = append(c.rules, cr)
	return nil
}

// RemoveRule deletes the rule with the given name.
// Returns false if no such rule exists.
func (c *Classifier) RemoveRule(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, cr := range c.rules {
		if cr.rule.Name == name {
			c.rules = append(c.rules[:i:i], c.rules[i+1:]...)
			return true
		}
	}
	return false
}

// Rules returns a copy of the rule table in evaluation order.
func (c *Classifier) Rules() []Rule {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Rule, len(c.rules))
	for i, cr := range c.rules {
		out[i] = cr.rule
	}
	return out
}

// Classify evaluates every rule against text and returns one event per
// matching rule, in rule order. Empty text yields nil.
func (c *Classifier) Classify(text, sourceID string) []event.ActivityEvent {
	if text == "" {
		return nil
	}

	c.mu.RLock()
	rules := c.rules
	now := c.now
	c.mu.RUnlock()

	var events []event.ActivityEvent
	var at time.Time
	trimmed := strings.TrimSpace(text)
	for _, cr := range rules {
		loc := cr.re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		if events == nil {
			at = now()
		}
		events = append(events, event.New(cr.rule.Kind, at, sourceID, map[string]any{
			event.DetailPatternName: cr.rule.Name,
			event.DetailPattern:     cr.rule.Pattern,
			event.DetailMatchedText: text[loc[0]:loc[1]],
			event.DetailFullText:    trimmed,
			event.DetailDescription: cr.rule.Description,
		}))
	}
	return events
}
