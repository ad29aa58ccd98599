package permission

import (
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Iron-Ham/claudeflow/internal/event"
	"github.com/Iron-Ham/claudeflow/internal/logging"
	"github.com/Iron-Ham/claudeflow/internal/schedule"
)

// Tracker maintains the registry of active requests and their history.
// All state changes happen under one mutex, so bus callbacks, sweep ticks and
// manual calls never interleave.
type Tracker struct {
	bus    *event.Bus
	sched  schedule.Scheduler
	logger *logging.Logger

	mu            sync.Mutex
	maxHistory    int
	sweepInterval time.Duration
	timeouts      map[RequestType]time.Duration
	active        map[string]*Request
	history       []*Request // oldest first
	nextSeq       uint64
	subscriptions []string
	cancelSweep   schedule.Cancel
}

// NewTracker creates a tracker. It does nothing until Start is called.
func NewTracker(bus *event.Bus, sched schedule.Scheduler, cfg Config, logger *logging.Logger) *Tracker {
	if sched == nil {
		sched = schedule.NewReal()
	}
	if logger == nil {
		logger = logging.NopLogger()
	}

	t := &Tracker{
		bus:           bus,
		sched:         sched,
		logger:        logger.WithComponent("permission"),
		maxHistory:    DefaultMaxHistorySize,
		sweepInterval: DefaultSweepInterval,
		timeouts:      DefaultTimeouts(),
		active:        make(map[string]*Request),
	}
	if cfg.MaxHistorySize > 0 {
		t.maxHistory = cfg.MaxHistorySize
	}
	if cfg.SweepInterval > 0 {
		t.sweepInterval = cfg.SweepInterval
	}
	t.mergeTimeouts(cfg.Timeouts)
	return t
}

func (t *Tracker) mergeTimeouts(overrides map[RequestType]time.Duration) {
	for typ, d := range overrides {
		if typ.Valid() && d > 0 {
			t.timeouts[typ] = d
		}
	}
}

// Start subscribes to the bus and schedules the timeout sweep. Calling Start
// on a started tracker is a no-op.
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancelSweep != nil {
		return
	}
	if t.bus != nil {
		t.subscriptions = []string{
			t.bus.Subscribe(event.AttentionRequired, t.handleAttention),
			t.bus.Subscribe(event.TaskCompleted, t.handleCompleted),
		}
	}
	t.cancelSweep = t.sched.Every(t.sweepInterval, t.sweep)
	t.logger.Debug("tracker started", "sweep_interval", t.sweepInterval.String())
}

// Close unsubscribes from the bus and stops the sweep. When Close returns no
// further sweep runs. It is safe to call multiple times.
func (t *Tracker) Close() {
	t.mu.Lock()
	subs := t.subscriptions
	cancel := t.cancelSweep
	t.subscriptions = nil
	t.cancelSweep = nil
	t.mu.Unlock()

	// The sweep takes t.mu, so cancel must run unlocked.
	if cancel != nil {
		cancel()
	}
	if t.bus != nil {
		for _, id := range subs {
			t.bus.Unsubscribe(id)
		}
	}
}

// handleAttention opens a new request for an attention event.
func (t *Tracker) handleAttention(e event.ActivityEvent) {
	typ, description := Classify(e.Source, e.Details)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextSeq++
	req := &Request{
		ID:          uuid.NewString(),
		Type:        typ,
		Source:      e.Source,
		Description: description,
		Details:     maps.Clone(e.Details),
		Time:        t.sched.Now(),
		Timeout:     t.timeouts[typ],
		seq:         t.nextSeq,
	}
	t.active[req.ID] = req
	t.history = append(t.history, req)
	t.trimHistory()

	t.logger.Info("permission request opened",
		"id", req.ID,
		"type", string(req.Type),
		"source", req.Source,
		"timeout", req.Timeout.String())
}

// handleCompleted approves every active request from the event's source.
func (t *Tracker) handleCompleted(e event.ActivityEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, req := range t.activeSorted() {
		if req.Source == e.Source {
			t.resolve(req, ResolutionApproved)
		}
	}
}

// sweep times out requests older than their timeout.
func (t *Tracker) sweep() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.sched.Now()
	for _, req := range t.activeSorted() {
		if now.Sub(req.Time) > req.Timeout {
			t.resolve(req, ResolutionTimeout)
		}
	}
}

// resolve moves req to a terminal state. Callers hold t.mu.
func (t *Tracker) resolve(req *Request, resolution Resolution) bool {
	if req.Resolved {
		return false
	}
	req.Resolved = true
	req.Resolution = resolution
	req.ResolvedAt = t.sched.Now()
	delete(t.active, req.ID)
	t.trimHistory()

	t.logger.Info("permission request resolved",
		"id", req.ID,
		"type", string(req.Type),
		"source", req.Source,
		"resolution", string(resolution),
		"elapsed", req.ResolvedAt.Sub(req.Time).String())
	return true
}

// trimHistory drops the oldest resolved entries until the history fits.
// Active entries are kept even if that leaves the history over capacity.
// Callers hold t.mu.
func (t *Tracker) trimHistory() {
	excess := len(t.history) - t.maxHistory
	if excess <= 0 {
		return
	}

	kept := t.history[:0]
	for _, req := range t.history {
		if excess > 0 && req.Resolved {
			excess--
			continue
		}
		kept = append(kept, req)
	}
	clear(t.history[len(kept):])
	t.history = kept
}

// activeSorted returns active requests oldest first. Callers hold t.mu.
func (t *Tracker) activeSorted() []*Request {
	out := make([]*Request, 0, len(t.active))
	for _, req := range t.active {
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].seq < out[j].seq
	})
	return out
}

// Approve resolves an active request as approved.
// Returns false if the id is unknown or already resolved.
func (t *Tracker) Approve(id string) bool {
	return t.resolveByID(id, ResolutionApproved)
}

// Deny resolves an active request as denied.
// Returns false if the id is unknown or already resolved.
func (t *Tracker) Deny(id string) bool {
	return t.resolveByID(id, ResolutionDenied)
}

func (t *Tracker) resolveByID(id string, resolution Resolution) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	req, ok := t.active[id]
	if !ok {
		return false
	}
	return t.resolve(req, resolution)
}

// ActiveRequests returns copies of the active requests, oldest first.
func (t *Tracker) ActiveRequests() []Request {
	t.mu.Lock()
	defer t.mu.Unlock()

	sorted := t.activeSorted()
	out := make([]Request, len(sorted))
	for i, req := range sorted {
		out[i] = req.clone()
	}
	return out
}

// OldestActiveRequest returns the longest-waiting active request.
func (t *Tracker) OldestActiveRequest() (Request, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var oldest *Request
	for _, req := range t.active {
		if oldest == nil || req.seq < oldest.seq {
			oldest = req
		}
	}
	if oldest == nil {
		return Request{}, false
	}
	return oldest.clone(), true
}

// IsWaitingForPermission reports whether any request is active.
func (t *Tracker) IsWaitingForPermission() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active) > 0
}

// History returns copies of history entries, newest first. A limit of zero
// or less returns the whole history.
func (t *Tracker) History(limit int) []Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.historyLocked(limit)
}

func (t *Tracker) historyLocked(limit int) []Request {
	n := len(t.history)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Request, 0, n)
	for i := len(t.history) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, t.history[i].clone())
	}
	return out
}

// RequestsByType returns history entries of the given type, oldest first.
func (t *Tracker) RequestsByType(typ RequestType) []Request {
	return t.filter(func(r *Request) bool { return r.Type == typ })
}

// RequestsBySource returns history entries from the given source, oldest first.
func (t *Tracker) RequestsBySource(source string) []Request {
	return t.filter(func(r *Request) bool { return r.Source == source })
}

func (t *Tracker) filter(keep func(*Request) bool) []Request {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []Request
	for _, req := range t.history {
		if keep(req) {
			out = append(out, req.clone())
		}
	}
	return out
}

// MaxHistorySize returns the current history bound.
func (t *Tracker) MaxHistorySize() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.maxHistory
}

// SetMaxHistorySize changes the history bound and trims immediately.
// Values below 1 are ignored.
func (t *Tracker) SetMaxHistorySize(n int) {
	if n < 1 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.maxHistory = n
	t.trimHistory()
}

// SetTimeouts overrides per-type timeouts for requests opened afterwards.
// Unknown types and non-positive durations are ignored.
func (t *Tracker) SetTimeouts(timeouts map[RequestType]time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mergeTimeouts(timeouts)
}

// Timeout returns the timeout applied to new requests of the given type.
func (t *Tracker) Timeout(typ RequestType) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timeouts[typ]
}

// Clear empties both the active registry and the history.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.active = make(map[string]*Request)
	t.history = nil
}
