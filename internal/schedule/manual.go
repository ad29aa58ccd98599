package schedule

import (
	"sort"
	"sync"
	"time"
)

// Manual is a virtual-clock Scheduler. Time only moves when Advance is
// called, and due jobs run synchronously on the caller's goroutine.
type Manual struct {
	mu   sync.Mutex
	now  time.Time
	jobs []*manualJob
	seq  int
}

type manualJob struct {
	seq      int
	interval time.Duration
	next     time.Time
	fn       func()
	stopped  bool
}

// NewManual returns a Manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the virtual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Every registers fn to run each time the virtual clock crosses a multiple
// of interval after the current time.
func (m *Manual) Every(interval time.Duration, fn func()) Cancel {
	if interval <= 0 {
		panic("schedule: non-positive interval")
	}

	m.mu.Lock()
	m.seq++
	job := &manualJob{
		seq:      m.seq,
		interval: interval,
		next:     m.now.Add(interval),
		fn:       fn,
	}
	m.jobs = append(m.jobs, job)
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		job.stopped = true
		for i, j := range m.jobs {
			if j == job {
				m.jobs = append(m.jobs[:i], m.jobs[i+1:]...)
				break
			}
		}
	}
}

// Advance moves the clock forward by d, running every job that falls due in
// chronological order. Jobs due at the same instant run in registration
// order. The clock reads the job's due time while it runs.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		job := m.nextDueLocked(target)
		if job == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = job.next
		job.next = job.next.Add(job.interval)
		fn := job.fn
		m.mu.Unlock()

		fn()
	}
}

// Set jumps the clock to t without running any jobs. Useful to age state
// that was created before a job was registered.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// Jobs returns the number of registered, uncancelled jobs.
func (m *Manual) Jobs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

func (m *Manual) nextDueLocked(target time.Time) *manualJob {
	due := make([]*manualJob, 0, len(m.jobs))
	for _, j := range m.jobs {
		if !j.stopped && !j.next.After(target) {
			due = append(due, j)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(a, b int) bool {
		if !due[a].next.Equal(due[b].next) {
			return due[a].next.Before(due[b].next)
		}
		return due[a].seq < due[b].seq
	})
	return due[0]
}
