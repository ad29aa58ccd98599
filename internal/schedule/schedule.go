// Package schedule abstracts the wall clock and repeating timers so that
// time-driven components can run against a virtual clock in tests.
package schedule

import (
	"sync"
	"time"
)

// Cancel stops a repeating job. It is safe to call more than once. Once it
// returns, the job's function is not running and will not run again.
// Cancel must not be called from inside the job's own function.
type Cancel func()

// Scheduler provides the current time and repeating jobs.
type Scheduler interface {
	// Now returns the scheduler's current time.
	Now() time.Time

	// Every runs fn once per interval until the returned Cancel is called.
	// Invocations of a single job never overlap.
	Every(interval time.Duration, fn func()) Cancel
}

// Real is a Scheduler backed by time.Now and time.Ticker.
type Real struct{}

// NewReal returns the wall-clock scheduler.
func NewReal() Real {
	return Real{}
}

// Now returns time.Now().
func (Real) Now() time.Time {
	return time.Now()
}

// Every starts a goroutine that calls fn on every tick. Each job owns one
// goroutine, so a slow fn delays the next tick instead of running
// concurrently with itself.
func (Real) Every(interval time.Duration, fn func()) Cancel {
	done := make(chan struct{})
	exited := make(chan struct{})

	go func() {
		defer close(exited)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				// A tick and a cancel can be ready together; cancel wins.
				select {
				case <-done:
					return
				default:
				}
				fn()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
		<-exited
	}
}
