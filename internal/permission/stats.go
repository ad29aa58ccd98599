package permission

import "time"

// resolutionSampleCap bounds each sample in the average resolution time.
const resolutionSampleCap = 60 * time.Second

// Statistics summarizes the history.
type Statistics struct {
	Active   int `json:"active"`
	Total    int `json:"total"`
	Approved int `json:"approved"`
	Denied   int `json:"denied"`
	TimedOut int `json:"timed_out"`

	ByType map[RequestType]int `json:"by_type"`

	// AverageResolution is the mean time to resolution over resolved
	// entries, each sample capped at one minute.
	AverageResolution time.Duration `json:"average_resolution"`
	ResolvedSamples   int           `json:"resolved_samples"`
}

// Statistics computes counts over the history. Active + Approved + Denied +
// TimedOut always equals Total.
func (t *Tracker) Statistics() Statistics {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statisticsLocked()
}

func (t *Tracker) statisticsLocked() Statistics {
	stats := Statistics{
		Total:  len(t.history),
		ByType: make(map[RequestType]int),
	}

	var sum time.Duration
	for _, req := range t.history {
		stats.ByType[req.Type]++

		switch req.Resolution {
		case ResolutionApproved:
			stats.Approved++
		case ResolutionDenied:
			stats.Denied++
		case ResolutionTimeout:
			stats.TimedOut++
		default:
			stats.Active++
			continue
		}

		sample := req.ResolvedAt.Sub(req.Time)
		if sample > resolutionSampleCap {
			sample = resolutionSampleCap
		}
		if sample < 0 {
			sample = 0
		}
		sum += sample
		stats.ResolvedSamples++
	}

	if stats.ResolvedSamples > 0 {
		stats.AverageResolution = sum / time.Duration(stats.ResolvedSamples)
	}
	return stats
}

// Snapshot is a point-in-time export of the tracker state.
type Snapshot struct {
	Active     []Request  `json:"active"`
	History    []Request  `json:"history"`
	Statistics Statistics `json:"statistics"`
	TakenAt    time.Time  `json:"taken_at"`
}

// Snapshot returns a consistent copy of the tracker state. History is newest
// first, active requests oldest first.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	sorted := t.activeSorted()
	active := make([]Request, len(sorted))
	for i, req := range sorted {
		active[i] = req.clone()
	}

	return Snapshot{
		Active:     active,
		History:    t.historyLocked(0),
		Statistics: t.statisticsLocked(),
		TakenAt:    t.sched.Now(),
	}
}
