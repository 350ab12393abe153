package board

import (
	"slices"
	"sync"
	"time"
)

type sample struct {
	at       time.Time
	duration time.Duration
	failed   bool
}

// OpSnapshot aggregates the recent calls of one operation.
type OpSnapshot struct {
	Count  int     `json:"count"`
	Errors int     `json:"errors"`
	MinMs  int64   `json:"min_ms"`
	MaxMs  int64   `json:"max_ms"`
	AvgMs  float64 `json:"avg_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P95Ms  float64 `json:"p95_ms"`
}

// CallStats keeps board API call latencies per operation within a rolling
// window. It is shared by all clients of the process.
type CallStats struct {
	mu      sync.Mutex
	samples map[string][]sample
	maxAge  time.Duration
}

func NewCallStats(maxAge time.Duration) *CallStats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &CallStats{samples: make(map[string][]sample), maxAge: maxAge}
}

// Record adds one finished call.
func (s *CallStats) Record(op string, d time.Duration, err error) {
	if d < 0 {
		d = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples[op] = append(prune(s.samples[op], now.Add(-s.maxAge)), sample{at: now, duration: d, failed: err != nil})
}

// Snapshot aggregates the samples still inside the window, keyed by
// operation.
func (s *CallStats) Snapshot() map[string]OpSnapshot {
	cutoff := time.Now().Add(-s.maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]OpSnapshot, len(s.samples))
	for op, list := range s.samples {
		list = prune(list, cutoff)
		if len(list) == 0 {
			delete(s.samples, op)
			continue
		}
		s.samples[op] = list
		out[op] = aggregate(list)
	}
	return out
}

func prune(list []sample, cutoff time.Time) []sample {
	keep := list[:0]
	for _, sm := range list {
		if !sm.at.Before(cutoff) {
			keep = append(keep, sm)
		}
	}
	return keep
}

func aggregate(list []sample) OpSnapshot {
	ms := make([]int64, 0, len(list))
	var sum int64
	snap := OpSnapshot{Count: len(list)}
	for _, sm := range list {
		v := sm.duration.Milliseconds()
		ms = append(ms, v)
		sum += v
		if sm.failed {
			snap.Errors++
		}
	}
	slices.Sort(ms)
	snap.MinMs = ms[0]
	snap.MaxMs = ms[len(ms)-1]
	snap.AvgMs = float64(sum) / float64(len(ms))
	snap.P50Ms = percentile(ms, 50)
	snap.P95Ms = percentile(ms, 95)
	return snap
}

// percentile interpolates linearly between the closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	index := float64(len(sorted)-1) * pct / 100
	lower := int(index)
	if lower >= len(sorted)-1 {
		return float64(sorted[len(sorted)-1])
	}
	lo, hi := float64(sorted[lower]), float64(sorted[lower+1])
	return lo + (hi-lo)*(index-float64(lower))
}
