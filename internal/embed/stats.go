package embed

import (
	"slices"
	"sync"
	"time"
)

type sample struct {
	at    time.Time
	took  time.Duration
	texts int
}

// StatsSnapshot aggregates embedding calls within the window.
type StatsSnapshot struct {
	Calls  int     `json:"calls"`
	Texts  int     `json:"texts"`
	MinMs  float64 `json:"min_ms"`
	MaxMs  float64 `json:"max_ms"`
	AvgMs  float64 `json:"avg_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P95Ms  float64 `json:"p95_ms"`
	P99Ms  float64 `json:"p99_ms"`
	PerSec float64 `json:"texts_per_sec"` // Texts divided by total call time
}

// LatencyStats keeps embedding call samples for a rolling window.
type LatencyStats struct {
	mu      sync.Mutex
	samples []sample
	window  time.Duration
	now     func() time.Time
}

func NewLatencyStats(window time.Duration) *LatencyStats {
	if window <= 0 {
		window = time.Hour
	}
	return &LatencyStats{
		samples: make([]sample, 0, 256),
		window:  window,
		now:     time.Now,
	}
}

// Record adds one call that embedded texts inputs.
func (s *LatencyStats) Record(took time.Duration, texts int) {
	if took < 0 {
		took = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)
	s.samples = append(s.samples, sample{at: now, took: took, texts: texts})
}

func (s *LatencyStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(s.now())
	if len(s.samples) == 0 {
		return StatsSnapshot{}
	}

	ms := make([]float64, len(s.samples))
	var total time.Duration
	texts := 0
	for i, sm := range s.samples {
		ms[i] = float64(sm.took) / float64(time.Millisecond)
		total += sm.took
		texts += sm.texts
	}
	slices.Sort(ms)

	snap := StatsSnapshot{
		Calls: len(ms),
		Texts: texts,
		MinMs: ms[0],
		MaxMs: ms[len(ms)-1],
		AvgMs: float64(total) / float64(time.Millisecond) / float64(len(ms)),
		P50Ms: percentile(ms, 50),
		P95Ms: percentile(ms, 95),
		P99Ms: percentile(ms, 99),
	}
	if total > 0 {
		snap.PerSec = float64(texts) / total.Seconds()
	}
	return snap
}

func (s *LatencyStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	s.samples = slices.DeleteFunc(s.samples, func(sm sample) bool {
		return sm.at.Before(cutoff)
	})
}

// percentile interpolates linearly between closest ranks.
func percentile(sorted []float64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if pct <= 0 {
		return sorted[0]
	}
	if pct >= 100 {
		return sorted[len(sorted)-1]
	}
	idx := float64(len(sorted)-1) * pct / 100
	lo := int(idx)
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	w := idx - float64(lo)
	return sorted[lo] + (sorted[lo+1]-sorted[lo])*w
}
