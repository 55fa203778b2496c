package stresstest

import (
	"sort"
)

// Stats holds latency and outcome statistics for harness requests.
// A Stats value is owned by one worker; workers are merged after drain.
type Stats struct {
	CompletedRequests int
	TransportErrors   int // timeouts, connection failures
	StatusErrors      int // non-2xx responses
	SuccessCount      int
	Durations         []int64 // For percentile calculation
	TotalDurationMs   int64
	MinDurationMs     int64
	MaxDurationMs     int64
}

// NewStats creates a new Stats instance
func NewStats() *Stats {
	return &Stats{
		Durations:     make([]int64, 0, 64),
		MinDurationMs: -1,
		MaxDurationMs: -1,
	}
}

// AddResult adds a request result to the statistics
func (s *Stats) AddResult(durationMs int64, isTransportError bool, isStatusError bool) {
	s.CompletedRequests++
	s.TotalDurationMs += durationMs
	s.Durations = append(s.Durations, durationMs)

	if isTransportError {
		s.TransportErrors++
	} else if isStatusError {
		s.StatusErrors++
	} else {
		s.SuccessCount++
	}

	// Update min/max
	if s.MinDurationMs == -1 || durationMs < s.MinDurationMs {
		s.MinDurationMs = durationMs
	}
	if s.MaxDurationMs == -1 || durationMs > s.MaxDurationMs {
		s.MaxDurationMs = durationMs
	}
}

// Merge folds other into s
func (s *Stats) Merge(other *Stats) {
	if other == nil || other.CompletedRequests == 0 {
		return
	}
	s.CompletedRequests += other.CompletedRequests
	s.TransportErrors += other.TransportErrors
	s.StatusErrors += other.StatusErrors
	s.SuccessCount += other.SuccessCount
	s.TotalDurationMs += other.TotalDurationMs
	s.Durations = append(s.Durations, other.Durations...)

	if s.MinDurationMs == -1 || (other.MinDurationMs != -1 && other.MinDurationMs < s.MinDurationMs) {
		s.MinDurationMs = other.MinDurationMs
	}
	if other.MaxDurationMs > s.MaxDurationMs {
		s.MaxDurationMs = other.MaxDurationMs
	}
}

// AvgDurationMs returns the average duration in milliseconds
func (s *Stats) AvgDurationMs() float64 {
	if s.CompletedRequests == 0 {
		return 0
	}
	return float64(s.TotalDurationMs) / float64(s.CompletedRequests)
}

// Min returns the minimum duration, or 0 if no results
func (s *Stats) Min() int64 {
	if s.MinDurationMs == -1 {
		return 0
	}
	return s.MinDurationMs
}

// Max returns the maximum duration, or 0 if no results
func (s *Stats) Max() int64 {
	if s.MaxDurationMs == -1 {
		return 0
	}
	return s.MaxDurationMs
}

// Percentile calculates the percentile value (p should be between 0 and 100)
func (s *Stats) Percentile(p float64) int64 {
	if len(s.Durations) == 0 {
		return 0
	}

	// Make a copy and sort
	sorted := make([]int64, len(s.Durations))
	copy(sorted, s.Durations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	// Calculate index
	index := (p / 100.0) * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	// Linear interpolation between lower and upper
	weight := index - float64(lower)
	return int64(float64(sorted[lower])*(1-weight) + float64(sorted[upper])*weight)
}

// P50 returns the 50th percentile (median)
func (s *Stats) P50() int64 {
	return s.Percentile(50)
}

// P95 returns the 95th percentile
func (s *Stats) P95() int64 {
	return s.Percentile(95)
}

// P99 returns the 99th percentile
func (s *Stats) P99() int64 {
	return s.Percentile(99)
}

// SuccessRate returns the success rate as a percentage
func (s *Stats) SuccessRate() float64 {
	if s.CompletedRequests == 0 {
		return 0
	}
	return float64(s.SuccessCount) / float64(s.CompletedRequests) * 100
}

// FailureRate returns the share of transport and status failures as a percentage
func (s *Stats) FailureRate() float64 {
	if s.CompletedRequests == 0 {
		return 0
	}
	return float64(s.TransportErrors+s.StatusErrors) / float64(s.CompletedRequests) * 100
}
