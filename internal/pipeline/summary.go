package pipeline

import "time"

// Summary aggregates the results of a run. Aggregation is order independent.
type Summary struct {
	Total       int
	Counts      map[Status]int
	SkipReasons map[SkipReason]int

	// InputBytes and OutputBytes cover every downloaded asset.
	InputBytes  int64
	OutputBytes int64
	// ReplacedInputBytes and ReplacedOutputBytes cover only assets whose
	// converted file replaced the original.
	ReplacedInputBytes  int64
	ReplacedOutputBytes int64

	Elapsed time.Duration
}

func newSummary(total int) Summary {
	return Summary{
		Total:       total,
		Counts:      make(map[Status]int),
		SkipReasons: make(map[SkipReason]int),
	}
}

func (s *Summary) add(r Result) {
	s.Counts[r.Status]++
	if r.SkipReason != ReasonNone {
		s.SkipReasons[r.SkipReason]++
	}
	s.InputBytes += r.InputBytes
	s.OutputBytes += r.OutputBytes
	if r.Status.Replaced() {
		s.ReplacedInputBytes += r.InputBytes
		s.ReplacedOutputBytes += r.OutputBytes
	}
}

func (s Summary) clone() Summary {
	c := s
	c.Counts = make(map[Status]int, len(s.Counts))
	for k, v := range s.Counts {
		c.Counts[k] = v
	}
	c.SkipReasons = make(map[SkipReason]int, len(s.SkipReasons))
	for k, v := range s.SkipReasons {
		c.SkipReasons[k] = v
	}
	return c
}

// Completed is the number of assets with a terminal status.
func (s Summary) Completed() int {
	n := 0
	for _, c := range s.Counts {
		n += c
	}
	return n
}

// Failed is the number of assets that ended in a failure status.
func (s Summary) Failed() int {
	n := 0
	for status, c := range s.Counts {
		switch status {
		case StatusSuccess, StatusPartialSuccess, StatusSkipped, StatusDryRunSkip, StatusAborted:
		default:
			n += c
		}
	}
	return n
}

// SavedBytes is the size reduction of replaced assets. It is negative when
// larger outputs were accepted.
func (s Summary) SavedBytes() int64 {
	return s.ReplacedInputBytes - s.ReplacedOutputBytes
}

// SavedPercent is SavedBytes relative to the replaced inputs.
func (s Summary) SavedPercent() float64 {
	return SavingsPercent(s.ReplacedInputBytes, s.ReplacedOutputBytes)
}
