package metrics

import "math"

// DefaultStabilityThreshold flags densities no normalised packet on the
// default grid can reach.
const DefaultStabilityThreshold = 1e3

// Stability reports the fraction of rows that stayed finite and below the
// threshold. Once a row violates it, Diverged reports true.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
	firstBad   int
}

func NewStability(threshold float64) *Stability {
	if threshold <= 0 {
		threshold = DefaultStabilityThreshold
	}
	return &Stability{
		name:      "stability",
		threshold: threshold,
		firstBad:  -1,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(step int, row []float64) {
	s.samples++
	for _, val := range row {
		if math.IsNaN(val) || math.IsInf(val, 0) || math.Abs(val) > s.threshold {
			s.violations++
			if s.firstBad < 0 {
				s.firstBad = step
			}
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Diverged() bool { return s.violations > 0 }

// FirstViolation returns the step of the first bad row, or -1.
func (s *Stability) FirstViolation() int { return s.firstBad }

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
	s.firstBad = -1
}
