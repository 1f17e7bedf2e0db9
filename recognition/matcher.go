package recognition

import "campusface/helper"

const (
	DefaultTolerance   = 0.85
	DefaultMaxDistance = 0.15
)

// Matcher applies the two-threshold policy: the closest gallery entry must
// both exceed Tolerance in similarity and sit strictly below MaxDistance.
type Matcher struct {
	Tolerance   float64
	MaxDistance float64
}

func NewMatcher(tolerance, maxDistance float64) *Matcher {
	return &Matcher{Tolerance: tolerance, MaxDistance: maxDistance}
}

// Match is the accepted gallery entry for a probe.
type Match struct {
	Index      int
	Similarity float64
	Distance   float64
}

func (m *Matcher) Similarities(gallery [][]float64, probe []float64) []float64 {
	if len(gallery) == 0 {
		return nil
	}
	out := make([]float64, len(gallery))
	for i, ref := range gallery {
		out[i] = helper.CosineSimilarity(probe, ref)
	}
	return out
}

// Compare reports, per gallery entry, whether similarity exceeds Tolerance.
func (m *Matcher) Compare(gallery [][]float64, probe []float64) []bool {
	sims := m.Similarities(gallery, probe)
	if sims == nil {
		return nil
	}
	out := make([]bool, len(sims))
	for i, s := range sims {
		out[i] = s > m.Tolerance
	}
	return out
}

func (m *Matcher) Distances(gallery [][]float64, probe []float64) []float64 {
	sims := m.Similarities(gallery, probe)
	if sims == nil {
		return nil
	}
	out := make([]float64, len(sims))
	for i, s := range sims {
		out[i] = 1 - s
	}
	return out
}

// Best picks the closest gallery entry (first one on ties) and reports
// whether it is accepted.
func (m *Matcher) Best(gallery [][]float64, probe []float64) (Match, bool) {
	if len(gallery) == 0 {
		return Match{Index: -1}, false
	}

	sims := m.Similarities(gallery, probe)
	best := 0
	for i := 1; i < len(sims); i++ {
		if 1-sims[i] < 1-sims[best] {
			best = i
		}
	}

	match := Match{Index: best, Similarity: sims[best], Distance: 1 - sims[best]}
	accepted := match.Similarity > m.Tolerance && match.Distance < m.MaxDistance
	return match, accepted
}
