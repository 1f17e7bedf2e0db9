package recognition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBestIdenticalVectorAccepted(t *testing.T) {
	m := NewMatcher(DefaultTolerance, DefaultMaxDistance)
	probe := []float64{0.12, 0.55, 0.31, 0.9}
	gallery := [][]float64{{1, 0, 0, 0}, {0.12, 0.55, 0.31, 0.9}}

	match, ok := m.Best(gallery, probe)
	require.True(t, ok)
	assert.Equal(t, 1, match.Index)
	assert.InDelta(t, 1.0, match.Similarity, 1e-9)
	assert.InDelta(t, 0.0, match.Distance, 1e-9)
}

func TestBestRejectsDistanceAtThreshold(t *testing.T) {
	gallery := [][]float64{{1, 0}}
	probe := []float64{0.8, 0.6}

	// Put the strict threshold exactly on the observed distance.
	d := NewMatcher(0, 1).Distances(gallery, probe)[0]
	m := NewMatcher(0, d)

	match, ok := m.Best(gallery, probe)
	assert.False(t, ok, "distance equal to MaxDistance must be rejected")
	assert.Equal(t, d, match.Distance)

	m.MaxDistance = d + 1e-9
	_, ok = m.Best(gallery, probe)
	assert.True(t, ok)
}

func TestBestEmptyGalleryNeverMatches(t *testing.T) {
	m := NewMatcher(DefaultTolerance, DefaultMaxDistance)
	for _, probe := range [][]float64{{1, 0}, {0, 0}, nil} {
		match, ok := m.Best(nil, probe)
		assert.False(t, ok)
		assert.Equal(t, -1, match.Index)
	}
	assert.Nil(t, m.Compare(nil, []float64{1}))
	assert.Nil(t, m.Distances(nil, []float64{1}))
}

func TestBestTieTakesFirstIndex(t *testing.T) {
	m := NewMatcher(DefaultTolerance, DefaultMaxDistance)
	gallery := [][]float64{{0, 1}, {1, 1}, {1, 1}}
	match, ok := m.Best(gallery, []float64{3, 3})
	require.True(t, ok)
	assert.Equal(t, 1, match.Index)
}

func TestBestRequiresTolerance(t *testing.T) {
	// Best entry is within MaxDistance but Compare says no: both must hold.
	m := NewMatcher(0.99, 0.5)
	_, ok := m.Best([][]float64{{1, 0}}, []float64{0.9, 0.3})
	assert.False(t, ok)
}

func TestCompareAndDistances(t *testing.T) {
	m := NewMatcher(DefaultTolerance, DefaultMaxDistance)
	gallery := [][]float64{{1, 0}, {0, 1}, {1, 0.1}}
	probe := []float64{1, 0}

	assert.Equal(t, []bool{true, false, true}, m.Compare(gallery, probe))

	d := m.Distances(gallery, probe)
	require.Len(t, d, 3)
	assert.InDelta(t, 0, d[0], 1e-12)
	assert.InDelta(t, 1, d[1], 1e-12)
	assert.Less(t, d[2], 0.01)
}

func TestBestMismatchedLengthNeverMatches(t *testing.T) {
	m := NewMatcher(DefaultTolerance, DefaultMaxDistance)
	_, ok := m.Best([][]float64{{1, 0, 0}}, []float64{1, 0})
	assert.False(t, ok)
}
