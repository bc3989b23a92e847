package reports

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/corretaje/src/aggregation"
	"github.com/username/corretaje/src/models"
)

func resultFromVolumes(volumes map[string]float64) *aggregation.Result {
	result := &aggregation.Result{Buckets: make(map[aggregation.GroupKey]*aggregation.Bucket)}
	for name, volume := range volumes {
		key := aggregation.GroupKey{Trader: name}
		result.Buckets[key] = &aggregation.Bucket{Key: key, Volume: volume}
		result.Order = append(result.Order, key)
	}
	return result
}

func TestRank_DescendingWithShares(t *testing.T) {
	entries := Rank(resultFromVolumes(map[string]float64{
		"Andino":  250,
		"Bavaria": 500,
		"Nuevo":   250,
	}), Descending, 0)

	require.Len(t, entries, 3)
	assert.Equal(t, "Bavaria", entries[0].Name)
	assert.Equal(t, 1, entries[0].Position)
	assert.Equal(t, 50.0, entries[0].Share)

	// Equal volumes break alphabetically.
	assert.Equal(t, "Andino", entries[1].Name)
	assert.Equal(t, "Nuevo", entries[2].Name)

	// Monotonicity and share normalization.
	var shareSum float64
	for i := range entries {
		assert.Equal(t, i+1, entries[i].Position)
		if i > 0 {
			assert.GreaterOrEqual(t, entries[i-1].Volume, entries[i].Volume)
		}
		shareSum += entries[i].Share
	}
	assert.InDelta(t, 100, shareSum, 0.01)
}

func TestRank_ZeroTotalYieldsZeroShares(t *testing.T) {
	entries := Rank(resultFromVolumes(map[string]float64{"A": 0, "B": 0}), Descending, 0)
	for _, e := range entries {
		assert.Equal(t, 0.0, e.Share)
	}
}

func TestRank_AscendingReranksFromOne(t *testing.T) {
	entries := Rank(resultFromVolumes(map[string]float64{
		"A": 300, "B": 100, "C": 200,
	}), Ascending, 0)

	require.Len(t, entries, 3)
	assert.Equal(t, "B", entries[0].Name)
	assert.Equal(t, 1, entries[0].Position)
	assert.Equal(t, "A", entries[2].Name)
	assert.Equal(t, 3, entries[2].Position)
}

func TestRank_LimitKeepsTopN(t *testing.T) {
	entries := Rank(resultFromVolumes(map[string]float64{
		"A": 300, "B": 100, "C": 200, "D": 50,
	}), Descending, 2)

	require.Len(t, entries, 2)
	assert.Equal(t, "A", entries[0].Name)
	assert.Equal(t, "C", entries[1].Name)
	// Shares stay relative to the full total.
	assert.InDelta(t, 46.15, entries[0].Share, 0.01)
}

func TestSelfStats(t *testing.T) {
	ranked := Rank(resultFromVolumes(map[string]float64{
		"Bavaria": 500,
		"Andino":  300,
		"Nuevo":   200,
		"Chico":   50,
	}), Descending, 0)

	tests := []struct {
		name     string
		trader   string
		expected *models.SelfStats
	}{
		{
			name:   "leader has no gaps",
			trader: "Bavaria",
			expected: &models.SelfStats{
				Position: 1, Volume: 500, Share: 47.62,
				GapToFirst: 0, GapToSecond: 0, GapToAbove: 0,
			},
		},
		{
			name:   "second place gaps to leader only",
			trader: "andino", // case-insensitive lookup
			expected: &models.SelfStats{
				Position: 2, Volume: 300, Share: 28.57,
				GapToFirst: 200, GapToSecond: 0, GapToAbove: 200,
			},
		},
		{
			name:   "fourth place has all gaps",
			trader: "Chico",
			expected: &models.SelfStats{
				Position: 4, Volume: 50, Share: 4.76,
				GapToFirst: 450, GapToSecond: 250, GapToAbove: 150,
			},
		},
		{
			name:     "absent trader yields nil, not an error",
			trader:   "Fantasma",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SelfStats(ranked, tt.trader))
		})
	}
}
