package sentiment

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/spacesedan/sentai/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectLabel_Legacy(t *testing.T) {
	tests := []struct {
		name      string
		scores    models.ScoreVector
		wantLabel models.Label
		wantScore float64
	}{
		{"late increase beats earlier max", models.ScoreVector{0.6, 0.1, 0.2}, models.LabelPositive, 0.2},
		{"monotonic increasing", models.ScoreVector{0.1, 0.3, 0.6}, models.LabelPositive, 0.6},
		{"negative dominant and decreasing", models.ScoreVector{0.7, 0.2, 0.1}, models.LabelNegative, 0.7},
		{"neutral peak", models.ScoreVector{0.2, 0.5, 0.3}, models.LabelNeutral, 0.5},
		{"late positive", models.ScoreVector{0.25, 0.25, 0.5}, models.LabelPositive, 0.5},
		{"ties never advance", models.ScoreVector{0.4, 0.4, 0.2}, models.LabelNegative, 0.4},
		{"all equal keeps negative", models.ScoreVector{1.0 / 3, 1.0 / 3, 1.0 / 3}, models.LabelNegative, 1.0 / 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectLabel(tt.scores, SelectionLegacy)
			assert.Equal(t, tt.wantLabel, got.Label)
			assert.Equal(t, tt.wantScore, got.Score)
		})
	}
}

func TestSelectLabel_ArgMax(t *testing.T) {
	got := SelectLabel(models.ScoreVector{0.6, 0.1, 0.2}, SelectionArgMax)
	assert.Equal(t, models.LabelNegative, got.Label)
	assert.Equal(t, 0.6, got.Score)

	got = SelectLabel(models.ScoreVector{0.4, 0.4, 0.2}, SelectionArgMax)
	assert.Equal(t, models.LabelNegative, got.Label, "first index wins ties")

	got = SelectLabel(models.ScoreVector{0.2, 0.5, 0.3}, SelectionArgMax)
	assert.Equal(t, models.LabelNeutral, got.Label)
}

func TestSelectLabel_ScoreIsAComponent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		v := randomDistribution(rng)
		got := SelectLabel(v, SelectionLegacy)

		idx := labelIndex(t, got.Label)
		assert.Equal(t, v[idx], got.Score)

		// the chosen index is the last one that increased over its predecessor
		for j := idx + 1; j < len(v); j++ {
			assert.False(t, v[j] > v[j-1], "index %d increased after chosen %d in %v", j, idx, v)
		}
		if idx > 0 {
			assert.True(t, v[idx] > v[idx-1])
		}
	}
}

func TestSelectLabel_MonotonicReturnsMaximum(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		v := randomDistribution(rng)
		sort.Float64s(v[:])
		if v[2] == v[1] {
			continue
		}

		got := SelectLabel(v, SelectionLegacy)
		assert.Equal(t, models.LabelPositive, got.Label)
		assert.Equal(t, v[2], got.Score)
	}
}

func TestValidateScores(t *testing.T) {
	require.NoError(t, ValidateScores(models.ScoreVector{0.2, 0.3, 0.5}))
	require.NoError(t, ValidateScores(models.ScoreVector{0.3333, 0.3333, 0.3334}))

	bad := []models.ScoreVector{
		{0.6, 0.1, 0.2},
		{0.5, 0.5, 0.5},
		{-0.1, 0.6, 0.5},
		{math.NaN(), 0.5, 0.5},
		{1.5, -0.25, -0.25},
	}
	for _, v := range bad {
		err := ValidateScores(v)
		assert.ErrorIs(t, err, ErrClassifierContractViolation, "vector %v", v)
	}
}

func TestNewScoreVector(t *testing.T) {
	v, err := NewScoreVector([]float64{0.1, 0.2, 0.7})
	require.NoError(t, err)
	assert.Equal(t, models.ScoreVector{0.1, 0.2, 0.7}, v)

	_, err = NewScoreVector([]float64{0.5, 0.5})
	assert.ErrorIs(t, err, ErrClassifierContractViolation)

	_, err = NewScoreVector([]float64{0.25, 0.25, 0.25, 0.25})
	assert.ErrorIs(t, err, ErrClassifierContractViolation)
}

func TestParseSelectionMode(t *testing.T) {
	mode, err := ParseSelectionMode("")
	require.NoError(t, err)
	assert.Equal(t, SelectionLegacy, mode)

	mode, err = ParseSelectionMode("argmax")
	require.NoError(t, err)
	assert.Equal(t, SelectionArgMax, mode)

	_, err = ParseSelectionMode("max")
	assert.Error(t, err)
}

func randomDistribution(rng *rand.Rand) models.ScoreVector {
	a, b, c := rng.Float64(), rng.Float64(), rng.Float64()
	sum := a + b + c
	return models.ScoreVector{a / sum, b / sum, c / sum}
}

func labelIndex(t *testing.T, label models.Label) int {
	t.Helper()
	for i, l := range models.Labels {
		if l == label {
			return i
		}
	}
	t.Fatalf("unknown label %q", label)
	return -1
}
