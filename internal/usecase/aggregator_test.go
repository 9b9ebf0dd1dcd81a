package usecase

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/shssoichiro/butter-video/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregatorBasicStats(t *testing.T) {
	agg := NewAggregator()
	for i, score := range []float64{1.0, 2.0, 3.0} {
		agg.Accumulate(entity.ScoreSample{FrameIndex: i, Score: score})
	}

	result, err := agg.Finalize()
	require.NoError(t, err)
	assert.Equal(t, 3, result.Count)
	assert.InDelta(t, 2.0, result.Mean, 1e-9)
	assert.Equal(t, 1.0, result.Min)
	assert.Equal(t, 3.0, result.Max)
	assert.Nil(t, result.Norm3P75)
}

func TestAggregatorOrderIndependence(t *testing.T) {
	scores := make([]float64, 100)
	for i := range scores {
		scores[i] = rand.Float64() * 10
	}

	ordered := NewAggregator()
	for i, s := range scores {
		ordered.Accumulate(entity.ScoreSample{FrameIndex: i, Score: s})
	}
	want, err := ordered.Finalize()
	require.NoError(t, err)

	shuffled := NewAggregator()
	perm := rand.Perm(len(scores))
	for _, i := range perm {
		shuffled.Accumulate(entity.ScoreSample{FrameIndex: i, Score: scores[i]})
	}
	got, err := shuffled.Finalize()
	require.NoError(t, err)

	assert.Equal(t, want.Count, got.Count)
	assert.InDelta(t, want.Mean, got.Mean, 1e-9)
	assert.Equal(t, want.Min, got.Min)
	assert.Equal(t, want.Max, got.Max)
}

func TestAggregatorEmptyResult(t *testing.T) {
	_, err := NewAggregator().Finalize()
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrEmptyResult)
}

func TestAggregatorNorm3Percentile(t *testing.T) {
	agg := NewAggregator()
	norms := []float64{4.0, 1.0, 3.0, 2.0}
	for i, n := range norms {
		n := n
		agg.Accumulate(entity.ScoreSample{FrameIndex: i, Score: 1.0, Norm3: &n})
	}

	result, err := agg.Finalize()
	require.NoError(t, err)
	require.NotNil(t, result.Norm3P75)
	// Nearest-rank 75th percentile of {1,2,3,4} is the 3rd value.
	assert.Equal(t, 3.0, *result.Norm3P75)
}

func TestAggregatorConcurrentAccumulate(t *testing.T) {
	agg := NewAggregator()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				agg.Accumulate(entity.ScoreSample{FrameIndex: base*100 + i, Score: 2.0})
			}
		}(w)
	}
	wg.Wait()

	result, err := agg.Finalize()
	require.NoError(t, err)
	assert.Equal(t, 800, result.Count)
	assert.InDelta(t, 2.0, result.Mean, 1e-9)
}
