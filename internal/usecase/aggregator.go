package usecase

import (
	"math"
	"sort"
	"sync"

	"github.com/shssoichiro/butter-video/internal/domain/entity"
)

// Aggregator folds per-frame score samples into one summary. The running
// fold (count, sum, min, max) is commutative, so samples may arrive in any
// order and memory stays flat no matter how long the video is. The
// optional 3-norm values are kept for a percentile at the end.
//
// Accumulate is safe for concurrent use; the scoring workers share one
// Aggregator per run.
type Aggregator struct {
	mu    sync.Mutex
	count int
	sum   float64
	min   float64
	max   float64
	norms []float64
}

func NewAggregator() *Aggregator {
	return &Aggregator{min: math.Inf(1), max: math.Inf(-1)}
}

func (a *Aggregator) Accumulate(sample entity.ScoreSample) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.count++
	a.sum += sample.Score
	if sample.Score < a.min {
		a.min = sample.Score
	}
	if sample.Score > a.max {
		a.max = sample.Score
	}
	if sample.Norm3 != nil {
		a.norms = append(a.norms, *sample.Norm3)
	}
}

// Finalize computes the aggregate. Zero samples is an error: a mean over
// no frames is not a meaningful score.
func (a *Aggregator) Finalize() (*entity.AggregateResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.count == 0 {
		return nil, entity.ErrEmptyResult
	}

	result := &entity.AggregateResult{
		Count: a.count,
		Mean:  a.sum / float64(a.count),
		Min:   a.min,
		Max:   a.max,
	}
	if len(a.norms) > 0 {
		p75 := percentile(a.norms, 0.75)
		result.Norm3P75 = &p75
	}
	return result, nil
}

// percentile returns the nearest-rank p-th percentile. The input slice is
// not modified.
func percentile(values []float64, p float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	return sorted[rank]
}
