package port

import "context"

// Scorer computes one perceptual score for a reference/encoded image pair.
// Implementations must be stateless and idempotent: the same two images
// always produce the same score, which is what makes scoring frame pairs
// in parallel safe. norm3 is the secondary 3-norm statistic, nil when the
// scorer does not report one.
type Scorer interface {
	Score(ctx context.Context, refPath, encPath string) (score float64, norm3 *float64, err error)
}
