package entity

// ScoreSample is a single metric value for one frame pair. Norm3 carries
// the secondary "3-norm" statistic some scorers (butteraugli) print
// alongside the main score; it is nil when the tool did not report one.
type ScoreSample struct {
	FrameIndex int
	Score      float64
	Norm3      *float64
}

// AggregateResult is the summary over all scored frame pairs. Mean is the
// reported score; Min and Max are diagnostics. Norm3P75 is the 75th
// percentile of the per-frame 3-norm values when any were reported.
type AggregateResult struct {
	Count    int
	Mean     float64
	Min      float64
	Max      float64
	Norm3P75 *float64
}
