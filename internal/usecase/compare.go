package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shssoichiro/butter-video/internal/domain/entity"
	"github.com/shssoichiro/butter-video/internal/domain/port"
	"github.com/shssoichiro/butter-video/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// CompareUseCase drives one comparison run: it zips the two frame streams
// into pairs, fans the pairs out to a bounded pool of scoring workers, and
// folds the per-frame scores into a single aggregate.
type CompareUseCase struct {
	opener     port.FrameSourceOpener
	writer     port.FrameWriter
	scorer     port.Scorer
	logger     *zap.Logger
	scratchDir string
	workers    int
}

type CompareConfig struct {
	ScratchDir string
	Workers    int
}

func NewCompareUseCase(
	opener port.FrameSourceOpener,
	writer port.FrameWriter,
	scorer port.Scorer,
	logger *zap.Logger,
	cfg CompareConfig,
) *CompareUseCase {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &CompareUseCase{
		opener:     opener,
		writer:     writer,
		scorer:     scorer,
		logger:     logger,
		scratchDir: cfg.ScratchDir,
		workers:    workers,
	}
}

// failureTracker keeps the first error across workers, with a
// deterministic tie-break by frame index so concurrent runs fail the same
// way a sequential one would.
type failureTracker struct {
	mu     sync.Mutex
	first  *entity.StepError
	cancel context.CancelFunc
}

func (f *failureTracker) record(err *entity.StepError) {
	f.mu.Lock()
	if f.first == nil || err.FrameIndex < f.first.FrameIndex {
		f.first = err
	}
	f.mu.Unlock()
	f.cancel()
}

func (f *failureTracker) err() *entity.StepError {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.first
}

func (uc *CompareUseCase) Execute(ctx context.Context, run *entity.Run) (*entity.AggregateResult, error) {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "CompareUseCase.Execute")
	defer span.End()
	span.SetAttributes(
		attribute.String("run.id", run.ID.String()),
		attribute.String("run.metric", run.Metric),
	)

	log := uc.logger.With(
		zap.String("run_id", run.ID.String()),
		zap.String("metric", run.Metric),
	)

	scratch := filepath.Join(uc.scratchDir, run.ID.String())
	if err := os.MkdirAll(scratch, 0755); err != nil {
		err = fmt.Errorf("%w: create scratch dir: %v", entity.ErrScratchIO, err)
		return nil, uc.fail(run, log, &entity.StepError{FrameIndex: 0, Step: entity.StepWriteImage, Err: err})
	}
	defer os.RemoveAll(scratch)

	result, err := uc.stream(ctx, run, scratch, log)
	if err != nil {
		return nil, err
	}

	run.MarkCompleted(result)
	metrics.RunsTotal.WithLabelValues(string(entity.RunStatusCompleted)).Inc()
	log.Info("run completed",
		zap.Int("frame_count", result.Count),
		zap.Float64("mean", result.Mean),
		zap.Float64("min", result.Min),
		zap.Float64("max", result.Max),
	)
	return result, nil
}

func (uc *CompareUseCase) stream(ctx context.Context, run *entity.Run, scratch string, log *zap.Logger) (*entity.AggregateResult, error) {
	tracer := otel.Tracer("usecase")
	openCtx, spanOpen := tracer.Start(ctx, "open_sources")

	refSrc, err := uc.opener.Open(openCtx, run.ReferencePath)
	if err != nil {
		spanOpen.End()
		return nil, uc.fail(run, log, &entity.StepError{FrameIndex: 0, Step: entity.StepDecode, Err: err})
	}
	defer refSrc.Close()

	encSrc, err := uc.opener.Open(openCtx, run.EncodedPath)
	if err != nil {
		spanOpen.End()
		return nil, uc.fail(run, log, &entity.StepError{FrameIndex: 0, Step: entity.StepDecode, Err: err})
	}
	defer encSrc.Close()
	spanOpen.End()

	run.MarkStreaming()

	pctx, cancel := context.WithCancel(ctx)
	defer cancel()
	failure := &failureTracker{cancel: cancel}

	// The buffer bounds in-flight decoded frames; the feeder blocks once
	// the workers fall behind.
	pairs := make(chan *entity.FramePair, uc.workers)
	go uc.feedPairs(pctx, refSrc, encSrc, pairs, failure)

	agg := NewAggregator()
	var wg sync.WaitGroup
	for i := 0; i < uc.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			wlog := log.With(zap.Int("worker_id", id))
			for pair := range pairs {
				if pctx.Err() != nil {
					continue
				}
				if err := uc.scorePair(pctx, scratch, pair, agg, wlog); err != nil {
					// An invocation killed by another failure's cancel is
					// an artifact of that failure, not a second one; letting
					// it into the tie-break would mask the root cause with
					// its own fallout at a lower frame index.
					if errors.Is(err, context.Canceled) && pctx.Err() != nil {
						continue
					}
					failure.record(err)
				}
			}
		}(i)
	}
	wg.Wait()

	if stepErr := failure.err(); stepErr != nil {
		return nil, uc.fail(run, log, stepErr)
	}
	if err := ctx.Err(); err != nil {
		return nil, uc.fail(run, log, &entity.StepError{FrameIndex: 0, Step: entity.StepFinalize, Err: err})
	}

	run.MarkFinalizing(agg.count)
	result, err := agg.Finalize()
	if err != nil {
		return nil, uc.fail(run, log, &entity.StepError{FrameIndex: 0, Step: entity.StepFinalize, Err: err})
	}
	return result, nil
}

// feedPairs pulls one frame from each source in lockstep and emits pairs
// until both streams end on the same index. One stream ending before the
// other fails the run: truncating to the shorter stream would understate
// divergence and report a misleadingly optimistic score.
func (uc *CompareUseCase) feedPairs(
	ctx context.Context,
	refSrc, encSrc port.FrameSource,
	pairs chan<- *entity.FramePair,
	failure *failureTracker,
) {
	defer close(pairs)

	for index := 0; ; index++ {
		ref, refErr := refSrc.Next()
		enc, encErr := encSrc.Next()

		if refErr == io.EOF && encErr == io.EOF {
			return
		}
		// A real decode failure outranks end-of-stream on the other side:
		// only a clean EOF against a live stream means the lengths diverged.
		if refErr != nil && refErr != io.EOF {
			failure.record(&entity.StepError{FrameIndex: index, Step: entity.StepDecode, Err: refErr})
			return
		}
		if encErr != nil && encErr != io.EOF {
			failure.record(&entity.StepError{FrameIndex: index, Step: entity.StepDecode, Err: encErr})
			return
		}
		if refErr == io.EOF || encErr == io.EOF {
			failure.record(&entity.StepError{
				FrameIndex: index,
				Step:       entity.StepDecode,
				Err:        entity.ErrFrameCountMismatch,
			})
			return
		}

		pair := &entity.FramePair{Index: index, Reference: ref, Encoded: enc}
		if !pair.DimensionsMatch() {
			failure.record(&entity.StepError{
				FrameIndex: index,
				Step:       entity.StepDecode,
				Err: fmt.Errorf("%w: %dx%d vs %dx%d", entity.ErrDimensionMismatch,
					ref.Width, ref.Height, enc.Width, enc.Height),
			})
			return
		}

		select {
		case pairs <- pair:
		case <-ctx.Done():
			return
		}
	}
}

// scorePair materializes both frames as transient images, invokes the
// scorer, and accumulates the sample. The images are removed before
// returning on every path, so scratch space stays bounded to the frames
// currently in flight.
func (uc *CompareUseCase) scorePair(
	ctx context.Context,
	scratch string,
	pair *entity.FramePair,
	agg *Aggregator,
	log *zap.Logger,
) *entity.StepError {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "score_pair")
	defer span.End()
	span.SetAttributes(attribute.Int("frame.index", pair.Index))

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()
	start := time.Now()

	refImg, err := uc.writer.Write(pair.Reference, scratch, "ref")
	if err != nil {
		return &entity.StepError{FrameIndex: pair.Index, Step: entity.StepWriteImage, Err: err}
	}
	defer uc.removeImage(refImg, log)

	encImg, err := uc.writer.Write(pair.Encoded, scratch, "enc")
	if err != nil {
		return &entity.StepError{FrameIndex: pair.Index, Step: entity.StepWriteImage, Err: err}
	}
	defer uc.removeImage(encImg, log)

	score, norm3, err := uc.scorer.Score(ctx, refImg.Path, encImg.Path)
	if err != nil {
		return &entity.StepError{FrameIndex: pair.Index, Step: entity.StepInvokeTool, Err: err}
	}

	agg.Accumulate(entity.ScoreSample{FrameIndex: pair.Index, Score: score, Norm3: norm3})
	metrics.FramesScoredTotal.Inc()
	metrics.ScorerInvocationDuration.Observe(time.Since(start).Seconds())

	log.Debug("frame scored",
		zap.Int("frame", pair.Index),
		zap.Float64("score", score),
	)
	return nil
}

func (uc *CompareUseCase) removeImage(img *entity.TransientImage, log *zap.Logger) {
	if err := uc.writer.Remove(img); err != nil {
		log.Warn("failed to remove transient image",
			zap.String("path", img.Path),
			zap.Error(err),
		)
	}
}

func (uc *CompareUseCase) fail(run *entity.Run, log *zap.Logger, stepErr *entity.StepError) error {
	run.MarkFailed(stepErr.Step, stepErr.FrameIndex, stepErr.Err.Error())
	metrics.RunsTotal.WithLabelValues(string(entity.RunStatusFailed)).Inc()
	log.Error("run failed",
		zap.Int("frame", stepErr.FrameIndex),
		zap.String("step", string(stepErr.Step)),
		zap.Error(stepErr.Err),
	)
	return stepErr
}
