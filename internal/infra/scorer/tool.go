package scorer

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/shssoichiro/butter-video/internal/domain/entity"
	"go.uber.org/zap"
)

// Resolve locates the executable for a metric tool. An explicit override
// (from the tool's environment variable) wins; otherwise the default tool
// name is looked up on PATH. Resolution happens once, before any frame is
// decoded, because a missing binary cannot be fixed by retrying.
func Resolve(override, name string) (string, error) {
	candidate := override
	if candidate == "" {
		candidate = name
	}
	path, err := exec.LookPath(candidate)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", entity.ErrToolUnavailable, candidate, err)
	}
	return path, nil
}

// Tool invokes an external still-image scorer as a subprocess, one call
// per frame pair. Each invocation is stateless: the score is a pure
// function of the two image files, so concurrent invocations are safe.
type Tool struct {
	path    string
	timeout time.Duration
	logger  *zap.Logger
}

// NewTool wraps a resolved scorer binary. timeout bounds each invocation's
// wall-clock time; a hung binary would otherwise stall the whole run. A
// timeout of zero disables the bound.
func NewTool(path string, timeout time.Duration, logger *zap.Logger) *Tool {
	return &Tool{path: path, timeout: timeout, logger: logger}
}

func (t *Tool) Score(ctx context.Context, refPath, encPath string) (float64, *float64, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, t.path, refPath, encPath)
	// A killed tool can leave children holding the output pipes; don't let
	// Wait block on them past the kill.
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	t.logger.Debug("scorer invoked",
		zap.String("tool", t.path),
		zap.Duration("elapsed", time.Since(start)),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			// Keep the context error inspectable: the controller must be
			// able to tell a cancelled invocation from a crashed tool.
			return 0, nil, fmt.Errorf("%w: %s: %w", entity.ErrInvocation, t.path, ctxErr)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return 0, nil, fmt.Errorf("%w: %s: %v (%s)", entity.ErrInvocation, t.path, err, msg)
		}
		return 0, nil, fmt.Errorf("%w: %s: %v", entity.ErrInvocation, t.path, err)
	}

	return parseOutput(stdout.String())
}

// parseOutput extracts the score from the tool's stdout: the first token
// that parses as a finite, non-negative float. Lines beginning with
// "3-norm" carry butteraugli's secondary statistic and are captured
// separately rather than mistaken for the score.
func parseOutput(output string) (float64, *float64, error) {
	var (
		score float64
		found bool
		norm3 *float64
	)

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(line, "3-norm"); ok {
			if _, value, ok := strings.Cut(rest, ":"); ok {
				if v, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
					norm3 = &v
				}
			}
			continue
		}
		if found {
			continue
		}
		for _, field := range strings.Fields(line) {
			v, err := strconv.ParseFloat(strings.Trim(field, ":"), 64)
			if err != nil {
				continue
			}
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return 0, nil, fmt.Errorf("%w: got %q", entity.ErrScoreParse, field)
			}
			score = v
			found = true
			break
		}
	}

	if !found {
		return 0, nil, fmt.Errorf("%w: output %q", entity.ErrScoreParse, strings.TrimSpace(output))
	}
	return score, norm3, nil
}
