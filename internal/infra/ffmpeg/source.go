package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/shssoichiro/butter-video/internal/domain/entity"
	"github.com/shssoichiro/butter-video/internal/domain/port"
	"go.uber.org/zap"
)

// Opener creates frame sources backed by an ffmpeg subprocess. ffprobe
// resolves the stream geometry up front; ffmpeg then streams raw RGB24
// frames over a stdout pipe, which also normalizes bit depth and chroma
// subsampling so the scorer sees only the reference-vs-encoded difference.
type Opener struct {
	ffmpegPath  string
	ffprobePath string
	logger      *zap.Logger
}

func NewOpener(ffmpegPath, ffprobePath string, logger *zap.Logger) *Opener {
	return &Opener{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath, logger: logger}
}

func (o *Opener) Open(ctx context.Context, path string) (port.FrameSource, error) {
	width, height, err := o.probeGeometry(ctx, path)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, o.ffmpegPath,
		"-v", "error",
		"-i", path,
		"-map", "0:v:0",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-",
	)

	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: pipe: %v", entity.ErrDecode, path, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: start ffmpeg: %v", entity.ErrDecode, path, err)
	}

	o.logger.Debug("decoder started",
		zap.String("path", path),
		zap.Int("width", width),
		zap.Int("height", height),
	)

	return &source{
		path:   path,
		cmd:    cmd,
		stdout: stdout,
		stderr: stderr,
		width:  width,
		height: height,
	}, nil
}

func (o *Opener) probeGeometry(ctx context.Context, path string) (int, int, error) {
	cmd := exec.CommandContext(ctx, o.ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=s=x:p=0",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %s: ffprobe: %v", entity.ErrDecode, path, err)
	}
	width, height, err := parseGeometry(string(output))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %s: %v", entity.ErrDecode, path, err)
	}
	return width, height, nil
}

// parseGeometry reads the "WIDTHxHEIGHT" line ffprobe prints for a video
// stream with csv=s=x:p=0 formatting.
func parseGeometry(output string) (int, int, error) {
	line := strings.TrimSpace(output)
	dims := strings.Split(line, "x")
	if len(dims) != 2 {
		return 0, 0, fmt.Errorf("unexpected ffprobe output %q", line)
	}
	width, err := strconv.Atoi(strings.TrimSpace(dims[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("parse width: %w", err)
	}
	height, err := strconv.Atoi(strings.TrimSpace(dims[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("parse height: %w", err)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("non-positive dimensions %dx%d", width, height)
	}
	return width, height, nil
}

type source struct {
	path   string
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *bytes.Buffer
	width  int
	height int

	next    int
	done    bool
	waited  bool
	waitErr error
}

func (s *source) Next() (*entity.Frame, error) {
	if s.done {
		return nil, io.EOF
	}

	buf := make([]byte, s.width*s.height*3)
	if _, err := io.ReadFull(s.stdout, buf); err != nil {
		s.done = true
		if err == io.EOF {
			if werr := s.wait(); werr != nil {
				return nil, fmt.Errorf("%w: %s: ffmpeg: %v%s",
					entity.ErrDecode, s.path, werr, s.stderrTail())
			}
			return nil, io.EOF
		}
		_ = s.wait()
		return nil, fmt.Errorf("%w: %s: truncated frame %d: %v%s",
			entity.ErrDecode, s.path, s.next, err, s.stderrTail())
	}

	frame := &entity.Frame{
		Index:  s.next,
		Width:  s.width,
		Height: s.height,
		RGB:    buf,
	}
	s.next++
	return frame, nil
}

func (s *source) Close() error {
	if !s.waited {
		// Reap a decoder that is still running, e.g. when the run failed
		// before this stream was exhausted.
		_ = s.cmd.Process.Kill()
		_ = s.wait()
	}
	s.done = true
	return nil
}

func (s *source) wait() error {
	if !s.waited {
		s.waited = true
		s.waitErr = s.cmd.Wait()
	}
	return s.waitErr
}

func (s *source) stderrTail() string {
	msg := strings.TrimSpace(s.stderr.String())
	if msg == "" {
		return ""
	}
	return " (" + msg + ")"
}
