package port

import (
	"context"

	"github.com/shssoichiro/butter-video/internal/domain/entity"
)

// FrameSource yields the decoded frames of one video in strictly
// increasing index order starting at 0. Next returns io.EOF after the last
// frame; the sequence is finite and not restartable, a fresh Open is
// required to re-read the file.
type FrameSource interface {
	Next() (*entity.Frame, error)
	Close() error
}

// FrameSourceOpener turns a video path into a FrameSource. Open fails with
// a decode error if the container cannot be read or probed.
type FrameSourceOpener interface {
	Open(ctx context.Context, path string) (FrameSource, error)
}
