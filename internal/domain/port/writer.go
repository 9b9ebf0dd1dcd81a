package port

import "github.com/shssoichiro/butter-video/internal/domain/entity"

// FrameWriter serializes a frame to a lossless still image in dir. The
// file name is unique per (role, frame index, invocation) so concurrent
// writers never collide. Removal is the caller's responsibility via Remove,
// on both success and failure paths of the scorer invocation.
type FrameWriter interface {
	Write(frame *entity.Frame, dir, role string) (*entity.TransientImage, error)
	Remove(img *entity.TransientImage) error
}
