package entity

// Frame is one decoded raster image in packed 8-bit RGB, tagged with its
// zero-based position within the stream it was decoded from. The pixel
// buffer is owned by whichever pipeline step is currently processing the
// frame and must not be mutated after the frame has been handed off.
type Frame struct {
	Index  int
	Width  int
	Height int
	// RGB holds row-major pixels, 3 bytes per pixel, no padding.
	RGB []byte
}

// FramePair couples the reference and encoded frames that share a sequence
// index. Both frames must have identical dimensions; a mismatch is fatal
// for the comparison.
type FramePair struct {
	Index     int
	Reference *Frame
	Encoded   *Frame
}

func (p *FramePair) DimensionsMatch() bool {
	return p.Reference.Width == p.Encoded.Width &&
		p.Reference.Height == p.Encoded.Height
}

// TransientImage is a frame materialized as a still-image file in scratch
// storage. It exists only for the duration of one scorer invocation; the
// caller that wrote it removes it.
type TransientImage struct {
	Path       string
	FrameIndex int
}
