package imageio

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/shssoichiro/butter-video/internal/domain/entity"
)

// Writer materializes frames as PNG files. PNG is lossless, so the scorer
// measures only the reference-vs-encoded difference and never a
// writer-introduced one.
type Writer struct{}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) Write(frame *entity.Frame, dir, role string) (*entity.TransientImage, error) {
	name := fmt.Sprintf("%s_%06d_%s.png", role, frame.Index, uuid.NewString()[:8])
	path := filepath.Join(dir, name)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", entity.ErrScratchIO, path, err)
	}

	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(file, frameImage(frame)); err != nil {
		file.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("%w: encode %s: %v", entity.ErrScratchIO, path, err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("%w: close %s: %v", entity.ErrScratchIO, path, err)
	}

	return &entity.TransientImage{Path: path, FrameIndex: frame.Index}, nil
}

func (w *Writer) Remove(img *entity.TransientImage) error {
	if err := os.Remove(img.Path); err != nil {
		return fmt.Errorf("%w: remove %s: %v", entity.ErrScratchIO, img.Path, err)
	}
	return nil
}

func frameImage(frame *entity.Frame) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, frame.Width, frame.Height))
	for y := 0; y < frame.Height; y++ {
		src := frame.RGB[y*frame.Width*3:]
		dst := img.Pix[y*img.Stride:]
		for x := 0; x < frame.Width; x++ {
			dst[x*4+0] = src[x*3+0]
			dst[x*4+1] = src[x*3+1]
			dst[x*4+2] = src[x*3+2]
			dst[x*4+3] = 0xff
		}
	}
	return img
}
