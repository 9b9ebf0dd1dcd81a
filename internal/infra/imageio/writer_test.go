package imageio

import (
	"image/png"
	"os"
	"testing"

	"github.com/shssoichiro/butter-video/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFrame(index, width, height int) *entity.Frame {
	rgb := make([]byte, width*height*3)
	for i := range rgb {
		rgb[i] = byte(i * 7)
	}
	return &entity.Frame{Index: index, Width: width, Height: height, RGB: rgb}
}

func TestWriteIsLossless(t *testing.T) {
	dir := t.TempDir()
	writer := NewWriter()
	frame := testFrame(0, 4, 3)

	img, err := writer.Write(frame, dir, "ref")
	require.NoError(t, err)
	require.Equal(t, 0, img.FrameIndex)

	file, err := os.Open(img.Path)
	require.NoError(t, err)
	defer file.Close()

	decoded, err := png.Decode(file)
	require.NoError(t, err)
	require.Equal(t, 4, decoded.Bounds().Dx())
	require.Equal(t, 3, decoded.Bounds().Dy())

	for y := 0; y < frame.Height; y++ {
		for x := 0; x < frame.Width; x++ {
			r, g, b, _ := decoded.At(x, y).RGBA()
			offset := (y*frame.Width + x) * 3
			assert.Equal(t, uint32(frame.RGB[offset+0]), r>>8, "red at %d,%d", x, y)
			assert.Equal(t, uint32(frame.RGB[offset+1]), g>>8, "green at %d,%d", x, y)
			assert.Equal(t, uint32(frame.RGB[offset+2]), b>>8, "blue at %d,%d", x, y)
		}
	}
}

func TestWriteNamesAreUniquePerInvocation(t *testing.T) {
	dir := t.TempDir()
	writer := NewWriter()
	frame := testFrame(5, 2, 2)

	first, err := writer.Write(frame, dir, "enc")
	require.NoError(t, err)
	second, err := writer.Write(frame, dir, "enc")
	require.NoError(t, err)

	assert.NotEqual(t, first.Path, second.Path)
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	writer := NewWriter()

	img, err := writer.Write(testFrame(0, 2, 2), dir, "ref")
	require.NoError(t, err)

	require.NoError(t, writer.Remove(img))
	_, err = os.Stat(img.Path)
	assert.True(t, os.IsNotExist(err))

	err = writer.Remove(img)
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrScratchIO)
}

func TestWriteFailsOnMissingDir(t *testing.T) {
	writer := NewWriter()
	_, err := writer.Write(testFrame(0, 2, 2), "/nonexistent/scratch", "ref")
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrScratchIO)
}
