package capture

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeTestJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestDownscaleJPEG_ShrinksLargeFrames(t *testing.T) {
	data := encodeTestJPEG(t, 640, 480)

	out, err := DownscaleJPEG(data, 320)
	require.NoError(t, err)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 320, cfg.Width)
	assert.Equal(t, 240, cfg.Height)
}

func TestDownscaleJPEG_TallFrameBoundsHeight(t *testing.T) {
	data := encodeTestJPEG(t, 200, 800)

	out, err := DownscaleJPEG(data, 400)
	require.NoError(t, err)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 400, cfg.Height)
	assert.Equal(t, 100, cfg.Width)
}

func TestDownscaleJPEG_SmallFramePassesThrough(t *testing.T) {
	data := encodeTestJPEG(t, 100, 80)

	out, err := DownscaleJPEG(data, 320)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestDownscaleJPEG_RejectsBadInput(t *testing.T) {
	_, err := DownscaleJPEG([]byte("not a jpeg"), 320)
	assert.Error(t, err)

	_, err = DownscaleJPEG(encodeTestJPEG(t, 10, 10), 0)
	assert.Error(t, err)
}
