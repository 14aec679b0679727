package actorpipeline

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanarium/scanarium-go/internal/imaging"
)

func solidImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}
	return img
}

func TestOrientLandscapeQRAlreadyBottomLeftNoRotation(t *testing.T) {
	img := solidImage(200, 100)
	qrRect := imaging.Rect{Left: 0, Top: 80, Width: 20, Height: 20}

	calls := 0
	redetect := func(image.Image) (imaging.Rect, error) {
		calls++
		return imaging.Rect{}, nil
	}

	out, rect, err := Orient(img, qrRect, redetect)
	require.NoError(t, err)
	assert.Equal(t, 0, calls)
	assert.Equal(t, 200, out.Bounds().Dx())
	assert.Equal(t, 100, out.Bounds().Dy())
	assert.Equal(t, qrRect, rect)
}

func TestOrientPortraitRotatesToLandscape(t *testing.T) {
	img := solidImage(100, 200)
	initialQR := imaging.Rect{Left: 40, Top: 0, Width: 20, Height: 20}
	// After rotating 90deg CW, the redetector reports the QR in the new
	// (landscape) frame's left half, so no further 180-rotation is needed.
	redetect := func(rotated image.Image) (imaging.Rect, error) {
		b := rotated.Bounds()
		assert.Equal(t, 200, b.Dx())
		assert.Equal(t, 100, b.Dy())
		return imaging.Rect{Left: 0, Top: 0, Width: 20, Height: 20}, nil
	}

	out, rect, err := Orient(img, initialQR, redetect)
	require.NoError(t, err)
	assert.Equal(t, 200, out.Bounds().Dx())
	assert.Equal(t, 100, out.Bounds().Dy())
	assert.Equal(t, 0, rect.Left)
}

func TestOrientRightHalfQRTriggers180(t *testing.T) {
	img := solidImage(200, 100)
	qrRect := imaging.Rect{Left: 150, Top: 10, Width: 20, Height: 20}

	calls := 0
	redetect := func(image.Image) (imaging.Rect, error) {
		calls++
		return imaging.Rect{Left: 30, Top: 70, Width: 20, Height: 20}, nil
	}

	out, rect, err := Orient(img, qrRect, redetect)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 200, out.Bounds().Dx())
	assert.Equal(t, 100, out.Bounds().Dy())
	assert.Equal(t, 30, rect.Left)
}

func TestOrientPropagatesRedetectError(t *testing.T) {
	img := solidImage(100, 200)
	redetect := func(image.Image) (imaging.Rect, error) {
		return imaging.Rect{}, assert.AnError
	}
	_, _, err := Orient(img, imaging.Rect{}, redetect)
	require.Error(t, err)
}
