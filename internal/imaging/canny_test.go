package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func splitImage(w, h, edgeX int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(0)
			if x >= edgeX {
				v = 255
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func TestCannyDetectsSharpVerticalEdge(t *testing.T) {
	img := splitImage(20, 20, 10)
	edges := Canny(img, 50, 100)

	found := false
	for y := 2; y < 18; y++ {
		if edges.GrayAt(10, y).Y == 255 {
			found = true
			break
		}
	}
	assert.True(t, found, "expected an edge pixel near the step at x=10")
}

func TestCannyFlatImageProducesNoEdges(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			img.SetGray(x, y, color.Gray{Y: 128})
		}
	}
	edges := Canny(img, 50, 100)
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			assert.Equal(t, uint8(0), edges.GrayAt(x, y).Y)
		}
	}
}

func TestCannyOutputSameBounds(t *testing.T) {
	img := splitImage(15, 12, 7)
	edges := Canny(img, 50, 100)
	assert.Equal(t, img.Bounds(), edges.Bounds())
}
