package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortQuadAxisAlignedOrdersCorners(t *testing.T) {
	// TL, TR, BR, BL fed in shuffled order.
	pts := [4]Point{
		{X: 100, Y: 0},  // TR
		{X: 0, Y: 0},    // TL
		{X: 100, Y: 100}, // BR
		{X: 0, Y: 100},  // BL
	}
	q := SortQuadAxisAligned(pts)
	assert.Equal(t, Point{X: 0, Y: 0}, q[0])
	assert.Equal(t, Point{X: 100, Y: 0}, q[1])
	assert.Equal(t, Point{X: 100, Y: 100}, q[2])
	assert.Equal(t, Point{X: 0, Y: 100}, q[3])
}

func TestSortQuadAxisAlignedInvariantTLSmallestBRBiggest(t *testing.T) {
	pts := [4]Point{{X: 50, Y: 0}, {X: 0, Y: 50}, {X: 100, Y: 50}, {X: 50, Y: 100}}
	q := SortQuadAxisAligned(pts)
	sum := func(p Point) float64 { return p.X + p.Y }
	for _, p := range q {
		assert.GreaterOrEqual(t, sum(p), sum(q[0]))
		assert.LessOrEqual(t, sum(p), sum(q[2]))
	}
}

func TestMinPairwiseDistanceOfDegenerateQuadIsSmall(t *testing.T) {
	q := Quad{{X: 0, Y: 0}, {X: 0.1, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}
	assert.Less(t, MinPairwiseDistance(q), 1.0)
}

func TestMinPairwiseDistanceOfSquare(t *testing.T) {
	q := Quad{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}
	assert.InDelta(t, 100, MinPairwiseDistance(q), 1e-9)
}

func TestDestinationSizeOfSquare(t *testing.T) {
	q := Quad{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}
	w, h := DestinationSize(q)
	assert.Equal(t, 100, w)
	assert.Equal(t, 100, h)
}

func TestPerspectiveTransformIdentityPreservesPoints(t *testing.T) {
	src := Quad{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}
	h := PerspectiveTransform(src, src)
	for _, p := range src {
		got := h.apply(p)
		assert.InDelta(t, p.X, got.X, 1e-6)
		assert.InDelta(t, p.Y, got.Y, 1e-6)
	}
}

func TestPerspectiveTransformMapsSourceCornersToDestCorners(t *testing.T) {
	src := Quad{{X: 10, Y: 10}, {X: 110, Y: 20}, {X: 120, Y: 120}, {X: 5, Y: 100}}
	dst := Quad{{X: 0, Y: 0}, {X: 99, Y: 0}, {X: 99, Y: 99}, {X: 0, Y: 99}}
	h := PerspectiveTransform(src, dst)
	for i, p := range src {
		got := h.apply(p)
		assert.InDelta(t, dst[i].X, got.X, 1e-6)
		assert.InDelta(t, dst[i].Y, got.Y, 1e-6)
	}
}

func TestWarpPerspectiveProducesRequestedSize(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 50, 50))
	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			src.Set(x, y, color.RGBA{R: uint8(x * 5), G: uint8(y * 5), B: 0, A: 255})
		}
	}
	quad := Quad{{X: 0, Y: 0}, {X: 49, Y: 0}, {X: 49, Y: 49}, {X: 0, Y: 49}}
	dst := Quad{{X: 0, Y: 0}, {X: 19, Y: 0}, {X: 19, Y: 19}, {X: 0, Y: 19}}
	h := PerspectiveTransform(quad, dst)
	warped := WarpPerspective(src, h, 20, 20)
	assert.Equal(t, 20, warped.Bounds().Dx())
	assert.Equal(t, 20, warped.Bounds().Dy())
}

func TestWhiteBalanceGrayworldEvensChannelMeans(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	out := WhiteBalanceGrayworld(img)
	c := out.At(0, 0).(color.RGBA)
	// Gray mean is (200+100+50)/3; each channel should move toward it.
	assert.NotEqual(t, uint8(200), c.R)
}

func TestWhiteBalanceSimpleStretchesFlatImageToItself(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 128, G: 128, B: 128, A: 255})
		}
	}
	out := WhiteBalanceSimple(img, 1)
	c := out.At(0, 0).(color.RGBA)
	assert.Equal(t, uint8(128), c.R)
}
