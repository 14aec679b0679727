package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drawRectOutline(size, x0, y0, w, h int) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, size, size))
	white := color.Gray{Y: 255}
	for x := x0; x < x0+w; x++ {
		g.SetGray(x, y0, white)
		g.SetGray(x, y0+h-1, white)
	}
	for y := y0; y < y0+h; y++ {
		g.SetGray(x0, y, white)
		g.SetGray(x0+w-1, y, white)
	}
	return g
}

func TestContourAreaOfSquare(t *testing.T) {
	c := Contour{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	assert.InDelta(t, 100, ContourArea(c), 1e-6)
}

func TestContourAreaDegenerate(t *testing.T) {
	assert.Equal(t, 0.0, ContourArea(Contour{{X: 0, Y: 0}, {X: 1, Y: 1}}))
}

func TestArcLengthOfSquare(t *testing.T) {
	c := Contour{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	assert.InDelta(t, 40, ArcLength(c), 1e-6)
}

func TestSortByAreaDecreasing(t *testing.T) {
	small := Contour{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	big := Contour{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	contours := []Contour{small, big}
	SortByArea(contours, true)
	assert.Equal(t, big, contours[0])
	assert.Equal(t, small, contours[1])
}

func TestSortByAreaIncreasing(t *testing.T) {
	small := Contour{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	big := Contour{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	contours := []Contour{big, small}
	SortByArea(contours, false)
	assert.Equal(t, small, contours[0])
	assert.Equal(t, big, contours[1])
}

func TestApproxPolyDPSimplifiesSquare(t *testing.T) {
	var c Contour
	for x := 0; x <= 10; x++ {
		c = append(c, Point{X: float64(x), Y: 0})
	}
	for y := 1; y <= 10; y++ {
		c = append(c, Point{X: 10, Y: float64(y)})
	}
	for x := 9; x >= 0; x-- {
		c = append(c, Point{X: float64(x), Y: 10})
	}
	for y := 9; y >= 1; y-- {
		c = append(c, Point{X: 0, Y: float64(y)})
	}
	approx := ApproxPolyDP(c, 0.02*ArcLength(c))
	assert.LessOrEqual(t, len(approx), 6)
	assert.GreaterOrEqual(t, len(approx), 4)
}

func TestPointPolygonTestInsideOutside(t *testing.T) {
	square := Contour{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	assert.Greater(t, PointPolygonTest(square, Point{X: 5, Y: 5}), 0.0)
	assert.Less(t, PointPolygonTest(square, Point{X: 20, Y: 20}), 0.0)
}

func TestPointPolygonTestOnBoundaryIsZero(t *testing.T) {
	square := Contour{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	assert.Equal(t, 0.0, PointPolygonTest(square, Point{X: 5, Y: 0}))
}

func TestFindContoursTracesRectOutline(t *testing.T) {
	edges := drawRectOutline(30, 5, 5, 10, 10)
	contours := FindContours(edges)
	require.NotEmpty(t, contours)

	found := false
	for _, c := range contours {
		area := ContourArea(c)
		if area > 50 {
			found = true
		}
	}
	assert.True(t, found)
}
