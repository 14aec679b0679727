package imaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	assert.InDelta(t, 5.0, Distance(Point{0, 0}, Point{3, 4}), 1e-9)
}

func TestRectCenter(t *testing.T) {
	r := Rect{Left: 10, Top: 20, Width: 30, Height: 40}
	assert.InDelta(t, 25, r.CenterX(), 1e-9)
	assert.InDelta(t, 40, r.CenterY(), 1e-9)
}

func TestScalePoint(t *testing.T) {
	p := ScalePoint(Point{X: 100, Y: 50}, 0.5)
	assert.InDelta(t, 200, p.X, 1e-9)
	assert.InDelta(t, 100, p.Y, 1e-9)
}
