package rectify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanarium/scanarium-go/internal/imaging"
	"github.com/scanarium/scanarium-go/internal/scanerr"
)

func TestSortQuadAxisAlignedPath(t *testing.T) {
	raw := [4]imaging.Point{
		{X: 100, Y: 0}, {X: 0, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100},
	}
	q, err := SortQuad(raw, 100, 100)
	require.NoError(t, err)
	assert.Equal(t, imaging.Point{X: 0, Y: 0}, q[0])
	assert.Equal(t, imaging.Point{X: 100, Y: 100}, q[2])
}

func TestSortQuadDegenerateFailsBothHeuristics(t *testing.T) {
	raw := [4]imaging.Point{
		{X: 0, Y: 0}, {X: 0.01, Y: 0}, {X: 0.02, Y: 0}, {X: 0.03, Y: 0},
	}
	_, err := SortQuad(raw, 100, 100)
	require.Error(t, err)
	assert.True(t, scanerr.As(err, scanerr.NoApprox))
}

func TestQRParentRequiredPointsInsetFromEachSide(t *testing.T) {
	rect := imaging.Rect{Left: 100, Top: 200, Width: 40, Height: 20}
	pts := QRParentRequiredPoints(rect)
	require.Len(t, pts, 4)
	for _, p := range pts {
		assert.Greater(t, p.X, float64(rect.Left))
		assert.Less(t, p.X, float64(rect.Left+rect.Width))
		assert.Greater(t, p.Y, float64(rect.Top))
		assert.Less(t, p.Y, float64(rect.Top+rect.Height))
	}
}

func TestQRParentRequiredPointsAreSymmetric(t *testing.T) {
	rect := imaging.Rect{Left: 0, Top: 0, Width: 100, Height: 100}
	pts := QRParentRequiredPoints(rect)
	// TL and BR should be symmetric about the rect's center.
	center := imaging.Point{X: 50, Y: 50}
	assert.InDelta(t, center.X, (pts[0].X+pts[2].X)/2, 1e-9)
	assert.InDelta(t, center.Y, (pts[0].Y+pts[2].Y)/2, 1e-9)
}
