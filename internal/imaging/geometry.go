// Package imaging implements the pixel-level primitives the scan pipeline
// needs (scaling, contrast/brightness, Canny edge detection, contour
// tracing, polygon approximation, perspective warp, white balance), built
// directly on image/draw and golang.org/x/image so the pipeline carries no
// cgo computer-vision binding.
package imaging

import "math"

// Point is a 2D point in pixel space, float-valued so sub-pixel corner
// refinement can be represented without a second type.
type Point struct {
	X, Y float64
}

// Distance is the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return math.Hypot(dx, dy)
}

// Rect is a (left, top, width, height) rectangle in source-image pixel
// coordinates.
type Rect struct {
	Left, Top, Width, Height int
}

// CenterX/CenterY give the rect's center, used by the orientation step
// to decide which half of the image the QR code sits in.
func (r Rect) CenterX() float64 { return float64(r.Left) + float64(r.Width)/2 }
func (r Rect) CenterY() float64 { return float64(r.Top) + float64(r.Height)/2 }

// Quad is four corner points, ordered TL, TR, BR, BL once Sort has run.
type Quad [4]Point

// ScalePoint scales p by the inverse of factor, translating a coordinate
// found in the scaled/prepared image back to source-image space.
func ScalePoint(p Point, factor float64) Point {
	return Point{X: p.X / factor, Y: p.Y / factor}
}
