// Package rectify finds a convex quadrilateral in a prepared grayscale
// image and warps the full-resolution source to an upright rectangle.
// Plain quad-find and QR-parent-constrained quad-find share one entry
// point, selected via Options.
package rectify

import (
	"image"

	"github.com/scanarium/scanarium-go/internal/imaging"
	"github.com/scanarium/scanarium-go/internal/scanerr"
)

// Options configures one rectification attempt.
type Options struct {
	Contrasts []float64

	BlurSize               int
	CannyThreshold1        float64
	CannyThreshold2        float64

	// DecreasingArea selects the contour sort order: true picks the
	// largest acceptable quad (ordinary sheet rectification), false picks
	// the smallest (QR-parent rectification).
	DecreasingArea bool

	// RequiredPoints, in the same (scaled) coordinate space as the image
	// being searched, must all lie inside the accepted quad.
	RequiredPoints []imaging.Point

	CornerWindowHalf   int
	CornerMaxIterations int
	CornerAccuracy      float64
}

// Result is an accepted rectification candidate as FindQuad returns it: raw
// contour corners in the coordinate space of the searched image, neither
// refined nor un-scaled (Rectify does both afterwards).
type Result struct {
	Quad imaging.Quad
	Area float64
}

// FindQuad runs the blur/Canny/contour/approximation search against gray
// once per contrast value, returning the smallest- or largest-area
// accepted candidate across every contrast tried.
func FindQuad(gray *image.Gray, opts Options) (Result, error) {
	b := gray.Bounds()
	imageArea := float64(b.Dx() * b.Dy())
	minArea := imageArea / 25

	var best *Result
	for _, k := range opts.Contrasts {
		edges := gray
		if k != 1 {
			edges = imaging.ToGray(imaging.ContrastStretch(gray, k))
		}
		if opts.BlurSize > 1 {
			edges = imaging.Blur(edges, opts.BlurSize)
		}
		edges = imaging.Canny(edges, opts.CannyThreshold1, opts.CannyThreshold2)

		contours := imaging.FindContours(edges)
		imaging.SortByArea(contours, opts.DecreasingArea)

		for _, c := range contours {
			area := imaging.ContourArea(c)
			if area < minArea {
				continue
			}
			peri := imaging.ArcLength(c)
			approx := imaging.ApproxPolyDP(c, 0.02*peri)
			if len(approx) != 4 {
				continue
			}
			if !containsAllRequired(approx, opts.RequiredPoints) {
				continue
			}

			cand := Result{Quad: toQuad(approx), Area: area}
			if best == nil {
				best = &cand
				continue
			}
			if opts.DecreasingArea && cand.Area > best.Area {
				best = &cand
			}
			if !opts.DecreasingArea && cand.Area < best.Area {
				best = &cand
			}
		}
	}

	if best == nil {
		return Result{}, scanerr.New(scanerr.NoApprox,
			"no rectangle found matching the required points", nil)
	}
	return *best, nil
}

func toQuad(c imaging.Contour) imaging.Quad {
	var pts [4]imaging.Point
	copy(pts[:], c)
	return imaging.Quad(pts)
}

func containsAllRequired(poly imaging.Contour, required []imaging.Point) bool {
	for _, p := range required {
		if imaging.PointPolygonTest(poly, p) < 0 {
			return false
		}
	}
	return true
}

// SortQuad applies the two corner-sorting heuristics in order, accepting
// the first whose minimum pairwise corner distance exceeds 10% of the
// image's smaller dimension.
func SortQuad(raw [4]imaging.Point, imgWidth, imgHeight int) (imaging.Quad, error) {
	minDim := imgWidth
	if imgHeight < minDim {
		minDim = imgHeight
	}
	threshold := 0.10 * float64(minDim)

	axis := imaging.SortQuadAxisAligned(raw)
	if imaging.MinPairwiseDistance(axis) > threshold {
		return axis, nil
	}
	rotated := imaging.SortQuadRotated(raw)
	if imaging.MinPairwiseDistance(rotated) > threshold {
		return rotated, nil
	}
	return imaging.Quad{}, scanerr.New(scanerr.NoApprox,
		"could not sort rectangle corners unambiguously", nil)
}

// Rectify finds, refines, sorts and warps a quadrilateral out of original
// (unscaled, full-resolution) img using preparedGray (the scaled grayscale
// image the quad search runs against, stretched per contrast value inside
// FindQuad) and the scale factor relating the two coordinate spaces.
// Corner refinement happens after un-scaling, against the full-resolution
// image.
func Rectify(img image.Image, preparedGray *image.Gray, scaleFactor float64, opts Options) (*image.RGBA, imaging.Quad, error) {
	found, err := FindQuad(preparedGray, opts)
	if err != nil {
		return nil, imaging.Quad{}, err
	}

	// Un-scale first, then refine sub-pixel against the *original* image,
	// per the consolidated design's resolution of the refine-order open
	// question.
	var unscaled [4]imaging.Point
	for i, p := range found.Quad {
		unscaled[i] = imaging.ScalePoint(p, scaleFactor)
	}

	origGray := imaging.ToGray(img)
	refined := imaging.CornerSubPix(origGray, imaging.Quad(unscaled), opts.CornerWindowHalf, opts.CornerMaxIterations, opts.CornerAccuracy)

	b := img.Bounds()
	sorted, err := SortQuad(refined, b.Dx(), b.Dy())
	if err != nil {
		return nil, imaging.Quad{}, err
	}

	dw, dh := imaging.DestinationSize(sorted)
	dst := imaging.Quad{
		{X: 0, Y: 0}, {X: float64(dw - 1), Y: 0}, {X: float64(dw - 1), Y: float64(dh - 1)}, {X: 0, Y: float64(dh - 1)},
	}
	h := imaging.PerspectiveTransform(sorted, dst)
	warped := imaging.WarpPerspective(img, h, dw, dh)

	return warped, sorted, nil
}

// QRParentRequiredPoints computes the four inset required points around a
// QR bounding rect at factor 0.30 (inset 0.25 + 0.05 wiggle), ensuring they
// stay inside the QR region even under 45-degree rotation.
func QRParentRequiredPoints(rect imaging.Rect) []imaging.Point {
	const insetFactor = 0.30
	insetX := insetFactor * float64(rect.Width)
	insetY := insetFactor * float64(rect.Height)
	left := float64(rect.Left)
	top := float64(rect.Top)
	right := left + float64(rect.Width)
	bottom := top + float64(rect.Height)

	return []imaging.Point{
		{X: left + insetX, Y: top + insetY},
		{X: right - insetX, Y: top + insetY},
		{X: right - insetX, Y: bottom - insetY},
		{X: left + insetX, Y: bottom - insetY},
	}
}
