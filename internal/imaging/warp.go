package imaging

import (
	"image"
	"image/color"
	"math"
)

// homography is a 3x3 projective transform matrix, row-major.
type homography [9]float64

// PerspectiveTransform solves the 3x3 homography mapping src[i] -> dst[i]
// for four point correspondences.
func PerspectiveTransform(src, dst Quad) homography {
	// Build and solve the 8x8 linear system for the homography coefficients
	// a..h (with i normalized to 1), the standard four-point-correspondence
	// derivation used by every perspective-warp implementation.
	var a [8][9]float64
	for i := 0; i < 4; i++ {
		sx, sy := src[i].X, src[i].Y
		dx, dy := dst[i].X, dst[i].Y
		a[2*i] = [9]float64{sx, sy, 1, 0, 0, 0, -dx * sx, -dx * sy, dx}
		a[2*i+1] = [9]float64{0, 0, 0, sx, sy, 1, -dy * sx, -dy * sy, dy}
	}
	coeffs := solveLinear8(a)
	return homography{coeffs[0], coeffs[1], coeffs[2], coeffs[3], coeffs[4], coeffs[5], coeffs[6], coeffs[7], 1}
}

// solveLinear8 performs Gaussian elimination with partial pivoting on an
// 8x9 augmented matrix, returning the 8 unknowns.
func solveLinear8(a [8][9]float64) [8]float64 {
	const n = 8
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		a[col], a[pivot] = a[pivot], a[col]
		pv := a[col][col]
		if math.Abs(pv) < 1e-12 {
			continue
		}
		for k := col; k <= n; k++ {
			a[col][k] /= pv
		}
		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			factor := a[r][col]
			for k := col; k <= n; k++ {
				a[r][k] -= factor * a[col][k]
			}
		}
	}
	var x [8]float64
	for i := 0; i < n; i++ {
		x[i] = a[i][n]
	}
	return x
}

// apply maps a source point through the homography.
func (h homography) apply(p Point) Point {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	if w == 0 {
		w = 1
	}
	return Point{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}
}

// invert computes the inverse of a 3x3 homography via the adjugate matrix.
func (h homography) invert() homography {
	a, b, c := h[0], h[1], h[2]
	d, e, f := h[3], h[4], h[5]
	g, i, j := h[6], h[7], h[8]

	det := a*(e*j-f*i) - b*(d*j-f*g) + c*(d*i-e*g)
	if det == 0 {
		return h
	}
	inv := 1 / det
	return homography{
		(e*j - f*i) * inv, (c*i - b*j) * inv, (b*f - c*e) * inv,
		(f*g - d*j) * inv, (a*j - c*g) * inv, (c*d - a*f) * inv,
		(d*i - e*g) * inv, (b*g - a*i) * inv, (a*e - b*d) * inv,
	}
}

// WarpPerspective maps src into a dstWidth x dstHeight image via the
// inverse of h, so every destination pixel has a defined source sample.
func WarpPerspective(src image.Image, h homography, dstWidth, dstHeight int) *image.RGBA {
	inv := h.invert()
	rgba := toRGBA(src)
	dst := image.NewRGBA(image.Rect(0, 0, dstWidth, dstHeight))
	for y := 0; y < dstHeight; y++ {
		for x := 0; x < dstWidth; x++ {
			sp := inv.apply(Point{X: float64(x), Y: float64(y)})
			dst.Set(x, y, bilinearSample(rgba, sp.X, sp.Y))
		}
	}
	return dst
}

// DestinationSize computes the target rectangle for a warp from a sorted
// quad, using the larger of the two opposing edge lengths per axis, the
// usual "max of both estimates" heuristic used ahead of warpPerspective.
func DestinationSize(q Quad) (int, int) {
	topW := Distance(q[0], q[1])
	botW := Distance(q[3], q[2])
	leftH := Distance(q[0], q[3])
	rightH := Distance(q[1], q[2])
	w := int(math.Max(topW, botW))
	h := int(math.Max(leftH, rightH))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// CornerSubPix refines each point in corners to sub-pixel accuracy within a
// (2*winHalf+1) window by iteratively solving for the position whose
// gradient field is orthogonal to every sampled offset. gray is the
// (unscaled) source image the corners were found in.
func CornerSubPix(gray *image.Gray, corners Quad, winHalf, maxIterations int, epsilon float64) Quad {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()

	grad := func(x, y int) (float64, float64) {
		clampX := func(v int) int {
			if v < 0 {
				return 0
			}
			if v >= w {
				return w - 1
			}
			return v
		}
		clampY := func(v int) int {
			if v < 0 {
				return 0
			}
			if v >= h {
				return h - 1
			}
			return v
		}
		gx := float64(gray.GrayAt(b.Min.X+clampX(x+1), b.Min.Y+clampY(y)).Y) -
			float64(gray.GrayAt(b.Min.X+clampX(x-1), b.Min.Y+clampY(y)).Y)
		gy := float64(gray.GrayAt(b.Min.X+clampX(x), b.Min.Y+clampY(y+1)).Y) -
			float64(gray.GrayAt(b.Min.X+clampX(x), b.Min.Y+clampY(y-1)).Y)
		return gx / 2, gy / 2
	}

	var refined Quad
	for ci, p := range corners {
		cur := p
		for iter := 0; iter < maxIterations; iter++ {
			var sxx, sxy, syy, sxb, syb float64
			cx, cy := int(math.Round(cur.X)), int(math.Round(cur.Y))
			for dy := -winHalf; dy <= winHalf; dy++ {
				for dx := -winHalf; dx <= winHalf; dx++ {
					gx, gy := grad(cx+dx, cy+dy)
					if gx == 0 && gy == 0 {
						continue
					}
					qx, qy := float64(cx+dx), float64(cy+dy)
					sxx += gx * gx
					sxy += gx * gy
					syy += gy * gy
					sxb += gx*gx*qx + gx*gy*qy
					syb += gx*gy*qx + gy*gy*qy
				}
			}
			det := sxx*syy - sxy*sxy
			if math.Abs(det) < 1e-9 {
				break
			}
			nx := (syy*sxb - sxy*syb) / det
			ny := (sxx*syb - sxy*sxb) / det
			if math.Hypot(nx-cur.X, ny-cur.Y) < epsilon {
				cur = Point{X: nx, Y: ny}
				break
			}
			cur = Point{X: nx, Y: ny}
		}
		refined[ci] = cur
	}
	return refined
}

// SortQuadAxisAligned orders four corner points TL, TR, BR, BL using the
// sum/diff heuristic (top-left has the smallest x+y, bottom-right the
// largest; top-right has the smallest y-x, bottom-left the largest), the
// first of the two corner-sorting heuristics rectification tries.
func SortQuadAxisAligned(pts [4]Point) Quad {
	sum := func(p Point) float64 { return p.X + p.Y }
	diff := func(p Point) float64 { return p.Y - p.X }

	var q Quad
	minSum, maxSum := 0, 0
	minDiff, maxDiff := 0, 0
	for i, p := range pts {
		if sum(p) < sum(pts[minSum]) {
			minSum = i
		}
		if sum(p) > sum(pts[maxSum]) {
			maxSum = i
		}
		if diff(p) < diff(pts[minDiff]) {
			minDiff = i
		}
		if diff(p) > diff(pts[maxDiff]) {
			maxDiff = i
		}
	}
	q[0] = pts[minSum]
	q[2] = pts[maxSum]
	q[1] = pts[minDiff]
	q[3] = pts[maxDiff]
	return q
}

// SortQuadRotated applies the 45-degree-rotated y-sort heuristic: rotate
// every point by -45 degrees, then use rank-by-y (and by-x as a tiebreak
// within each half) to recover TL/TR/BR/BL. This is the fallback for when
// the axis-aligned sort produces corners that are too close together.
func SortQuadRotated(pts [4]Point) Quad {
	type rotated struct {
		orig    Point
		rx, ry  float64
	}
	rs := make([]rotated, 4)
	const a = math.Pi / 4
	cosA, sinA := math.Cos(a), math.Sin(a)
	for i, p := range pts {
		rs[i] = rotated{
			orig: p,
			rx:   p.X*cosA - p.Y*sinA,
			ry:   p.X*sinA + p.Y*cosA,
		}
	}
	// Sort by rotated-y ascending; the two smallest are the "top" pair, the
	// two largest the "bottom" pair. Within each pair, smaller rotated-x is
	// left.
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			if rs[j].ry < rs[i].ry {
				rs[i], rs[j] = rs[j], rs[i]
			}
		}
	}
	top := rs[:2]
	bot := rs[2:]
	if top[0].rx > top[1].rx {
		top[0], top[1] = top[1], top[0]
	}
	if bot[0].rx > bot[1].rx {
		bot[0], bot[1] = bot[1], bot[0]
	}
	return Quad{top[0].orig, top[1].orig, bot[1].orig, bot[0].orig}
}

// MinPairwiseDistance returns the smallest distance between any two
// distinct corners of q, used to reject a corner sort whose points are
// degenerately close together.
func MinPairwiseDistance(q Quad) float64 {
	min := math.Inf(1)
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			if d := Distance(q[i], q[j]); d < min {
				min = d
			}
		}
	}
	return min
}

// WhiteBalanceSimple stretches each channel independently to the full
// 0-255 range after clipping the given percentile of outliers at each end,
// matching the "simple" white-balance algorithm.
func WhiteBalanceSimple(img image.Image, percent float64) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	n := w * h
	if n == 0 {
		return img
	}

	var rs, gs, bs [256]int
	src := toRGBA(img)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := src.RGBAAt(b.Min.X+x, b.Min.Y+y)
			rs[c.R]++
			gs[c.G]++
			bs[c.B]++
		}
	}

	loR, hiR := percentileBounds(rs[:], n, percent)
	loG, hiG := percentileBounds(gs[:], n, percent)
	loB, hiB := percentileBounds(bs[:], n, percent)

	stretch := func(v, lo, hi uint8) uint8 {
		if hi <= lo {
			return v
		}
		f := (float64(v) - float64(lo)) / (float64(hi) - float64(lo)) * 255
		return clampByte(f)
	}

	dst := image.NewRGBA(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := src.RGBAAt(b.Min.X+x, b.Min.Y+y)
			dst.Set(b.Min.X+x, b.Min.Y+y, color.RGBA{
				R: stretch(c.R, loR, hiR),
				G: stretch(c.G, loG, hiG),
				B: stretch(c.B, loB, hiB),
				A: c.A,
			})
		}
	}
	return dst
}

func percentileBounds(hist []int, total int, percent float64) (uint8, uint8) {
	clip := int(float64(total) * percent / 100)
	lo, cum := 0, 0
	for lo = 0; lo < 255; lo++ {
		cum += hist[lo]
		if cum > clip {
			break
		}
	}
	hi, cum2 := 255, 0
	for hi = 255; hi > 0; hi-- {
		cum2 += hist[hi]
		if cum2 > clip {
			break
		}
	}
	return uint8(lo), uint8(hi)
}

// WhiteBalanceGrayworld scales each channel so its mean matches the overall
// gray mean, matching the "grayworld" white-balance algorithm.
func WhiteBalanceGrayworld(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	n := float64(w * h)
	if n == 0 {
		return img
	}

	src := toRGBA(img)
	var rSum, gSum, bSum float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := src.RGBAAt(b.Min.X+x, b.Min.Y+y)
			rSum += float64(c.R)
			gSum += float64(c.G)
			bSum += float64(c.B)
		}
	}
	rMean, gMean, bMean := rSum/n, gSum/n, bSum/n
	gray := (rMean + gMean + bMean) / 3
	rGain := gray / math.Max(rMean, 1)
	gGain := gray / math.Max(gMean, 1)
	bGain := gray / math.Max(bMean, 1)

	dst := image.NewRGBA(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := src.RGBAAt(b.Min.X+x, b.Min.Y+y)
			dst.Set(b.Min.X+x, b.Min.Y+y, color.RGBA{
				R: clampByte(float64(c.R) * rGain),
				G: clampByte(float64(c.G) * gGain),
				B: clampByte(float64(c.B) * bGain),
				A: c.A,
			})
		}
	}
	return dst
}
