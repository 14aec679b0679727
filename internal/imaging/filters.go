package imaging

import (
	"image"
	"image/color"
	"math"
)

// ToGray converts img to grayscale using the standard ITU-R BT.601 luma
// weights (0.299 R, 0.587 G, 0.114 B).
func ToGray(img image.Image) *image.Gray {
	b := img.Bounds()
	dst := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			// RGBA() returns 16-bit-scaled values; fold to 8-bit luma.
			lum := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(bl>>8)
			dst.SetGray(x, y, color.Gray{Y: clampByte(lum)})
		}
	}
	return dst
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// BrightnessFactor computes the per-pixel normalization factor
// `255 / max(B, 1)` from a reference "max brightness" image, matching
// get_brightness_factor's precomputation. It is evaluated once
// and cached on the scanning context (see internal/preprocess).
func BrightnessFactor(maxBrightness image.Image) [][]float64 {
	gray := ToGray(maxBrightness)
	b := gray.Bounds()
	factor := make([][]float64, b.Dy())
	for y := 0; y < b.Dy(); y++ {
		row := make([]float64, b.Dx())
		for x := 0; x < b.Dx(); x++ {
			v := float64(gray.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			if v < 1 {
				v = 1
			}
			row[x] = 255 / v
		}
		factor[y] = row
	}
	return factor
}

// ApplyBrightnessFactor maps each pixel `c -> clip(c*factor, 0, 255)` using
// a precomputed per-pixel factor grid sized to img.
func ApplyBrightnessFactor(img *image.Gray, factor [][]float64) *image.Gray {
	b := img.Bounds()
	dst := image.NewGray(b)
	for y := 0; y < b.Dy(); y++ {
		if y >= len(factor) {
			break
		}
		row := factor[y]
		for x := 0; x < b.Dx(); x++ {
			if x >= len(row) {
				break
			}
			v := float64(img.GrayAt(b.Min.X+x, b.Min.Y+y).Y) * row[x]
			dst.SetGray(x, y, color.Gray{Y: clampByte(v)})
		}
	}
	return dst
}

// ContrastStretch applies `p -> clip(k*p - 127.5*(k-1), 0, 255)`. k=1 is
// the identity, so img is returned unchanged for it.
func ContrastStretch(img image.Image, k float64) image.Image {
	if k == 1 {
		return img
	}
	shift := -127.5 * (k - 1)
	b := img.Bounds()
	dst := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			dst.Set(x, y, color.RGBA{
				R: clampByte(float64(r>>8)*k + shift),
				G: clampByte(float64(g>>8)*k + shift),
				B: clampByte(float64(bl>>8)*k + shift),
				A: uint8(a >> 8),
			})
		}
	}
	return dst
}

// Blur applies a size×size box blur ahead of Canny edge detection.
func Blur(img *image.Gray, size int) *image.Gray {
	if size <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewGray(b)
	half := size / 2
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var sum, n int
			for dy := -half; dy <= half; dy++ {
				for dx := -half; dx <= half; dx++ {
					xx, yy := x+dx, y+dy
					if xx < b.Min.X || xx >= b.Max.X || yy < b.Min.Y || yy >= b.Max.Y {
						continue
					}
					sum += int(img.GrayAt(xx, yy).Y)
					n++
				}
			}
			dst.SetGray(x, y, color.Gray{Y: uint8(sum / maxInt(n, 1))})
		}
	}
	return dst
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Undistort applies pinhole radial/tangential lens correction, resampling
// through the given camera matrix itself: no new camera matrix is computed,
// so the output keeps the input's size and does not widen to preserve every
// source pixel. cameraMatrix is [fx,0,cx, 0,fy,cy, 0,0,1] row-major; distCoeffs is
// [k1,k2,p1,p2,k3].
func Undistort(img image.Image, cameraMatrix [9]float64, distCoeffs [5]float64) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	fx, fy, cx, cy := cameraMatrix[0], cameraMatrix[4], cameraMatrix[2], cameraMatrix[5]
	k1, k2, p1, p2, k3 := distCoeffs[0], distCoeffs[1], distCoeffs[2], distCoeffs[3], distCoeffs[4]

	src := toRGBA(img)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// Undistorted (ideal) normalized coordinates.
			xn := (float64(x) - cx) / fx
			yn := (float64(y) - cy) / fy
			r2 := xn*xn + yn*yn
			radial := 1 + k1*r2 + k2*r2*r2 + k3*r2*r2*r2
			xd := xn*radial + 2*p1*xn*yn + p2*(r2+2*xn*xn)
			yd := yn*radial + p1*(r2+2*yn*yn) + 2*p2*xn*yn

			sx := xd*fx + cx
			sy := yd*fy + cy
			dst.Set(x, y, bilinearSample(src, sx, sy))
		}
	}
	return dst
}

func bilinearSample(img *image.RGBA, x, y float64) color.Color {
	b := img.Bounds()
	if x < float64(b.Min.X) || x >= float64(b.Max.X-1) || y < float64(b.Min.Y) || y >= float64(b.Max.Y-1) {
		if x < float64(b.Min.X) {
			x = float64(b.Min.X)
		}
		if y < float64(b.Min.Y) {
			y = float64(b.Min.Y)
		}
		if x > float64(b.Max.X-1) {
			x = float64(b.Max.X - 1)
		}
		if y > float64(b.Max.Y-1) {
			y = float64(b.Max.Y - 1)
		}
		return img.At(int(x), int(y))
	}

	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := x-x0, y-y0
	c00 := img.RGBAAt(int(x0), int(y0))
	c10 := img.RGBAAt(int(x0)+1, int(y0))
	c01 := img.RGBAAt(int(x0), int(y0)+1)
	c11 := img.RGBAAt(int(x0)+1, int(y0)+1)

	lerp := func(a, b, t float64) float64 { return a*(1-t) + b*t }
	r := lerp(lerp(float64(c00.R), float64(c10.R), fx), lerp(float64(c01.R), float64(c11.R), fx), fy)
	g := lerp(lerp(float64(c00.G), float64(c10.G), fx), lerp(float64(c01.G), float64(c11.G), fx), fy)
	bl := lerp(lerp(float64(c00.B), float64(c10.B), fx), lerp(float64(c01.B), float64(c11.B), fx), fy)
	a := lerp(lerp(float64(c00.A), float64(c10.A), fx), lerp(float64(c01.A), float64(c11.A), fx), fy)
	return color.RGBA{R: clampByte(r), G: clampByte(g), B: clampByte(bl), A: clampByte(a)}
}
