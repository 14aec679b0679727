package imaging

import (
	"image"
	"image/color"
	"math"
)

// Canny implements the Canny edge detector (Sobel gradients, non-maximum
// suppression, hysteresis thresholding) used ahead of contour finding.
// Output is a binary (0/255) edge map.
func Canny(img *image.Gray, threshold1, threshold2 float64) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	gx := make([]float64, w*h)
	gy := make([]float64, w*h)
	mag := make([]float64, w*h)
	dir := make([]float64, w*h)

	at := func(x, y int) float64 {
		if x < 0 {
			x = 0
		}
		if x >= w {
			x = w - 1
		}
		if y < 0 {
			y = 0
		}
		if y >= h {
			y = h - 1
		}
		return float64(img.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx := -at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1) +
				at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1)
			sy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			idx := y*w + x
			gx[idx] = sx
			gy[idx] = sy
			mag[idx] = math.Hypot(sx, sy)
			dir[idx] = math.Atan2(sy, sx)
		}
	}

	suppressed := make([]float64, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			idx := y*w + x
			angle := dir[idx]*180/math.Pi + 180
			angle = math.Mod(angle, 180)

			var n1, n2 float64
			switch {
			case angle < 22.5 || angle >= 157.5:
				n1, n2 = mag[idx-1], mag[idx+1]
			case angle < 67.5:
				n1, n2 = mag[idx-w+1], mag[idx+w-1]
			case angle < 112.5:
				n1, n2 = mag[idx-w], mag[idx+w]
			default:
				n1, n2 = mag[idx-w-1], mag[idx+w+1]
			}
			if mag[idx] >= n1 && mag[idx] >= n2 {
				suppressed[idx] = mag[idx]
			}
		}
	}

	const (
		strong = 2
		weak   = 1
	)
	state := make([]uint8, w*h)
	for i, v := range suppressed {
		switch {
		case v >= threshold2:
			state[i] = strong
		case v >= threshold1:
			state[i] = weak
		}
	}

	// Hysteresis: any weak pixel 8-connected to a strong pixel is promoted.
	changed := true
	for changed {
		changed = false
		for y := 1; y < h-1; y++ {
			for x := 1; x < w-1; x++ {
				idx := y*w + x
				if state[idx] != weak {
					continue
				}
				if hasStrongNeighbor(state, w, x, y) {
					state[idx] = strong
					changed = true
				}
			}
		}
	}

	dst := image.NewGray(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(0)
			if state[y*w+x] == strong {
				v = 255
			}
			dst.SetGray(b.Min.X+x, b.Min.Y+y, color.Gray{Y: v})
		}
	}
	return dst
}

func hasStrongNeighbor(state []uint8, w, x, y int) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if state[(y+dy)*w+(x+dx)] == 2 {
				return true
			}
		}
	}
	return false
}
