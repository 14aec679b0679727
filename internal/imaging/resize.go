package imaging

import (
	"image"
	"image/color"
)

// ScaleImage implements scanner_util.scale_image: scale down (never up) by
// the smaller of the height and width factors needed to bring the image
// under its trip thresholds, reporting the scale factor applied (1 when no
// resize happened) so callers can un-scale coordinates found downstream.
func ScaleImage(img image.Image, scaledHeight, scaledWidth, tripHeight, tripWidth *int) (image.Image, float64) {
	b := img.Bounds()
	height, width := b.Dy(), b.Dx()

	getFactor := func(dim int, trip, scaled *int) float64 {
		factor := 1.0
		effectiveTrip := trip
		if effectiveTrip == nil {
			effectiveTrip = scaled
		}
		if effectiveTrip != nil && dim > *effectiveTrip && scaled != nil {
			factor = float64(*scaled) / float64(dim)
		}
		return factor
	}

	heightFactor := getFactor(height, tripHeight, scaledHeight)
	widthFactor := getFactor(width, tripWidth, scaledWidth)
	factor := minFloat(heightFactor, widthFactor)
	if factor == 1 {
		return img, 1
	}

	newHeight := int(float64(height) * factor)
	newWidth := int(float64(width) * factor)
	return ResizeArea(img, newWidth, newHeight), factor
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// ResizeArea resamples img to (w, h) using box/area averaging. Callers
// only ever downscale with it, which keeps the simple box filter accurate.
func ResizeArea(img image.Image, w, h int) *image.RGBA {
	src := toRGBA(img)
	sb := src.Bounds()
	sw, sh := sb.Dx(), sb.Dy()
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		sy0 := y * sh / h
		sy1 := (y + 1) * sh / h
		if sy1 <= sy0 {
			sy1 = sy0 + 1
		}
		for x := 0; x < w; x++ {
			sx0 := x * sw / w
			sx1 := (x + 1) * sw / w
			if sx1 <= sx0 {
				sx1 = sx0 + 1
			}

			var rs, gs, bs, as, n uint32
			for yy := sy0; yy < sy1 && yy < sh; yy++ {
				for xx := sx0; xx < sx1 && xx < sw; xx++ {
					r, g, bl, a := src.At(sb.Min.X+xx, sb.Min.Y+yy).RGBA()
					rs += r
					gs += g
					bs += bl
					as += a
					n++
				}
			}
			if n == 0 {
				n = 1
			}
			dst.Set(x, y, color.RGBA64{
				R: uint16(rs / n), G: uint16(gs / n), B: uint16(bs / n), A: uint16(as / n),
			})
		}
	}
	return dst
}

// Rotate90CW rotates img 90 degrees clockwise, used by the orient step
// to bring a portrait capture to landscape.
func Rotate90CW(img image.Image) *image.RGBA {
	src := toRGBA(img)
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.Set(h-1-y, x, src.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

// Rotate180 rotates img 180 degrees, used by the orient step once the QR code is found to sit in the wrong half.
func Rotate180(img image.Image) *image.RGBA {
	src := toRGBA(img)
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.Set(w-1-x, h-1-y, src.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(x, y, img.At(x, y))
		}
	}
	return dst
}
