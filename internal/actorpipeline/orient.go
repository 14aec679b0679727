package actorpipeline

import (
	"image"

	"github.com/scanarium/scanarium-go/internal/imaging"
)

// Orient rotates img so it ends up landscape with the QR code in the
// bottom-left quadrant: rotate 90 CW if the image is
// taller than wide, then rotate 180 if the QR center falls in the right
// half. qrRect is the QR bounding rect as found in the *un-rotated* image's
// coordinate space; redetect is called after the first rotation to locate
// the QR again in the new orientation; re-running detection is cheap
// relative to a coordinate-transform bug.
func Orient(img image.Image, qrRect imaging.Rect, redetect func(image.Image) (imaging.Rect, error)) (image.Image, imaging.Rect, error) {
	b := img.Bounds()
	rotated := img
	rect := qrRect
	if b.Dy() > b.Dx() {
		rotated = imaging.Rotate90CW(img)
		r, err := redetect(rotated)
		if err != nil {
			return nil, imaging.Rect{}, err
		}
		rect = r
	}

	rb := rotated.Bounds()
	if rect.CenterX() > float64(rb.Dx())/2 {
		rotated = imaging.Rotate180(rotated)
		r, err := redetect(rotated)
		if err != nil {
			return nil, imaging.Rect{}, err
		}
		rect = r
	}

	return rotated, rect, nil
}
