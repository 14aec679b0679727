package qrscan

import (
	"image"
	"strconv"
	"strings"

	"github.com/makiuchi-d/gozxing"
	multiqrcode "github.com/makiuchi-d/gozxing/multi/qrcode"

	"github.com/scanarium/scanarium-go/internal/imaging"
	"github.com/scanarium/scanarium-go/internal/scanerr"
)

// Detection is a successfully decoded QR code: its raw text and its
// bounding rect in the coordinate space of the image it was decoded from
// (scaled space; callers un-scale via imaging.ScalePoint before use).
type Detection struct {
	Text string
	Rect imaging.Rect
}

var multiReader = multiqrcode.NewQRCodeMultiReader()

// ParseContrasts parses the comma-separated scan.contrasts configuration
// value into a slice of contrast factors to try in order.
func ParseContrasts(raw string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, scanerr.New(scanerr.ConfigValue,
				"scan.contrasts entry {value} is not a number", map[string]any{"value": part})
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		out = []float64{1}
	}
	return out, nil
}

// Detect tries each contrast value in order against gray, returning the
// first contrast's result set once it yields at least one decode. Exactly
// one decoded symbol is required: zero decodes across every contrast is
// NoQrCode, and more than one decode at the winning contrast is
// TooManyQrCodes.
func Detect(gray *image.Gray, contrasts []float64) (Detection, error) {
	for _, k := range contrasts {
		var stretched image.Image = gray
		if k != 1 {
			stretched = imaging.ContrastStretch(gray, k)
		}
		results, err := decode(stretched)
		if err != nil {
			continue
		}
		switch len(results) {
		case 0:
			continue
		case 1:
			return results[0], nil
		default:
			return Detection{}, scanerr.New(scanerr.TooManyQrCodes,
				"found {count} QR codes, expected exactly one", map[string]any{"count": len(results)})
		}
	}
	return Detection{}, scanerr.New(scanerr.NoQrCode, "no QR code found", nil)
}

func decode(img image.Image) ([]Detection, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, err
	}
	results, err := multiReader.DecodeMultiple(bmp, nil)
	if err != nil || len(results) == 0 {
		return nil, err
	}

	out := make([]Detection, 0, len(results))
	for _, r := range results {
		out = append(out, Detection{
			Text: r.GetText(),
			Rect: rectFromPoints(r.GetResultPoints()),
		})
	}
	return out, nil
}

func rectFromPoints(points []gozxing.ResultPoint) imaging.Rect {
	if len(points) == 0 {
		return imaging.Rect{}
	}
	minX, minY := points[0].GetX(), points[0].GetY()
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		if p.GetX() < minX {
			minX = p.GetX()
		}
		if p.GetX() > maxX {
			maxX = p.GetX()
		}
		if p.GetY() < minY {
			minY = p.GetY()
		}
		if p.GetY() > maxY {
			maxY = p.GetY()
		}
	}
	return imaging.Rect{
		Left:   int(minX),
		Top:    int(minY),
		Width:  int(maxX - minX),
		Height: int(maxY - minY),
	}
}

// UnscaleRect maps a rect found in scaled coordinates back to source-image
// coordinates by dividing every component by the scan's scale factor.
func UnscaleRect(r imaging.Rect, scaleFactor float64) imaging.Rect {
	if scaleFactor == 0 {
		scaleFactor = 1
	}
	return imaging.Rect{
		Left:   int(float64(r.Left) / scaleFactor),
		Top:    int(float64(r.Top) / scaleFactor),
		Width:  int(float64(r.Width) / scaleFactor),
		Height: int(float64(r.Height) / scaleFactor),
	}
}
