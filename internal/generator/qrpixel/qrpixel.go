// Package qrpixel expands `<rect qr-pixel="...">` placeholders into the SVG
// path data that draws a QR code's modules. It hand-builds path data
// instead of relying on go-qrcode's own SVG export, which draws one <rect>
// per module rather than one merged path and cannot position its output at
// an arbitrary origin and unit size.
package qrpixel

import (
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

// Bitmap returns the raw true/false module grid for payload at error
// correction level L, module size 1, border 0: the wire format printed
// sheets carry.
func Bitmap(payload string) ([][]bool, error) {
	qr, err := qrcode.New(payload, qrcode.Low)
	if err != nil {
		return nil, err
	}
	qr.DisableBorder = true
	return qr.Bitmap(), nil
}

// PathData builds the `d` attribute of a <path> drawing every dark module
// of payload's QR code as a filled sub-rectangle, positioned at
// (x+i*u, y-(H-j-1)*v) given the placeholder rect's own x, y, width and
// height as origin and unit size.
func PathData(payload string, x, y, width, height float64) (string, error) {
	bitmap, err := Bitmap(payload)
	if err != nil {
		return "", err
	}
	rows := len(bitmap)
	if rows == 0 {
		return "", nil
	}
	cols := len(bitmap[0])

	u := width / float64(cols)
	v := height / float64(rows)

	var b strings.Builder
	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			if !bitmap[j][i] {
				continue
			}
			px := x + float64(i)*u
			py := y - float64(rows-j-1)*v
			fmt.Fprintf(&b, "M%g,%g h%g v%g h%g z ", px, py, u, v, -u)
		}
	}
	return strings.TrimSpace(b.String()), nil
}
