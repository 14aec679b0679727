// Package qrexport writes a sheet's QR code to a standalone image file, so
// a damaged or cut-off code on a printout can be reprinted as a sticker
// without regenerating the whole sheet.
package qrexport

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"

	"github.com/scanarium/scanarium-go/internal/generator/qrpixel"
	"github.com/scanarium/scanarium-go/internal/qrscan"
)

// Format selects the output file type.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatSVG  Format = "svg"
)

// Request describes one export: the sheet identity, the prefix mappings
// used to abbreviate the payload the same way the generator does when it
// draws the code onto the sheet, and the output target.
type Request struct {
	Command    string
	Parameter  string
	Version    int
	Mappings   []qrscan.MappingEntry
	ConfDir    string
	Size       int // rendered edge length in pixels; modules are scaled to fit
	OutputPath string
	Format     Format
}

// exporter is implemented once per output format.
type exporter interface {
	export(modules [][]bool, req Request) error
}

// Export renders the QR code for req's sheet and writes it to
// req.OutputPath in req.Format.
func Export(req Request) error {
	if req.Command == "" || req.Parameter == "" {
		return fmt.Errorf("command and parameter are required")
	}
	if req.Version < 1 {
		req.Version = 1
	}
	if req.Size == 0 {
		req.Size = 256
	}

	payload := qrscan.Serialize(req.Command, req.Parameter, req.Version)
	payload = qrscan.AbbreviatePayload(payload, req.Mappings, req.ConfDir)

	modules, err := qrpixel.Bitmap(payload)
	if err != nil {
		return fmt.Errorf("encoding payload %q: %w", payload, err)
	}

	var e exporter
	switch req.Format {
	case FormatPNG:
		e = pngExporter{}
	case FormatJPEG:
		e = jpegExporter{}
	case FormatSVG:
		e = svgExporter{}
	default:
		return fmt.Errorf("unsupported format: %s", req.Format)
	}
	return e.export(modules, req)
}

// rasterize paints the module grid onto a white square of req.Size pixels.
func rasterize(modules [][]bool, size int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, size, size))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	n := len(modules)
	if n == 0 {
		return img
	}
	scale := float64(size) / float64(n)
	for y := 0; y < size; y++ {
		j := int(float64(y) / scale)
		if j >= n {
			j = n - 1
		}
		for x := 0; x < size; x++ {
			i := int(float64(x) / scale)
			if i >= n {
				i = n - 1
			}
			if modules[j][i] {
				img.SetGray(x, y, color.Gray{})
			}
		}
	}
	return img
}

type pngExporter struct{}

func (pngExporter) export(modules [][]bool, req Request) error {
	f, err := os.Create(req.OutputPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", req.OutputPath, err)
	}
	defer f.Close()

	enc := &png.Encoder{CompressionLevel: png.BestCompression}
	return enc.Encode(f, rasterize(modules, req.Size))
}

type jpegExporter struct{}

func (jpegExporter) export(modules [][]bool, req Request) error {
	f, err := os.Create(req.OutputPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", req.OutputPath, err)
	}
	defer f.Close()

	return jpeg.Encode(f, rasterize(modules, req.Size), &jpeg.Options{Quality: 90})
}

type svgExporter struct{}

// export writes one merged <path> covering every dark module, the same
// shape the generator embeds into sheets, wrapped in a standalone document
// with a white background.
func (svgExporter) export(modules [][]bool, req Request) error {
	n := len(modules)
	unit := 1.0
	if n > 0 {
		unit = float64(req.Size) / float64(n)
	}

	d := pathData(modules, unit)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<svg width="%d" height="%d" viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg">
<rect width="100%%" height="100%%" fill="white"/>
<path d="%s" fill="black"/>
</svg>
`, req.Size, req.Size, req.Size, req.Size, d)

	return os.WriteFile(req.OutputPath, buf.Bytes(), 0o644)
}

func pathData(modules [][]bool, unit float64) string {
	var b bytes.Buffer
	for j, row := range modules {
		for i, dark := range row {
			if !dark {
				continue
			}
			fmt.Fprintf(&b, "M%g,%g h%g v%g h%g z ", float64(i)*unit, float64(j)*unit, unit, unit, -unit)
		}
	}
	return string(bytes.TrimSpace(b.Bytes()))
}
