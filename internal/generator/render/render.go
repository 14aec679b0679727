// Package render rasterizes composed SVG trees to PNG, wraps them into PDF
// pages, merges per-language PDFs, and converts PNG to JPEG, all with
// in-process Go libraries rather than shelling out to external tools.
package render

import (
	"bytes"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/scanarium/scanarium-go/internal/scanerr"
)

// RasterizeSVG parses an SVG document and renders it to a w x h RGBA
// image.
func RasterizeSVG(svg []byte, w, h int) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svg), oksvg.StrictErrorMode)
	if err != nil {
		return nil, scanerr.New(scanerr.PipelineError, "could not parse SVG for rasterization", nil)
	}
	icon.SetTarget(0, 0, float64(w), float64(h))

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)
	return rgba, nil
}

// EncodePNG encodes img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, scanerr.New(scanerr.PipelineError, "could not encode PNG", nil)
	}
	return buf.Bytes(), nil
}

// PNGToJPEG re-encodes a PNG as JPEG, flattening any alpha onto a white
// background first.
func PNGToJPEG(pngBytes []byte, quality int) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(pngBytes))
	if err != nil {
		return nil, scanerr.New(scanerr.PipelineError, "could not decode PNG for JPEG conversion", nil)
	}

	b := img.Bounds()
	flattened := image.NewRGBA(b)
	draw.Draw(flattened, b, image.NewUniform(image.White), image.Point{}, draw.Src)
	draw.Draw(flattened, b, img, b.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flattened, &jpeg.Options{Quality: quality}); err != nil {
		return nil, scanerr.New(scanerr.PipelineError, "could not encode JPEG", nil)
	}
	return buf.Bytes(), nil
}

// PDFCombiner merges a set of single-page PDFs into one "book" PDF. The
// default implementation runs pdfcpu in-process, consistent with the rest
// of the render path.
type PDFCombiner interface {
	Combine(inputs []string, output string) error
}

// PdfcpuCombiner is the default PDFCombiner, grounded on the pdfcpu API
// surface (pack dependency contributed via the alefaraci-GoSNare manifest).
type PdfcpuCombiner struct{}

func (PdfcpuCombiner) Combine(inputs []string, output string) error {
	if err := api.MergeCreateFile(inputs, output, false, nil); err != nil {
		return scanerr.New(scanerr.PipelineError, "could not merge PDFs into {output}", map[string]any{"output": output})
	}
	return nil
}

// WritePDFPage wraps a single rendered page (as PNG bytes) into a
// single-page PDF sized to match, via pdfcpu's image-import API.
func WritePDFPage(pngBytes []byte, outputPath string) error {
	tmpImg, err := os.CreateTemp("", "scanarium-render-*.png")
	if err != nil {
		return scanerr.New(scanerr.PipelineError, "could not create temporary image for PDF rendering", nil)
	}
	defer os.Remove(tmpImg.Name())
	if _, err := tmpImg.Write(pngBytes); err != nil {
		tmpImg.Close()
		return scanerr.New(scanerr.PipelineError, "could not write temporary image for PDF rendering", nil)
	}
	tmpImg.Close()

	out, err := os.Create(outputPath)
	if err != nil {
		return scanerr.New(scanerr.PipelineError, "could not create output PDF {path}", map[string]any{"path": outputPath})
	}
	defer out.Close()

	if err := api.ImportImagesFile([]string{tmpImg.Name()}, outputPath, nil, nil); err != nil {
		return scanerr.New(scanerr.PipelineError, "could not write PDF page {path}", map[string]any{"path": outputPath})
	}
	return nil
}

// EmbedMetadata sets PDF document-info metadata: title as Title,
// description as Subject, and keywords as Keywords with the license, when
// given, appended to them. No copyright field is written.
func EmbedMetadata(pdfPath string, title, description, keywords, license string) error {
	props := map[string]string{
		"Title":    title,
		"Subject":  description,
		"Keywords": keywords,
		"Producer": "scanarium",
	}
	if license != "" {
		props["Keywords"] = strings.TrimSpace(props["Keywords"] + " " + license)
	}
	if err := api.AddPropertiesFile(pdfPath, "", props, nil); err != nil {
		return scanerr.New(scanerr.PipelineError, "could not embed metadata into {path}", map[string]any{"path": pdfPath})
	}
	return nil
}

// CopyReader is a tiny helper so callers building up temp files don't need
// to import io separately just for this.
func CopyReader(w io.Writer, r io.Reader) (int64, error) {
	return io.Copy(w, r)
}
