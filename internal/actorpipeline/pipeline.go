package actorpipeline

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/scanarium/scanarium-go/internal/imaging"
	"github.com/scanarium/scanarium-go/internal/runenv"
	"github.com/scanarium/scanarium-go/internal/scanerr"
)

// WhiteBalanceMode is the scan.white_balance configuration value.
type WhiteBalanceMode string

const (
	WhiteBalanceNone      WhiteBalanceMode = "none"
	WhiteBalanceSimple    WhiteBalanceMode = "simple"
	WhiteBalanceGrayworld WhiteBalanceMode = "grayworld"
)

// Options configures one run of the actor pipeline's orient->...->persist
// sequence.
type Options struct {
	Scene, Actor string
	Version      int
	WhiteBalance WhiteBalanceMode
	VisAlpha     *float64 // non-nil enables "visualization" mode
	MaxFinalW    int
	MaxFinalH    int
}

// Pipeline wires the seams (mask source, reindexer, thumbnailer) the actor
// pipeline depends on.
type Pipeline struct {
	Masks      MaskSource
	Reindex    Reindexer
	Thumbnail  Thumbnailer
	DynamicDir string
}

// AlignAspect resizes img to match the mask's aspect ratio when they differ
// by more than 0.05, keeping whichever dimension changes less.
func AlignAspect(img image.Image, maskW, maskH int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	imgAR := float64(w) / float64(h)
	maskAR := float64(maskW) / float64(maskH)
	if math.Abs(imgAR-maskAR) <= 0.05 {
		return img
	}

	// Keep height fixed, adjust width to match aspect, unless that changes
	// the image more than keeping width fixed and adjusting height would.
	widthKeepingHeight := int(float64(h) * maskAR)
	heightKeepingWidth := int(float64(w) / maskAR)

	if absInt(widthKeepingHeight-w) <= absInt(heightKeepingWidth-h) {
		return imaging.ResizeArea(img, widthKeepingHeight, h)
	}
	return imaging.ResizeArea(img, w, heightKeepingWidth)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// ApplyMask resizes mask to img's dimensions and either adds it as an alpha
// channel, or (when visAlpha is non-nil) multiplies RGB by
// clip(mask/255, alpha, 1) and drops alpha.
func ApplyMask(img image.Image, mask image.Image, visAlpha *float64) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	resizedMask := imaging.ResizeArea(mask, w, h)
	grayMask := imaging.ToGray(resizedMask)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			m := float64(grayMask.GrayAt(x, y).Y) / 255

			if visAlpha != nil {
				factor := m
				if factor < *visAlpha {
					factor = *visAlpha
				}
				if factor > 1 {
					factor = 1
				}
				dst.Set(x, y, color.RGBA{
					R: clampByte8(float64(r>>8) * factor),
					G: clampByte8(float64(g>>8) * factor),
					B: clampByte8(float64(bl>>8) * factor),
					A: 255,
				})
				continue
			}

			dst.Set(x, y, color.RGBA{
				R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(bl >> 8),
				A: clampByte8(m * 255),
			})
		}
	}
	return dst
}

func clampByte8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// Crop scales the mask's JSON sidecar bounding box by image.shape /
// mask_json.shape and crops img to it.
func Crop(img image.Image, meta MaskMeta) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if meta.Width == 0 || meta.Height == 0 {
		return img
	}
	scaleX := float64(w) / float64(meta.Width)
	scaleY := float64(h) / float64(meta.Height)

	rect := image.Rect(
		int(float64(meta.XMin)*scaleX),
		int(float64(meta.YMin)*scaleY),
		int(float64(meta.XMaxInc)*scaleX),
		int(float64(meta.YMaxInc)*scaleY),
	).Intersect(b)

	sub, ok := img.(interface {
		SubImage(r image.Rectangle) image.Image
	})
	if !ok {
		return img
	}
	return sub.SubImage(rect)
}

// WhiteBalance applies the configured white-balance algorithm.
func WhiteBalance(img image.Image, mode WhiteBalanceMode) (image.Image, error) {
	switch mode {
	case WhiteBalanceNone, "":
		return img, nil
	case WhiteBalanceSimple:
		return imaging.WhiteBalanceSimple(img, 1), nil
	case WhiteBalanceGrayworld:
		return imaging.WhiteBalanceGrayworld(img), nil
	default:
		return nil, scanerr.New(scanerr.ScanUnknownWb,
			"unknown white balance mode {mode}", map[string]any{"mode": string(mode)})
	}
}

// Process runs steps 3-9 of the actor pipeline (align, mask, crop,
// balance, scale, persist, reindex) given an already-oriented, rectified
// image and its QR payload. Step 1 (orient) and step 2 (mask resolution
// error mapping) are the caller's responsibility via Orient and
// p.Masks.Mask, since they need QR re-detection and fine-grained-error
// collapsing hooks the caller already owns.
func (p *Pipeline) Process(img image.Image, mask image.Image, meta MaskMeta, opts Options) (string, error) {
	maskBounds := mask.Bounds()
	aligned := AlignAspect(img, maskBounds.Dx(), maskBounds.Dy())

	masked := ApplyMask(aligned, mask, opts.VisAlpha)

	var cropped image.Image = masked
	if opts.VisAlpha == nil {
		cropped = Crop(masked, meta)
	}

	balanced, err := WhiteBalance(cropped, opts.WhiteBalance)
	if err != nil {
		return "", err
	}

	final, _ := imaging.ScaleImage(balanced, &opts.MaxFinalH, &opts.MaxFinalW, nil, nil)

	path, err := p.persist(final, opts)
	if err != nil {
		return "", err
	}

	if p.Reindex != nil {
		if err := p.Reindex.Reindex(p.DynamicDir, opts.Scene, opts.Actor); err != nil {
			return "", err
		}
	}
	return path, nil
}

func (p *Pipeline) persist(img image.Image, opts Options) (string, error) {
	dir := filepath.Join(p.DynamicDir, "scenes", opts.Scene, "actors", opts.Actor)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", scanerr.New(scanerr.PipelineError, "could not create output directory {dir}", map[string]any{"dir": dir})
	}

	ts := runenv.TimestampForFilename(time.Now())
	finalPath := filepath.Join(dir, ts+".png")
	tmpPath := filepath.Join(dir, "tmp-"+ts+".png")

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", scanerr.New(scanerr.PipelineError, "could not encode output PNG", nil)
	}

	withMeta := EmbedTextChunks(buf.Bytes(), map[string]string{
		"scanarium:scene":   opts.Scene,
		"scanarium:actor":   opts.Actor,
		"scanarium:version": strconv.Itoa(opts.Version),
	})

	if err := os.WriteFile(tmpPath, withMeta, 0o644); err != nil {
		return "", scanerr.New(scanerr.PipelineError, "could not write temporary output file {path}", map[string]any{"path": tmpPath})
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return "", scanerr.New(scanerr.PipelineError, "could not finalize output file {path}", map[string]any{"path": finalPath})
	}
	return finalPath, nil
}
