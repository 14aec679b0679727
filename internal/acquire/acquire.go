// Package acquire implements image acquisition: capture-device or
// still-file ingestion, magic-byte format detection, and the
// native/convert/pdftoppm pipeline dispatch.
package acquire

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/image/bmp"

	"github.com/scanarium/scanarium-go/internal/runenv"
	"github.com/scanarium/scanarium-go/internal/scanerr"
)

// x/image/bmp, unlike the stdlib's png/jpeg/gif packages, does not
// self-register with image.RegisterFormat on import; the "native" pipeline
// for scan.permit_file_type_bmp relies on image.Decode's magic-byte
// dispatch, so it's registered explicitly here.
func init() {
	image.RegisterFormat("bmp", "BM", bmp.Decode, bmp.DecodeConfig)
}

// Pipeline selects how a still file's bytes are turned into an image.Image.
type Pipeline string

const (
	PipelineNative   Pipeline = "native"
	PipelineConvert  Pipeline = "convert"
	PipelinePdftoppm Pipeline = "pdftoppm"
)

// Format is a detected file format, identified by magic bytes rather than
// extension.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatPDF  Format = "pdf"
	FormatGIF  Format = "gif"
	FormatBMP  Format = "bmp"
)

var magicBytes = []struct {
	format Format
	magic  []byte
}{
	{FormatPNG, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}},
	{FormatJPEG, []byte{0xFF, 0xD8, 0xFF}},
	{FormatPDF, []byte("%PDF-")},
	{FormatGIF, []byte("GIF8")},
	{FormatBMP, []byte("BM")},
}

// DetectFormat identifies data's format from its magic bytes; the file
// extension plays no part in the decision.
func DetectFormat(data []byte) (Format, bool) {
	for _, m := range magicBytes {
		if bytes.HasPrefix(data, m.magic) {
			return m.format, true
		}
	}
	return "", false
}

// Source describes where a scan's raw frame comes from: "cam:<N>" for a
// capture device index, "image:<path>" for a still file, or a bare path.
type Source struct {
	Kind  SourceKind
	Value string // device index as string, or file path
}

type SourceKind int

const (
	SourceCamera SourceKind = iota
	SourceImageFile
	SourceRawPath
)

// ParseSource parses the scan.source configuration value.
func ParseSource(raw string) (Source, error) {
	switch {
	case strings.HasPrefix(raw, "cam:"):
		return Source{Kind: SourceCamera, Value: strings.TrimPrefix(raw, "cam:")}, nil
	case strings.HasPrefix(raw, "image:"):
		return Source{Kind: SourceImageFile, Value: strings.TrimPrefix(raw, "image:")}, nil
	case raw == "":
		return Source{}, scanerr.New(scanerr.ConfigValue, "scan.source is empty", nil)
	default:
		return Source{Kind: SourceRawPath, Value: raw}, nil
	}
}

// CaptureOptions configures a live capture-device grab (best-effort width,
// height, buffer size, queue length, initial settle delay, and the
// minimum-elapsed-time grab loop that skips stale buffered
// frames).
type CaptureOptions struct {
	Width, Height     int
	BufferSize        int
	QueueLength       int
	Delay             time.Duration
	MinimumGrabTime   time.Duration
}

// Device is the seam over a live capture device; a real implementation
// would wrap a platform capture API; camera provisioning is left to the
// deployment, only the grab-loop contract lives
// here, exercised by tests with a fake Device.
type Device interface {
	Configure(opts CaptureOptions) error
	Grab() error
	Retrieve() (image.Image, error)
	Close() error
}

// CaptureFrame runs the delay-then-grab-loop-then-retrieve sequence: an
// optional settle delay, then repeated Grab calls until one call's Grab
// took at least MinimumGrabTime (discarding the buffered frames that
// return instantly), then a single Retrieve.
func CaptureFrame(ctx context.Context, dev Device, opts CaptureOptions) (image.Image, error) {
	if err := dev.Configure(opts); err != nil {
		return nil, scanerr.New(scanerr.CapNotOpen, "could not configure capture device", nil)
	}
	if opts.Delay > 0 {
		select {
		case <-time.After(opts.Delay):
		case <-ctx.Done():
			return nil, scanerr.New(scanerr.Timeout, "capture device delay was interrupted", nil)
		}
	}

	for {
		start := time.Now()
		if err := dev.Grab(); err != nil {
			return nil, scanerr.New(scanerr.PipelineError, "capture device grab failed", nil)
		}
		if time.Since(start) >= opts.MinimumGrabTime {
			break
		}
		select {
		case <-ctx.Done():
			return nil, scanerr.New(scanerr.Timeout, "capture device grab loop was interrupted", nil)
		default:
		}
	}

	img, err := dev.Retrieve()
	if err != nil {
		return nil, scanerr.New(scanerr.PipelineError, "capture device retrieve failed", nil)
	}
	return img, nil
}

// StillFileConfig reports, per detected format, whether the format is
// permitted and which pipeline decodes it (scan.permit_file_type_<fmt> /
// scan.pipeline_file_type_<fmt>).
type StillFileConfig struct {
	Permitted map[Format]bool
	Pipelines map[Format]Pipeline
}

// SupportedList renders the permitted formats as a sorted, comma-separated
// upper-case list for the UnreadableImageType message.
func (c StillFileConfig) SupportedList() string {
	var formats []string
	for f, ok := range c.Permitted {
		if ok {
			formats = append(formats, strings.ToUpper(string(f)))
		}
	}
	sort.Strings(formats)
	return strings.Join(formats, ", ")
}

// Converter is the seam wrapping the external raster converter ("convert")
// and PDF rasterizer ("pdftoppm") invocations; the core depends only on
// this interface so the actual binaries stay swappable per platform.
type Converter interface {
	ConvertToJPEG(ctx context.Context, input []byte, dpi int, quality int) ([]byte, error)
	PdftoppmToJPEG(ctx context.Context, input []byte, dpi int, quality int) ([]byte, error)
}

// LoadStillFile decodes a still file's bytes into an image.Image, detecting
// its format by magic bytes, checking scan.permit_file_type_<fmt>, and
// dispatching through native/convert/pdftoppm per
// scan.pipeline_file_type_<fmt>.
func LoadStillFile(ctx context.Context, data []byte, cfg StillFileConfig, conv Converter, env *runenv.Env, fineGrained bool) (image.Image, error) {
	format, ok := DetectFormat(data)
	if !ok {
		return nil, scanerr.New(scanerr.UnreadableImageType, "only {supported_formats} files are supported", map[string]any{"supported_formats": cfg.SupportedList()})
	}
	if !cfg.Permitted[format] {
		return nil, scanerr.New(scanerr.UnreadableImageType, "only {supported_formats} files are supported", map[string]any{"supported_formats": cfg.SupportedList()})
	}

	pipeline, ok := cfg.Pipelines[format]
	if !ok {
		pipeline = PipelineNative
	}

	switch pipeline {
	case PipelineNative:
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, mapPipelineErr(err, fineGrained)
		}
		return img, nil

	case PipelineConvert:
		jpegBytes, err := conv.ConvertToJPEG(ctx, data, 150, 75)
		if err != nil {
			return nil, mapPipelineErr(err, fineGrained)
		}
		img, _, err := image.Decode(bytes.NewReader(jpegBytes))
		if err != nil {
			return nil, mapPipelineErr(err, fineGrained)
		}
		return img, nil

	case PipelinePdftoppm:
		jpegBytes, err := conv.PdftoppmToJPEG(ctx, data, 150, 75)
		if err != nil {
			return nil, mapPipelineErr(err, fineGrained)
		}
		img, _, err := image.Decode(bytes.NewReader(jpegBytes))
		if err != nil {
			return nil, mapPipelineErr(err, fineGrained)
		}
		return img, nil

	default:
		return nil, scanerr.New(scanerr.ScanUnknownPipeline, "unknown pipeline {pipeline} for format {format}",
			map[string]any{"pipeline": string(pipeline), "format": string(format)})
	}
}

// mapPipelineErr translates external process errors under fine-grained
// mode: an already tagged *scanerr.Error (such as Env.Run's Timeout or
// ReturnValue) passes through unchanged, a bare context deadline becomes
// PipelineTimeout and anything else PipelineOsError. Outside fine-grained
// mode every error becomes a single opaque PipelineError.
func mapPipelineErr(err error, fineGrained bool) error {
	fallback := scanerr.PipelineErrorOpaque()
	if !fineGrained {
		return fallback
	}
	if se, ok := err.(*scanerr.Error); ok {
		return se
	}
	if err == context.DeadlineExceeded {
		return scanerr.New(scanerr.PipelineTimeout, "pipeline invocation timed out", nil)
	}
	return scanerr.New(scanerr.PipelineOsError, "pipeline invocation failed: {error}", map[string]any{"error": err.Error()})
}

// MinRawWidth enforces the minimum raw capture width, raising ImageTooSmall
// below it.
func MinRawWidth(img image.Image, minWidth int) error {
	if img.Bounds().Dx() < minWidth {
		return scanerr.New(scanerr.ImageTooSmall, "raw image width {width} is below the minimum {min}",
			map[string]any{"width": img.Bounds().Dx(), "min": minWidth})
	}
	return nil
}

// RawImageDumper periodically persists raw captured frames to a configured
// directory for debugging, enforcing a minimum period in wall-clock
// seconds between dumps. The next-due timestamp is an explicit field
// rather than a package global.
type RawImageDumper struct {
	Dir          string
	Period       time.Duration
	nextDumpTime time.Time
}

func (d *RawImageDumper) ShouldDump(now time.Time) bool {
	if d.Dir == "" {
		return false
	}
	return !now.Before(d.nextDumpTime)
}

func (d *RawImageDumper) MarkDumped(now time.Time) {
	d.nextDumpTime = now.Add(d.Period)
}

func (d *RawImageDumper) Dump(img image.Image, now time.Time) error {
	if !d.ShouldDump(now) {
		return nil
	}
	path := d.Dir + "/" + runenv.TimestampForFilename(now) + ".png"
	f, err := os.Create(path)
	if err != nil {
		return scanerr.New(scanerr.PipelineError, "could not create raw image dump {path}", map[string]any{"path": path})
	}
	defer f.Close()
	d.MarkDumped(now)
	return png.Encode(f, img)
}

// Atoi is a tiny local helper so this package doesn't need strconv spread
// across call sites that parse capture-device indices.
func Atoi(s string) (int, error) { return strconv.Atoi(s) }
