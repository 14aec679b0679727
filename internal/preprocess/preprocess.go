// Package preprocess wraps internal/imaging's pixel primitives into the
// scan-time preparation step: scale, optional undistort, grayscale,
// brightness normalization and contrast stretch.
package preprocess

import (
	"image"
	"sync"

	"github.com/scanarium/scanarium-go/internal/imaging"
	"github.com/scanarium/scanarium-go/internal/scanconfig"
)

// Options mirrors the scan.* configuration keys consulted while preparing
// a raw capture for QR detection and rectification.
type Options struct {
	ScaledWidth, ScaledHeight   *int
	TripWidth, TripHeight       *int
	ContrastFactor              float64
	CameraMatrix                *[9]float64
	DistCoeffs                  *[5]float64
}

// Result is a prepared frame plus the scale factor applied, so callers can
// map coordinates found in the prepared frame back to source-image space
// via imaging.ScalePoint.
type Result struct {
	Image       image.Image
	Gray        *image.Gray
	ScaleFactor float64
}

// brightnessCache memoizes the per-pixel brightness-normalization factor
// grid keyed by image bounds; each Preprocessor owns its own cache instance
// instead of sharing a package global.
type brightnessCache struct {
	mu     sync.Mutex
	bounds image.Rectangle
	factor [][]float64
}

// Preprocessor holds the per-process caches the scan pipeline reuses across
// frames (brightness factor grid today; future per-camera caches can be
// added here without touching call sites).
type Preprocessor struct {
	cfg        *scanconfig.Config
	brightness brightnessCache
}

func New(cfg *scanconfig.Config) *Preprocessor {
	return &Preprocessor{cfg: cfg}
}

// Prepare runs the scale -> undistort -> grayscale -> brightness ->
// contrast pipeline ahead of QR scanning and rectification.
func (p *Preprocessor) Prepare(img image.Image, opts Options, maxBrightness image.Image) Result {
	scaled, factor := imaging.ScaleImage(img, opts.ScaledHeight, opts.ScaledWidth, opts.TripHeight, opts.TripWidth)

	if opts.CameraMatrix != nil && opts.DistCoeffs != nil {
		scaled = imaging.Undistort(scaled, *opts.CameraMatrix, *opts.DistCoeffs)
	}

	gray := imaging.ToGray(scaled)

	if maxBrightness != nil {
		gray = p.applyBrightness(gray, maxBrightness)
	}

	var out image.Image = gray
	if opts.ContrastFactor != 1 {
		out = imaging.ContrastStretch(gray, opts.ContrastFactor)
	}

	return Result{Image: out, Gray: gray, ScaleFactor: factor}
}

func (p *Preprocessor) applyBrightness(gray *image.Gray, maxBrightness image.Image) *image.Gray {
	p.brightness.mu.Lock()
	defer p.brightness.mu.Unlock()

	b := maxBrightness.Bounds()
	if p.brightness.factor == nil || p.brightness.bounds != b {
		p.brightness.factor = imaging.BrightnessFactor(maxBrightness)
		p.brightness.bounds = b
	}
	return imaging.ApplyBrightnessFactor(gray, p.brightness.factor)
}
