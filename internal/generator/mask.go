// Package generator drives the sheet-generation pipeline: directory
// walking, staleness checks, mask rendering and crop-metadata extraction,
// and the per-(command,parameter,language,variant) artifact build.
package generator

import (
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strconv"

	"github.com/scanarium/scanarium-go/internal/generator/render"
	"github.com/scanarium/scanarium-go/internal/generator/svgtree"
	"github.com/scanarium/scanarium-go/internal/scanerr"
)

// MaskOptions configures one mask render: the "effective" mask inflates stroke width and may override stroke color;
// the "unadapted" mask renders the Mask layer exactly as authored.
type MaskOptions struct {
	Adapted      bool
	StrokeOffset float64
	StrokeColor  string
	DPI          int
}

// RegenerateMaskVariant clones the already composed tree, shows only the
// base variant (no filter pass is run) and isolates the Mask layer, optionally inflating its
// stroke width and overriding its stroke color, then rasterizes it against
// a black background.
func RegenerateMaskVariant(full *svgtree.Node, width, height int, opts MaskOptions) (*image.Gray, error) {
	masked := full.Clone()
	svgtree.ShowOnlyVariant(masked, "")

	isolateMaskLayer(masked, opts)

	svgBytes, err := masked.SerializeToString()
	if err != nil {
		return nil, err
	}

	rgba, err := render.RasterizeSVG([]byte(svgBytes), width, height)
	if err != nil {
		return nil, err
	}

	return toBlackBackgroundGray(rgba), nil
}

// isolateMaskLayer hides every top-level layer except Mask, and applies
// the effective-mask stroke adaptation when requested.
func isolateMaskLayer(root *svgtree.Node, opts MaskOptions) {
	for _, l := range svgtree.ExtractLayers(root) {
		display := "none"
		if l.Name == "Mask" {
			display = "inline"
			if opts.Adapted {
				inflateStroke(l.Node, opts.StrokeOffset, opts.StrokeColor)
			}
		}
		setLayerDisplay(l.Node, display)
	}
}

func setLayerDisplay(n *svgtree.Node, display string) {
	style, _ := n.Get("style")
	n.Set("style", mergeStyleDisplay(style, display))
}

func mergeStyleDisplay(style, display string) string {
	if style == "" {
		return "display:" + display
	}
	return style + ";display:" + display
}

func inflateStroke(root *svgtree.Node, offset float64, color string) {
	root.Walk(func(n *svgtree.Node) {
		if w, ok := n.Get("stroke-width"); ok {
			n.Set("stroke-width", inflateNumeric(w, offset))
		}
		if color != "" {
			if _, ok := n.Get("stroke"); ok {
				n.Set("stroke", color)
			}
		}
	})
}

func inflateNumeric(s string, offset float64) string {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		v = 0
	}
	return strconv.FormatFloat(v+offset, 'f', -1, 64)
}

// toBlackBackgroundGray flattens rgba onto black and converts to
// greyscale; the mask's own white fill then shows through as 255.
func toBlackBackgroundGray(rgba *image.RGBA) *image.Gray {
	b := rgba.Bounds()
	flattened := image.NewRGBA(b)
	draw.Draw(flattened, b, image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.Draw(flattened, b, rgba, b.Min, draw.Over)

	gray := image.NewGray(b)
	draw.Draw(gray, b, flattened, b.Min, draw.Src)
	return gray
}

// BoundingBoxOfNonZero finds the axis-aligned bounding box of non-zero
// pixels in an unadapted mask. Returns ok=false when the mask is entirely zero.
func BoundingBoxOfNonZero(mask *image.Gray) (xMin, yMin, xMaxInc, yMaxInc int, ok bool) {
	b := mask.Bounds()
	xMin, yMin = b.Dx(), b.Dy()
	xMaxInc, yMaxInc = -1, -1
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if mask.GrayAt(b.Min.X+x, b.Min.Y+y).Y == 0 {
				continue
			}
			if x < xMin {
				xMin = x
			}
			if y < yMin {
				yMin = y
			}
			if x+1 > xMaxInc {
				xMaxInc = x + 1
			}
			if y+1 > yMaxInc {
				yMaxInc = y + 1
			}
		}
	}
	if xMaxInc < 0 {
		return 0, 0, 0, 0, false
	}
	return xMin, yMin, xMaxInc, yMaxInc, true
}

// maskSidecar mirrors actorpipeline.MaskMeta's JSON shape; kept
// as a separate type rather than a shared import so the generator and the
// scan pipeline can evolve their own representations independently even
// though the wire format must stay bit-stable.
type maskSidecar struct {
	Width   int `json:"width"`
	Height  int `json:"height"`
	XMin    int `json:"x_min"`
	YMin    int `json:"y_min"`
	XMaxInc int `json:"x_max_inc"`
	YMaxInc int `json:"y_max_inc"`
}

// MaskRegenerationRequest is everything needed to rebuild one actor's mask
// pair.
type MaskRegenerationRequest struct {
	ActorDir string
	Actor    string
	Version  int

	Full          *svgtree.Node
	Sources       []string
	Width, Height int

	StrokeOffset float64
	StrokeColor  string
	DPI          int
	Force        bool
}

func maskPath(dir, actor, kind string, version int, ext string) string {
	return filepath.Join(dir, actor+"-mask-"+kind+"-d-"+strconv.Itoa(version)+"."+ext)
}

// RegenerateActorMasks renders the unadapted mask (used only to compute the
// crop bounding box), the effective mask (the one the scan pipeline applies
// as alpha) and the JSON sidecar, skipping work the
// staleness check says is already current.
func RegenerateActorMasks(req MaskRegenerationRequest) ([]string, error) {
	effectivePNG := maskPath(req.ActorDir, req.Actor, "effective", req.Version, "png")
	effectiveJSON := maskPath(req.ActorDir, req.Actor, "effective", req.Version, "json")
	unadaptedPNG := maskPath(req.ActorDir, req.Actor, "unadapted", req.Version, "png")

	stale := req.Force ||
		NeedsUpdate(effectivePNG, req.Sources, req.Force) ||
		NeedsUpdate(effectiveJSON, req.Sources, req.Force) ||
		NeedsUpdate(unadaptedPNG, req.Sources, req.Force)
	if !stale {
		return nil, nil
	}

	unadapted, err := RegenerateMaskVariant(req.Full, req.Width, req.Height, MaskOptions{
		Adapted: false, DPI: req.DPI,
	})
	if err != nil {
		return nil, err
	}
	if err := writeGrayPNG(unadaptedPNG, unadapted); err != nil {
		return nil, err
	}

	effective, err := RegenerateMaskVariant(req.Full, req.Width, req.Height, MaskOptions{
		Adapted: true, StrokeOffset: req.StrokeOffset, StrokeColor: req.StrokeColor, DPI: req.DPI,
	})
	if err != nil {
		return nil, err
	}
	if err := writeGrayPNG(effectivePNG, effective); err != nil {
		return nil, err
	}

	xMin, yMin, xMaxInc, yMaxInc, ok := BoundingBoxOfNonZero(unadapted)
	if !ok {
		xMin, yMin, xMaxInc, yMaxInc = 0, 0, 0, 0
	}
	b := unadapted.Bounds()
	sidecar := maskSidecar{
		Width: b.Dx(), Height: b.Dy(),
		XMin: xMin, YMin: yMin, XMaxInc: xMaxInc, YMaxInc: yMaxInc,
	}
	data, err := json.MarshalIndent(sidecar, "", "  ")
	if err != nil {
		return nil, scanerr.New(scanerr.PipelineError, "could not serialize mask sidecar", nil)
	}
	if err := os.WriteFile(effectiveJSON, data, 0o644); err != nil {
		return nil, scanerr.New(scanerr.PipelineError, "could not write mask sidecar {path}", map[string]any{"path": effectiveJSON})
	}

	return []string{unadaptedPNG, effectivePNG, effectiveJSON}, nil
}

func writeGrayPNG(path string, img *image.Gray) error {
	f, err := os.Create(path)
	if err != nil {
		return scanerr.New(scanerr.PipelineError, "could not create mask file {path}", map[string]any{"path": path})
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return scanerr.New(scanerr.PipelineError, "could not encode mask PNG {path}", map[string]any{"path": path})
	}
	return nil
}
