package svgtree

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/scanarium/scanarium-go/internal/generator/qrpixel"
	"github.com/scanarium/scanarium-go/internal/l10n"
	"github.com/scanarium/scanarium-go/internal/qrscan"
	"github.com/scanarium/scanarium-go/internal/scanerr"
)

// StyleOverride is one row of the per-(variant, layer) style-override
// table.
type StyleOverride struct {
	StrokeColor string
	StrokeWidth string
	Fill        string
}

// VariantSettings is the static (variant, layerKind) -> StyleOverride
// table filter enforces on Mask/Overlay/Detailed layers.
var VariantSettings = map[string]map[LayerKind]StyleOverride{
	"": {
		LayerMask:     {Fill: "#ffffff", StrokeColor: "#ffffff"},
		LayerOverlay:  {StrokeColor: "#000000", StrokeWidth: "1"},
		LayerDetailed: {StrokeColor: "#000000", StrokeWidth: "0.5"},
	},
	"Detailed": {
		LayerMask:     {Fill: "#ffffff", StrokeColor: "#ffffff"},
		LayerOverlay:  {StrokeColor: "#000000", StrokeWidth: "0.5"},
		LayerDetailed: {StrokeColor: "#000000", StrokeWidth: "0.25"},
	},
}

var transformRe = regexp.MustCompile(`(translate|rotate)\s*\([^)]*\)`)

var allowedURLRe = regexp.MustCompile(`^([a-z][a-z0-9+.-]*:)?//`)

// FilterOptions bundles the inputs the single filter pass needs.
type FilterOptions struct {
	Localizer  *l10n.Localizer
	Language   string
	Command    string
	Parameter  string
	Variant    string

	CommandLabel   string
	ParameterLabel string

	HrefPrefix string

	// QR placeholder expansion inputs.
	Version        int
	MappingEntries []qrscan.MappingEntry
	ConfDir        string
}

// Filter applies templating, style enforcement, transform validation and
// href adjustment to every node in the tree rooted at root, and expands qr-pixel placeholders in the same pass (step 4).
func Filter(root *Node, opts FilterOptions) error {
	placeholders := l10n.Placeholders{
		CommandName:              opts.CommandLabel,
		CommandNameRaw:           opts.Command,
		ParameterName:            opts.ParameterLabel,
		ParameterNameRaw:         opts.Parameter,
		VariantName:              opts.Variant,
		CommandLabel:             opts.CommandLabel,
		ParameterLabel:           opts.ParameterLabel,
		ParameterWithVariantName: opts.Parameter + opts.Variant,
	}

	var walkErr error
	layerStack := []LayerKind{LayerBase}

	var visit func(n *Node, variant string)
	visit = func(n *Node, variant string) {
		if walkErr != nil {
			return
		}
		pushed := false
		if IsLayer(n) {
			kind := classify(ExtractLayerName(n))
			if kind == LayerVariant {
				variant = ExtractLayerName(n)
			}
			layerStack = append(layerStack, kind)
			pushed = true
		}

		n.Text = placeholders.Apply(n.Text)
		n.Tail = placeholders.Apply(n.Tail)
		for i := range n.Attrs {
			n.Attrs[i].Value = placeholders.Apply(n.Attrs[i].Value)
		}

		if qrAttr, ok := n.Get("qr-pixel"); ok {
			if err := expandQRPixel(n, qrAttr, opts); err != nil {
				walkErr = err
				return
			}
		}

		if transform, ok := n.Get("transform"); ok && transform != "" {
			if !isAllowedTransform(transform) {
				walkErr = scanerr.New(scanerr.SvgTransformScale,
					"SVG transform {transform} uses a disallowed type (only translate/rotate are permitted)",
					map[string]any{"transform": transform})
				return
			}
		}

		if href, ok := n.Get("xlink:href"); ok {
			n.Set("xlink:href", prefixHref(href, opts.HrefPrefix))
		}

		currentKind := layerStack[len(layerStack)-1]
		if table, ok := VariantSettings[variant]; ok {
			if override, ok := table[currentKind]; ok {
				applyStyleOverride(n, override)
			}
		}

		for _, c := range n.Children {
			visit(c, variant)
			if walkErr != nil {
				return
			}
		}
		if pushed {
			layerStack = layerStack[:len(layerStack)-1]
		}
	}
	visit(root, "")
	return walkErr
}

func isAllowedTransform(transform string) bool {
	remaining := transformRe.ReplaceAllString(transform, "")
	return strings.TrimSpace(remaining) == ""
}

func prefixHref(href, prefix string) string {
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "/") {
		return href
	}
	if allowedURLRe.MatchString(href) {
		return href
	}
	return prefix + href
}

func applyStyleOverride(n *Node, o StyleOverride) {
	style, _ := n.Get("style")
	decls := splitStyle(style)
	if o.StrokeColor != "" {
		decls["stroke"] = o.StrokeColor
	}
	if o.StrokeWidth != "" {
		decls["stroke-width"] = o.StrokeWidth
	}
	if o.Fill != "" {
		decls["fill"] = o.Fill
	}
	n.Set("style", joinStyle(decls))
}

func expandQRPixel(n *Node, commandLabel string, opts FilterOptions) error {
	if commandLabel != opts.CommandLabel {
		// Not the placeholder for the sheet being generated right now:
		// hide it but keep it in the tree so layout is unaffected.
		style, _ := n.Get("style")
		decls := splitStyle(style)
		decls["opacity"] = "0"
		n.Set("style", joinStyle(decls))
		return nil
	}

	payload := opts.Command + ":" + opts.Parameter + ":d_" + strconv.Itoa(opts.Version)
	payload = qrscan.AbbreviatePayload(payload, opts.MappingEntries, opts.ConfDir)

	x := attrFloat(n, "x")
	y := attrFloat(n, "y")
	w := attrFloat(n, "width")
	h := attrFloat(n, "height")

	d, err := qrpixel.PathData(payload, x, y, w, h)
	if err != nil {
		return err
	}

	n.XMLName.Local = "path"
	n.Set("d", d)
	removeAttr(n, "qr-pixel")
	removeAttr(n, "x")
	removeAttr(n, "y")
	removeAttr(n, "width")
	removeAttr(n, "height")
	return nil
}

func removeAttr(n *Node, name string) {
	filtered := n.Attrs[:0]
	for _, a := range n.Attrs {
		if a.Name.Local != name {
			filtered = append(filtered, a)
		}
	}
	n.Attrs = filtered
}

func attrFloat(n *Node, name string) float64 {
	v, _ := n.Get(name)
	f, _ := strconv.ParseFloat(v, 64)
	return f
}
