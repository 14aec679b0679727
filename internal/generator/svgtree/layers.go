package svgtree

import "strings"

const (
	inkscapeGroupMode = "groupmode"
	inkscapeLabel     = "label"
	layerGroupValue   = "layer"
)

// LayerKind tags a top-level layer's role, the "tagged variant of layer
// kinds" design note calls for: a plain variant, or one of the
// three well-known names consulted by mask/style-override logic.
type LayerKind int

const (
	LayerBase LayerKind = iota
	LayerVariant
	LayerMask
	LayerOverlay
	LayerDetailed
)

// Layer pairs a top-level <g> element with its classified kind and name.
type Layer struct {
	Node *Node
	Kind LayerKind
	Name string // variant name when Kind == LayerVariant, else ""
}

// IsLayer reports whether n is an Inkscape-style layer group.
func IsLayer(n *Node) bool {
	v, _ := n.Get(inkscapeGroupMode)
	return n.XMLName.Local == "g" && v == layerGroupValue
}

// ExtractLayerName returns an Inkscape layer's label (falling back to its
// id when the layer has no label attribute; an empty label names the base
// variant), the name used to decide variant membership and well-known-name
// classification.
func ExtractLayerName(n *Node) string {
	if label, ok := n.Get(inkscapeLabel); ok {
		return label
	}
	id, _ := n.Get("id")
	return id
}

// ExtractLayers returns every top-level layer child of root, classified.
func ExtractLayers(root *Node) []Layer {
	var layers []Layer
	for _, c := range root.Children {
		if !IsLayer(c) {
			continue
		}
		name := ExtractLayerName(c)
		layers = append(layers, Layer{Node: c, Kind: classify(name), Name: name})
	}
	return layers
}

func classify(name string) LayerKind {
	switch name {
	case "Mask":
		return LayerMask
	case "Overlay":
		return LayerOverlay
	case "Detailed":
		return LayerDetailed
	case "":
		return LayerBase
	default:
		return LayerVariant
	}
}

// ExtractVariants returns the distinct variant names present among root's
// top-level layers, excluding the well-known non-variant names and the
// empty base variant.
func ExtractVariants(root *Node) []string {
	seen := map[string]bool{}
	var variants []string
	for _, l := range ExtractLayers(root) {
		if l.Kind != LayerVariant {
			continue
		}
		if seen[l.Name] {
			continue
		}
		seen[l.Name] = true
		variants = append(variants, l.Name)
	}
	return variants
}

// ShowOnlyVariant sets every variant-named top-level layer's `display`
// style to `inline` when it matches target, `none` otherwise; non-variant layers (Mask/Overlay/Detailed/base) are untouched.
func ShowOnlyVariant(root *Node, target string) {
	for _, l := range ExtractLayers(root) {
		if l.Kind != LayerVariant {
			continue
		}
		display := "none"
		if l.Name == target {
			display = "inline"
		}
		setDisplayStyle(l.Node, display)
	}
}

func setDisplayStyle(n *Node, display string) {
	style, _ := n.Get("style")
	decls := splitStyle(style)
	decls["display"] = display
	n.Set("style", joinStyle(decls))
}

func splitStyle(style string) map[string]string {
	decls := map[string]string{}
	for _, part := range strings.Split(style, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		decls[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return decls
}

func joinStyle(decls map[string]string) string {
	var parts []string
	for k, v := range decls {
		parts = append(parts, k+":"+v)
	}
	return strings.Join(parts, ";")
}

// AppendLayers appends every top-level layer of src as a new top-level
// child of dst, used to fold decoration-d-{v}.svg's layers into an
// undecorated sheet.
func AppendLayers(dst, src *Node) {
	for _, l := range ExtractLayers(src) {
		dst.Children = append(dst.Children, l.Node.Clone())
	}
}

// ComposeFullTree builds the full document tree for one render: the
// undecorated sheet plus the shared decoration's layers, plus an optional
// extra-decoration's layers.
func ComposeFullTree(undecorated, decoration, extraDecoration *Node) *Node {
	full := undecorated.Clone()
	AppendLayers(full, decoration)
	if extraDecoration != nil {
		AppendLayers(full, extraDecoration)
	}
	return full
}
