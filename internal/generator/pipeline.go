package generator

import (
	"image"
	"os"
	"path/filepath"
	"strconv"

	"github.com/scanarium/scanarium-go/internal/generator/render"
	"github.com/scanarium/scanarium-go/internal/generator/svgtree"
	"github.com/scanarium/scanarium-go/internal/l10n"
	"github.com/scanarium/scanarium-go/internal/qrscan"
	"github.com/scanarium/scanarium-go/internal/scanerr"
)

// RenderTarget enumerates the output formats one artifact build can
// produce: PDF always, PNG/JPG configurable.
type RenderTarget struct {
	PDF bool
	PNG bool
	JPG bool
}

// ArtifactRequest is everything needed to build one (scene, actor, variant,
// language) artifact.
type ArtifactRequest struct {
	ScenesDir, ConfigDir string
	Scene, Actor         string
	Variant, Language    string
	Version              int

	Width, Height int
	HrefPrefix    string

	Mappings []qrscan.MappingEntry
	L10n     *l10n.Localizer

	Targets RenderTarget
	Force   bool

	Combiner render.PDFCombiner
}

// ComposeTree reads an actor's undecorated SVG, the shared decoration and
// an optional per-scene extra decoration for version, and composes them
// into one full document tree, without selecting a variant or filtering:
// the shared groundwork BuildArtifact and the mask regeneration pass both
// need. sources is extended with every file read,
// for staleness checks against the result.
func ComposeTree(scenesDir, configDir, scene, actor string, version int) (full *svgtree.Node, sources []string, err error) {
	actorDir := filepath.Join(scenesDir, scene, "actors", actor)
	undecoratedPath := filepath.Join(actorDir, actor+"-undecorated-d-"+strconv.Itoa(version)+".svg")
	decorationPath := filepath.Join(configDir, "decoration-d-"+strconv.Itoa(version)+".svg")
	extraDecorationPath := filepath.Join(scenesDir, scene, "extra-decoration-d-"+strconv.Itoa(version)+".svg")

	sources = []string{undecoratedPath, decorationPath}

	undecorated, err := parseSVGFile(undecoratedPath)
	if err != nil {
		return nil, nil, err
	}
	decoration, err := parseSVGFile(decorationPath)
	if err != nil {
		return nil, nil, err
	}
	var extraDecoration *svgtree.Node
	if _, statErr := os.Stat(extraDecorationPath); statErr == nil {
		extraDecoration, err = parseSVGFile(extraDecorationPath)
		if err != nil {
			return nil, nil, err
		}
		sources = append(sources, extraDecorationPath)
	}

	full = svgtree.ComposeFullTree(undecorated, decoration, extraDecoration)
	return full, sources, nil
}

// ComposeSources returns the source paths ComposeTree would read for
// (scene, actor, version), without parsing them; the staleness check the
// mask regeneration pass needs doesn't need a parsed
// tree, just mtimes.
func ComposeSources(scenesDir, configDir, scene, actor string, version int) ([]string, error) {
	actorDir := filepath.Join(scenesDir, scene, "actors", actor)
	undecoratedPath := filepath.Join(actorDir, actor+"-undecorated-d-"+strconv.Itoa(version)+".svg")
	decorationPath := filepath.Join(configDir, "decoration-d-"+strconv.Itoa(version)+".svg")
	extraDecorationPath := filepath.Join(scenesDir, scene, "extra-decoration-d-"+strconv.Itoa(version)+".svg")

	sources := []string{undecoratedPath, decorationPath}
	if _, err := os.Stat(extraDecorationPath); err == nil {
		sources = append(sources, extraDecorationPath)
	}
	return sources, nil
}

// BuildArtifact composes the full tree, selects the variant, filters and
// localizes it, then renders the requested targets, returning the paths
// written.
func BuildArtifact(req ArtifactRequest) ([]string, error) {
	actorDir := filepath.Join(req.ScenesDir, req.Scene, "actors", req.Actor)
	outDir := filepath.Join(actorDir, "pdfs", req.Language)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, scanerr.New(scanerr.PipelineError, "could not create output directory {dir}", map[string]any{"dir": outDir})
	}

	localizedName := req.Actor
	if req.Variant != "" {
		localizedName += "-" + req.Variant
	}
	svgOutPath := filepath.Join(outDir, localizedName+".svg")

	if !req.Targets.PDF && !req.Targets.PNG && !req.Targets.JPG {
		return nil, nil
	}
	pdfOutPath := filepath.Join(outDir, localizedName+".pdf")
	pngOutPath := filepath.Join(outDir, localizedName+".png")
	jpgOutPath := filepath.Join(outDir, localizedName+".jpg")

	full, sources, err := ComposeTree(req.ScenesDir, req.ConfigDir, req.Scene, req.Actor, req.Version)
	if err != nil {
		return nil, err
	}

	stale := req.Force ||
		(req.Targets.PDF && NeedsUpdate(pdfOutPath, sources, req.Force)) ||
		(req.Targets.PNG && NeedsUpdate(pngOutPath, sources, req.Force)) ||
		(req.Targets.JPG && NeedsUpdate(jpgOutPath, sources, req.Force))
	if !stale {
		return nil, nil
	}

	svgtree.ShowOnlyVariant(full, req.Variant)

	commandLabel := req.L10n.Localize(req.Language, req.Scene)
	parameterLabel := req.L10n.LocalizeParameter(req.Language, req.Scene, req.Actor, req.Actor)

	err = svgtree.Filter(full, svgtree.FilterOptions{
		Localizer:      req.L10n,
		Language:       req.Language,
		Command:        req.Scene,
		Parameter:      req.Actor,
		Variant:        req.Variant,
		CommandLabel:   commandLabel,
		ParameterLabel: parameterLabel,
		HrefPrefix:     req.HrefPrefix,
		Version:        req.Version,
		MappingEntries: req.Mappings,
		ConfDir:        req.ConfigDir,
	})
	if err != nil {
		return nil, err
	}

	svgString, err := full.SerializeToString()
	if err != nil {
		return nil, scanerr.New(scanerr.PipelineError, "could not serialize composed SVG", nil)
	}
	if err := os.WriteFile(svgOutPath, []byte(svgString), 0o644); err != nil {
		return nil, scanerr.New(scanerr.PipelineError, "could not write SVG {path}", map[string]any{"path": svgOutPath})
	}

	var written []string
	written = append(written, svgOutPath)

	var rgba *image.RGBA
	if req.Targets.PNG || req.Targets.JPG || req.Targets.PDF {
		r, err := render.RasterizeSVG([]byte(svgString), req.Width, req.Height)
		if err != nil {
			return nil, err
		}
		rgba = r
	}

	if req.Targets.PNG {
		pngBytes, err := render.EncodePNG(rgba)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(pngOutPath, pngBytes, 0o644); err != nil {
			return nil, scanerr.New(scanerr.PipelineError, "could not write PNG {path}", map[string]any{"path": pngOutPath})
		}
		written = append(written, pngOutPath)

		if req.Targets.JPG {
			jpegBytes, err := render.PNGToJPEG(pngBytes, 75)
			if err != nil {
				return nil, err
			}
			if err := os.WriteFile(jpgOutPath, jpegBytes, 0o644); err != nil {
				return nil, scanerr.New(scanerr.PipelineError, "could not write JPG {path}", map[string]any{"path": jpgOutPath})
			}
			written = append(written, jpgOutPath)
		}
	}

	if req.Targets.PDF {
		pngBytes, err := render.EncodePNG(rgba)
		if err != nil {
			return nil, err
		}
		if err := render.WritePDFPage(pngBytes, pdfOutPath); err != nil {
			return nil, err
		}
		keywords := KeywordsString(LoadKeywords(actorDir, req.Language))
		if err := render.EmbedMetadata(pdfOutPath, commandLabel+" "+parameterLabel, parameterLabel, keywords, ""); err != nil {
			return nil, err
		}
		written = append(written, pdfOutPath)
	}

	return written, nil
}

func parseSVGFile(path string) (*svgtree.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, scanerr.New(scanerr.PipelineError, "could not open SVG source {path}", map[string]any{"path": path})
	}
	defer f.Close()
	n, err := svgtree.Parse(f)
	if err != nil {
		return nil, scanerr.New(scanerr.PipelineError, "could not parse SVG source {path}", map[string]any{"path": path})
	}
	return n, nil
}

// CombineBook merges every language's PDF for a (scene, actor, variant)
// into one combined book PDF.
func CombineBook(combiner render.PDFCombiner, inputs []string, output string) error {
	if combiner == nil {
		combiner = render.PdfcpuCombiner{}
	}
	return combiner.Combine(inputs, output)
}
