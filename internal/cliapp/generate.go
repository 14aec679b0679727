package cliapp

import (
	"os"
	"path/filepath"

	"github.com/scanarium/scanarium-go/internal/generator"
	"github.com/scanarium/scanarium-go/internal/generator/svgtree"
	"github.com/scanarium/scanarium-go/internal/l10n"
	"github.com/scanarium/scanarium-go/internal/scanconfig"
	"github.com/scanarium/scanarium-go/internal/scanerr"
)

// GenerateArgs mirrors the generator CLI's positional/flag surface:
// COMMAND and PARAMETER are optional filters, an empty value means
// "every scene"/"every actor of the selected scene(s)".
type GenerateArgs struct {
	Command   string
	Parameter string
	Language  string // code, or "all" (the default)
	Force     bool
}

// languages returns the languages to generate for one artifact: every
// directory-derived language when Language is "all", otherwise the single
// requested one.
func (b *Bootstrap) languages(req string) ([]string, error) {
	if req != "" && req != "all" {
		return []string{req}, nil
	}
	return b.Localizer.AvailableLanguages()
}

// RunGenerate builds every (scene, actor, variant, language) artifact
// matching args, then the mask variants and the top-level indexes. It
// returns the full list
// of files written, skipping anything NeedsUpdate reports as already
// current unless Force is set.
func (b *Bootstrap) RunGenerate(args GenerateArgs) ([]string, error) {
	width, err := b.Config.GetInt("generator", "width", scanconfig.AllowMissing(), scanconfig.WithDefault(1240))
	if err != nil {
		return nil, err
	}
	height, err := b.Config.GetInt("generator", "height", scanconfig.AllowMissing(), scanconfig.WithDefault(1754))
	if err != nil {
		return nil, err
	}
	hrefPrefix, err := b.Config.GetString("generator", "href_prefix", scanconfig.AllowMissing(), scanconfig.AllowEmpty())
	if err != nil {
		return nil, err
	}

	scenes, err := b.selectedScenes(args.Command)
	if err != nil {
		return nil, err
	}

	var written []string
	var sceneIndexes []generator.SceneIndex
	var variantIndexes []generator.ActorVariants

	thumbs := generator.SceneThumbnailer{}
	for _, scene := range scenes {
		actors, err := b.selectedActors(scene, args.Parameter)
		if err != nil {
			return nil, err
		}
		sceneIndexes = append(sceneIndexes, generator.SceneIndex{Scene: scene, Actors: actors})

		for _, actor := range actors {
			files, variants, err := b.generateActor(scene, actor, args, width, height, hrefPrefix)
			if err != nil {
				return nil, err
			}
			written = append(written, files...)
			variantIndexes = append(variantIndexes, generator.ActorVariants{
				Scene: scene, Actor: actor, Variants: variants,
			})
		}

		sceneDir := filepath.Join(b.ScenesDir, scene)
		jpgPath := filepath.Join(sceneDir, "background.jpg")
		if err := thumbs.RegenerateBackgroundJPEG(sceneDir, args.Force); err == nil {
			if _, statErr := os.Stat(jpgPath); statErr == nil {
				written = append(written, jpgPath)
			}
		}
		bookPath := filepath.Join(sceneDir, "book.png")
		if err := thumbs.RegenerateBookPNG(sceneDir, width, height, args.Force); err == nil {
			if _, statErr := os.Stat(bookPath); statErr == nil {
				written = append(written, bookPath)
			}
		}
	}

	// Index/matrix regeneration only makes sense for a full, unfiltered
	// pass: a scene- or actor-scoped run would otherwise truncate
	// scenes.json/actor-variants.json to just what it touched.
	if args.Command == "" && args.Parameter == "" {
		if err := generator.WriteScenesIndex(b.ScenesDir, sceneIndexes); err != nil {
			return nil, scanerr.New(scanerr.PipelineError, "could not write scenes index", nil)
		}
		if err := generator.WriteActorVariantsIndex(b.ScenesDir, variantIndexes); err != nil {
			return nil, scanerr.New(scanerr.PipelineError, "could not write actor-variants index", nil)
		}
		written = append(written, filepath.Join(b.ScenesDir, "scenes.json"), filepath.Join(b.ScenesDir, "actor-variants.json"))

		langs, err := b.Localizer.AvailableLanguages()
		if err == nil {
			matrix, err := l10n.BuildMatrix(b.Localizer.Dir(), langs)
			matrixPath := filepath.Join(b.ScenesDir, "localizations.json")
			if err == nil && l10n.WriteMatrix(matrixPath, matrix) == nil {
				written = append(written, matrixPath)
			}
		}
	}

	return written, nil
}

func (b *Bootstrap) selectedScenes(command string) ([]string, error) {
	if command != "" {
		return []string{command}, nil
	}
	return generator.ListCommands(b.ScenesDir)
}

func (b *Bootstrap) selectedActors(scene, parameter string) ([]string, error) {
	if parameter != "" {
		return []string{parameter}, nil
	}
	return generator.ListParameters(b.ScenesDir, scene)
}

// generateActor builds every version/variant/language artifact for one
// actor, plus its mask pair (the background/book scene thumbnails are
// built per scene by RunGenerate). It returns the files
// written and the variant names discovered, for the caller's index.
func (b *Bootstrap) generateActor(scene, actor string, args GenerateArgs, width, height int, hrefPrefix string) ([]string, []string, error) {
	actorDir := filepath.Join(b.ScenesDir, scene, "actors", actor)
	if generator.IsHidden(actorDir) {
		return nil, nil, nil
	}

	versions, err := generator.DecorationVersions(b.ConfigDir)
	if err != nil {
		return nil, nil, scanerr.New(scanerr.ConfigValue, "could not list decoration versions in {dir}", map[string]any{"dir": b.ConfigDir})
	}

	languages, err := b.languages(args.Language)
	if err != nil {
		return nil, nil, err
	}

	var written []string
	var variants []string
	seenVariant := map[string]bool{}

	for _, version := range versions {
		if !generator.UndecoratedExists(actorDir, actor, version) {
			continue
		}

		full, err := b.composeFullTree(scene, actor, version)
		if err != nil {
			return nil, nil, err
		}

		for _, name := range svgtree.ExtractVariants(full) {
			if !seenVariant[name] {
				seenVariant[name] = true
				variants = append(variants, name)
			}
		}

		maskFiles, err := b.regenerateMasks(full, scene, actor, version, width, height, args.Force)
		if err != nil {
			return nil, nil, err
		}
		written = append(written, maskFiles...)

		candidateVariants := append([]string{""}, svgtree.ExtractVariants(full)...)
		for _, variant := range candidateVariants {
			for _, language := range languages {
				files, err := generator.BuildArtifact(generator.ArtifactRequest{
					ScenesDir: b.ScenesDir, ConfigDir: b.ConfigDir,
					Scene: scene, Actor: actor, Variant: variant, Language: language,
					Version: version, Width: width, Height: height, HrefPrefix: hrefPrefix,
					Mappings: b.Mappings, L10n: b.Localizer,
					Targets: generator.RenderTarget{PDF: true, PNG: true, JPG: true},
					Force:   args.Force,
				})
				if err != nil {
					return nil, nil, err
				}
				written = append(written, files...)
			}
		}
	}

	return written, variants, nil
}

// composeFullTree loads the composed (undecorated + decoration + extra)
// SVG tree for one (scene, actor, version), discarding the staleness
// source list: the caller recomposes per artifact anyway (BuildArtifact
// re-runs ComposeTree to get its own source list for the staleness check),
// so this copy is only used for variant discovery and mask regeneration.
func (b *Bootstrap) composeFullTree(scene, actor string, version int) (*svgtree.Node, error) {
	full, _, err := generator.ComposeTree(b.ScenesDir, b.ConfigDir, scene, actor, version)
	return full, err
}

// regenerateMasks rebuilds an actor's effective and unadapted mask PNGs
// plus the effective mask's crop-metadata JSON sidecar when any source is
// stale, returning the paths written.
func (b *Bootstrap) regenerateMasks(full *svgtree.Node, scene, actor string, version, width, height int, force bool) ([]string, error) {
	actorDir := filepath.Join(b.ScenesDir, scene, "actors", actor)
	sources, err := generator.ComposeSources(b.ScenesDir, b.ConfigDir, scene, actor, version)
	if err != nil {
		return nil, err
	}

	strokeOffset, err := b.Config.GetFloat("mask", "stroke_offset", scanconfig.AllowMissing(), scanconfig.WithDefault(2.0))
	if err != nil {
		return nil, err
	}
	strokeColor, err := b.Config.GetString("mask", "stroke_color", scanconfig.AllowMissing(), scanconfig.AllowEmpty())
	if err != nil {
		return nil, err
	}
	dpi, err := b.Config.GetInt("mask", "dpi", scanconfig.AllowMissing(), scanconfig.WithDefault(96))
	if err != nil {
		return nil, err
	}

	return generator.RegenerateActorMasks(generator.MaskRegenerationRequest{
		ActorDir: actorDir, Actor: actor, Version: version,
		Full: full, Sources: sources, Width: width, Height: height,
		StrokeOffset: strokeOffset, StrokeColor: strokeColor, DPI: dpi,
		Force: force,
	})
}
