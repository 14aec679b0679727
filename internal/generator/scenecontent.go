package generator

import (
	"os"
	"path/filepath"

	"github.com/scanarium/scanarium-go/internal/generator/render"
)

// SceneThumbnailer is the scene-bait/scene-book thumbnail seam.
type SceneThumbnailer struct{}

// RegenerateBackgroundJPEG converts a scene's background.png to
// background.jpg if missing or stale, for contexts (like the scene-bait
// preview) that need a JPEG rather than a PNG.
func (SceneThumbnailer) RegenerateBackgroundJPEG(sceneDir string, force bool) error {
	pngPath := filepath.Join(sceneDir, "background.png")
	jpgPath := filepath.Join(sceneDir, "background.jpg")

	if _, err := os.Stat(pngPath); err != nil {
		return nil // no background configured for this scene
	}
	if !NeedsUpdate(jpgPath, []string{pngPath}, force) {
		return nil
	}

	pngBytes, err := os.ReadFile(pngPath)
	if err != nil {
		return err
	}
	jpegBytes, err := render.PNGToJPEG(pngBytes, 85)
	if err != nil {
		return err
	}
	return os.WriteFile(jpgPath, jpegBytes, 0o644)
}

// RegenerateBookPNG rasterizes a scene's existing book.svg to book.png,
// used as the scene's "combined book" thumbnail; nothing in the generator
// writes book.svg, and a scene without one is skipped.
func (SceneThumbnailer) RegenerateBookPNG(sceneDir string, width, height int, force bool) error {
	svgPath := filepath.Join(sceneDir, "book.svg")
	pngPath := filepath.Join(sceneDir, "book.png")

	if _, err := os.Stat(svgPath); err != nil {
		return nil
	}
	if !NeedsUpdate(pngPath, []string{svgPath}, force) {
		return nil
	}

	svgBytes, err := os.ReadFile(svgPath)
	if err != nil {
		return err
	}
	rgba, err := render.RasterizeSVG(svgBytes, width, height)
	if err != nil {
		return err
	}
	pngBytes, err := render.EncodePNG(rgba)
	if err != nil {
		return err
	}
	return os.WriteFile(pngPath, pngBytes, 0o644)
}
