package actorpipeline

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanarium/scanarium-go/internal/scanerr"
)

func writeMaskFixture(t *testing.T, scenesDir, scene, actor string, version int) {
	t.Helper()
	dir := filepath.Join(scenesDir, scene, "actors", actor)
	require.NoError(t, os.MkdirAll(dir, 0o755))

	img := image.NewGray(image.Rect(0, 0, 10, 10))
	for y := 2; y < 8; y++ {
		for x := 2; x < 8; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	f, err := os.Create(filepath.Join(dir, maskFilename(actor, "effective", version, "png")))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	meta := `{"width":10,"height":10,"x_min":2,"y_min":2,"x_max_inc":8,"y_max_inc":8}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, maskFilename(actor, "effective", version, "json")), []byte(meta), 0o644))
}

func TestFileMaskSourceLoadsMaskAndMeta(t *testing.T) {
	dir := t.TempDir()
	writeMaskFixture(t, dir, "fairies", "RoundBug", 1)

	src := FileMaskSource{ScenesDir: dir}
	img, meta, err := src.Mask("fairies", "RoundBug", 1)
	require.NoError(t, err)
	assert.Equal(t, 10, img.Bounds().Dx())
	assert.Equal(t, 2, meta.XMin)
	assert.Equal(t, 8, meta.XMaxInc)
}

func TestFileMaskSourceUnknownScene(t *testing.T) {
	dir := t.TempDir()
	src := FileMaskSource{ScenesDir: dir}
	_, _, err := src.Mask("nope", "RoundBug", 1)
	require.Error(t, err)
	assert.True(t, scanerr.As(err, scanerr.UnknownScene))
}

func TestFileMaskSourceUnknownActor(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "fairies"), 0o755))
	src := FileMaskSource{ScenesDir: dir}
	_, _, err := src.Mask("fairies", "Nope", 1)
	require.Error(t, err)
	assert.True(t, scanerr.As(err, scanerr.UnknownActor))
}

func TestFileMaskSourceNoMaskPng(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "fairies", "actors", "RoundBug"), 0o755))
	src := FileMaskSource{ScenesDir: dir}
	_, _, err := src.Mask("fairies", "RoundBug", 1)
	require.Error(t, err)
	assert.True(t, scanerr.As(err, scanerr.NoMaskPng))
}

func TestFileMaskSourceMissingSidecarJSON(t *testing.T) {
	dir := t.TempDir()
	actorDir := filepath.Join(dir, "fairies", "actors", "RoundBug")
	require.NoError(t, os.MkdirAll(actorDir, 0o755))

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))))
	require.NoError(t, os.WriteFile(filepath.Join(actorDir, "RoundBug-mask-effective-d-1.png"), buf.Bytes(), 0o644))

	src := FileMaskSource{ScenesDir: dir}
	_, _, err := src.Mask("fairies", "RoundBug", 1)
	require.Error(t, err)
	assert.True(t, scanerr.As(err, scanerr.NoMaskJSON))
}
