package actorpipeline

import (
	"encoding/json"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"strconv"

	"github.com/scanarium/scanarium-go/internal/scanerr"
)

// MaskMeta is the JSON sidecar describing the unadapted mask's non-zero
// bounding box.
type MaskMeta struct {
	Width    int `json:"width"`
	Height   int `json:"height"`
	XMin     int `json:"x_min"`
	YMin     int `json:"y_min"`
	XMaxInc  int `json:"x_max_inc"`
	YMaxInc  int `json:"y_max_inc"`
}

// FileMaskSource resolves masks from the scenes directory filesystem
// layout.
type FileMaskSource struct {
	ScenesDir string
}

func (f FileMaskSource) actorDir(scene, actor string) string {
	return filepath.Join(f.ScenesDir, scene, "actors", actor)
}

// Mask implements MaskSource, raising UnknownScene/UnknownActor/NoMaskPng.
// Those are collapsed to UnknownQr by the caller when
// debug.fine_grained_errors is off.
func (f FileMaskSource) Mask(scene, actor string, version int) (image.Image, MaskMeta, error) {
	sceneDir := filepath.Join(f.ScenesDir, scene)
	if _, err := os.Stat(sceneDir); err != nil {
		return nil, MaskMeta{}, scanerr.New(scanerr.UnknownScene,
			"unknown scene {scene}", map[string]any{"scene": scene})
	}
	actorDir := f.actorDir(scene, actor)
	if _, err := os.Stat(actorDir); err != nil {
		return nil, MaskMeta{}, scanerr.New(scanerr.UnknownActor,
			"unknown actor {actor} in scene {scene}", map[string]any{"actor": actor, "scene": scene})
	}

	maskPath := filepath.Join(actorDir, maskFilename(actor, "effective", version, "png"))
	f2, err := os.Open(maskPath)
	if err != nil {
		return nil, MaskMeta{}, scanerr.New(scanerr.NoMaskPng,
			"no mask for actor {actor} in scene {scene}, version {version}",
			map[string]any{"actor": actor, "scene": scene, "version": version})
	}
	defer f2.Close()
	img, _, err := image.Decode(f2)
	if err != nil {
		return nil, MaskMeta{}, scanerr.New(scanerr.NoMaskPng,
			"mask file for actor {actor} in scene {scene} is not a valid image",
			map[string]any{"actor": actor, "scene": scene})
	}

	jsonPath := filepath.Join(actorDir, maskFilename(actor, "effective", version, "json"))
	meta, err := readMaskMeta(jsonPath)
	if err != nil {
		return nil, MaskMeta{}, err
	}

	return img, meta, nil
}

func maskFilename(actor, kind string, version int, ext string) string {
	return actor + "-mask-" + kind + "-d-" + strconv.Itoa(version) + "." + ext
}

func readMaskMeta(path string) (MaskMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return MaskMeta{}, scanerr.New(scanerr.NoMaskJSON,
			"missing mask sidecar {path}", map[string]any{"path": path})
	}
	var meta MaskMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return MaskMeta{}, scanerr.New(scanerr.NoMaskJSON,
			"malformed mask sidecar {path}", map[string]any{"path": path})
	}
	return meta, nil
}
