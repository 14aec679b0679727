package generator

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// SceneIndex is one entry of scenes.json:
// the generator's own index of scenes and their actors, distinct from the
// reindex package's dynamic-directory listing.
type SceneIndex struct {
	Scene  string   `json:"scene"`
	Actors []string `json:"actors"`
}

// ActorVariants is one entry of actor-variants.json: the variants
// discovered for one actor.
type ActorVariants struct {
	Scene    string   `json:"scene"`
	Actor    string   `json:"actor"`
	Variants []string `json:"variants"`
}

// WriteScenesIndex serializes scenes.json to scenesDir.
func WriteScenesIndex(scenesDir string, indexes []SceneIndex) error {
	return writeJSON(filepath.Join(scenesDir, "scenes.json"), indexes)
}

// WriteActorVariantsIndex serializes actor-variants.json to scenesDir.
func WriteActorVariantsIndex(scenesDir string, entries []ActorVariants) error {
	return writeJSON(filepath.Join(scenesDir, "actor-variants.json"), entries)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// BuildIndexes walks scenesDir and builds both index documents in one pass;
// an alternative to accumulating SceneIndex/ActorVariants incrementally
// during generation when the caller already has every variant list at hand.
func BuildIndexes(scenesDir string, variantsOf func(scene, actor string) []string) ([]SceneIndex, []ActorVariants, error) {
	commands, err := ListCommands(scenesDir)
	if err != nil {
		return nil, nil, err
	}

	var scenes []SceneIndex
	var variants []ActorVariants
	for _, scene := range commands {
		actors, err := ListParameters(scenesDir, scene)
		if err != nil {
			continue
		}
		scenes = append(scenes, SceneIndex{Scene: scene, Actors: actors})
		for _, actor := range actors {
			variants = append(variants, ActorVariants{
				Scene: scene, Actor: actor, Variants: variantsOf(scene, actor),
			})
		}
	}
	return scenes, variants, nil
}
