// Package reindex implements the default actorpipeline.Reindexer: after a
// scan lands a new artifact, the actor's dynamic directory listing is
// rebuilt so consumers pick it up.
package reindex

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/scanarium/scanarium-go/internal/scanerr"
)

// Reindexer rebuilds an actor's dynamic directory listing, writing a sorted
// JSON array of its PNG filenames to index.json.
type Reindexer struct{}

func (Reindexer) Reindex(scenesDynamicDir, scene, actor string) error {
	dir := filepath.Join(scenesDynamicDir, "scenes", scene, "actors", actor)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return scanerr.New(scanerr.PipelineError, "could not create dynamic actor directory {dir}", map[string]any{"dir": dir})
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return scanerr.New(scanerr.PipelineError, "could not list dynamic actor directory {dir}", map[string]any{"dir": dir})
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if filepath.Ext(e.Name()) == ".png" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	data, err := json.MarshalIndent(names, "", "  ")
	if err != nil {
		return scanerr.New(scanerr.PipelineError, "could not serialize actor index for {actor}", map[string]any{"actor": actor})
	}
	if err := os.WriteFile(filepath.Join(dir, "index.json"), data, 0o644); err != nil {
		return scanerr.New(scanerr.PipelineError, "could not write actor index for {actor}", map[string]any{"actor": actor})
	}
	return nil
}

// ReindexScenes walks every scene under scenesDir and reindexes each of its
// actor directories.
func ReindexScenes(scenesDir, dynamicDir string, reindexActor func(scene, actor string) error) error {
	entries, err := os.ReadDir(scenesDir)
	if err != nil {
		return scanerr.New(scanerr.PipelineError, "could not list scenes directory {dir}", map[string]any{"dir": scenesDir})
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		scene := e.Name()
		actorsDir := filepath.Join(scenesDir, scene, "actors")
		actorEntries, err := os.ReadDir(actorsDir)
		if err != nil {
			continue
		}
		for _, ae := range actorEntries {
			if !ae.IsDir() {
				continue
			}
			if err := reindexActor(scene, ae.Name()); err != nil {
				return err
			}
		}
	}
	return nil
}
