package cliapp

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchGenerate reruns RunGenerate whenever a file under the config or
// scenes directories changes, debouncing bursts of events so one save in
// an SVG editor triggers one pass. The staleness check keeps each pass
// cheap: only artifacts whose sources actually changed are rebuilt.
// onPass receives the result of every pass; WatchGenerate returns when ctx
// is done or the watcher fails.
func (b *Bootstrap) WatchGenerate(ctx context.Context, args GenerateArgs, debounce time.Duration, onPass func([]string, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, root := range []string{b.ConfigDir, b.ScenesDir} {
		if err := addDirTree(watcher, root); err != nil {
			return err
		}
	}

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op.Has(fsnotify.Create) {
				// New actor/scene directories need their own watch.
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addDirTree(watcher, event.Name); err != nil {
						slog.Warn("could not watch new directory", "path", event.Name, "error", err)
					}
				}
			}
			if generatedArtifact(event.Name) {
				// Our own outputs land next to their sources; reacting to
				// them would loop forever.
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				fire = timer.C
			} else {
				timer.Reset(debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", "error", err)
		case <-fire:
			timer = nil
			fire = nil
			onPass(b.RunGenerate(args))
		}
	}
}

func addDirTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}

var generatedName = regexp.MustCompile(`-mask-(effective|unadapted)-d-[0-9]+\.(png|json)$`)

// generatedArtifact reports whether path is one of the generator's own
// outputs rather than an authored source.
func generatedArtifact(path string) bool {
	base := filepath.Base(path)
	if generatedName.MatchString(base) {
		return true
	}
	switch base {
	case "actor-variants.json", "scenes.json", "localizations.json", "book.pdf", "book.png", "background.jpg":
		return true
	}
	// Per-language artifacts all land under a pdfs/ subtree; authored
	// sources never do.
	for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
		parent := filepath.Dir(dir)
		if parent == dir {
			return false
		}
		if filepath.Base(dir) == "pdfs" {
			return true
		}
	}
}
