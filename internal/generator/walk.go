package generator

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

const hiddenMarkerFile = "hidden"

// IsHidden reports whether dir carries the `hidden` marker file, excluding
// it from the generator's walk.
func IsHidden(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, hiddenMarkerFile))
	return err == nil
}

// ListCommands returns the sorted, non-hidden command (scene) directory
// names under scenesDir, matching the generator's "process tuples in
// lexicographic order" requirement.
func ListCommands(scenesDir string) ([]string, error) {
	return listVisibleDirs(scenesDir)
}

// ListParameters returns the sorted, non-hidden actor directory names for
// a command (scene).
func ListParameters(scenesDir, command string) ([]string, error) {
	return listVisibleDirs(filepath.Join(scenesDir, command, "actors"))
}

func listVisibleDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if IsHidden(filepath.Join(dir, e.Name())) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

var decorationVersionRe = regexp.MustCompile(`^decoration-d-([1-9][0-9]*)\.svg$`)

// DecorationVersions scans configDir for decoration-d-<N>.svg files and
// returns every version found, sorted ascending.
func DecorationVersions(configDir string) ([]int, error) {
	entries, err := os.ReadDir(configDir)
	if err != nil {
		return nil, err
	}
	var versions []int
	for _, e := range entries {
		m := decorationVersionRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		v, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}
	sort.Ints(versions)
	return versions, nil
}

// LatestVersion returns the maximum of versions, or 0 if empty.
func LatestVersion(versions []int) int {
	if len(versions) == 0 {
		return 0
	}
	return versions[len(versions)-1]
}

// UndecoratedExists reports whether a given actor has an undecorated
// source for the given decoration version; the generator emits every
// version for which one exists.
func UndecoratedExists(actorDir, actor string, version int) bool {
	_, err := os.Stat(filepath.Join(actorDir, actor+"-undecorated-d-"+strconv.Itoa(version)+".svg"))
	return err == nil
}
