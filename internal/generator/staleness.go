package generator

import "os"

// NeedsUpdate reports whether target should be (re)built: it is missing,
// force is set, or any source has a newer mtime.
func NeedsUpdate(target string, sources []string, force bool) bool {
	if force {
		return true
	}
	targetInfo, err := os.Stat(target)
	if err != nil {
		return true
	}
	for _, src := range sources {
		srcInfo, err := os.Stat(src)
		if err != nil {
			continue
		}
		if srcInfo.ModTime().After(targetInfo.ModTime()) {
			return true
		}
	}
	return false
}
