package qrscan

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/scanarium/scanarium-go/internal/scanerr"
)

// MappingEntry is one entry of qr-code.mappings: a prefix, and optionally a
// JSON file path ("prefix@file") that maps the remainder of the payload to
// its expanded form.
type MappingEntry struct {
	Prefix string
	File   string // "" when the entry carries no file
}

// ParseMappings parses the comma-separated qr-code.mappings configuration
// value into its entries.
func ParseMappings(raw string) []MappingEntry {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var entries []MappingEntry
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		prefix, file, hasFile := strings.Cut(part, "@")
		e := MappingEntry{Prefix: prefix}
		if hasFile {
			e.File = file
		}
		entries = append(entries, e)
	}
	return entries
}

func expandConfDir(path, confDir string) string {
	return strings.ReplaceAll(path, "%CONF_DIR%", confDir)
}

func loadMap(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, scanerr.New(scanerr.ConfigValue,
			"failed to read QR mapping file {path}", map[string]any{"path": path})
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, scanerr.New(scanerr.ConfigValue,
			"failed to parse QR mapping file {path} as JSON", map[string]any{"path": path})
	}
	return m, nil
}

// ExpandPrefix applies the first mapping entry whose prefix matches data:
// the prefix is stripped and, if the entry names a file, the remainder is
// looked up in that file's JSON string->string map (passthrough if the key
// is absent). Entries that don't match are skipped; data that matches no
// entry is returned unchanged.
func ExpandPrefix(data string, entries []MappingEntry, confDir string) (string, error) {
	for _, e := range entries {
		if !strings.HasPrefix(data, e.Prefix) {
			continue
		}
		rest := strings.TrimPrefix(data, e.Prefix)
		if e.File == "" {
			return rest, nil
		}
		m, err := loadMap(expandConfDir(e.File, confDir))
		if err != nil {
			return "", err
		}
		if expanded, ok := m[rest]; ok {
			return expanded, nil
		}
		return rest, nil
	}
	return data, nil
}

// AbbreviatePayload is the generator-side inverse of ExpandPrefix: it scans
// entries and, if a mapping file contains a key whose value equals payload,
// emits prefix+key instead of the full payload.
func AbbreviatePayload(payload string, entries []MappingEntry, confDir string) string {
	for _, e := range entries {
		if e.File == "" {
			continue
		}
		m, err := loadMap(expandConfDir(e.File, confDir))
		if err != nil {
			continue
		}
		for key, value := range m {
			if value == payload {
				return e.Prefix + key
			}
		}
	}
	return payload
}

// DefaultMappingsDir is where qr-code-maps/*.json live relative to the
// config directory.
func DefaultMappingsDir(configDir string) string {
	return filepath.Join(configDir, "qr-code-maps")
}
