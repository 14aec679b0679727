package generator

import (
	"os"
	"path/filepath"
	"strings"
)

// Metadata is the document-level metadata embedded into each rendered
// artifact.
type Metadata struct {
	Title       string
	Description string
	Keywords    []string
	Copyright   string
	License     string
}

// LoadKeywords reads a per-language keywords file (one keyword per line)
// from an actor directory and returns its keywords.
// Missing files are not an error: keywords are optional enrichment.
func LoadKeywords(actorDir, language string) []string {
	path := filepath.Join(actorDir, "keywords-"+language+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var keywords []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			keywords = append(keywords, line)
		}
	}
	return keywords
}

// KeywordsString joins keywords into the comma-separated form the PDF
// Keywords property expects.
func KeywordsString(keywords []string) string {
	return strings.Join(keywords, ", ")
}
