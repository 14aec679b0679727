// Package l10n implements the localization string lookup and template
// placeholder substitution the sheet generator applies to SVG text and
// attributes, plus the out-of-scope-but-supplemented
// `localizations.json` language matrix.
package l10n

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Localizer resolves keys against a language's JSON table, falling back to
// a default language when a key or the language file itself is missing.
type Localizer struct {
	dir             string
	defaultLanguage string
	cache           map[string]map[string]string
}

func New(dir, defaultLanguage string) *Localizer {
	return &Localizer{dir: dir, defaultLanguage: defaultLanguage, cache: map[string]map[string]string{}}
}

// Dir returns the directory this localizer's per-language tables live in,
// used by callers (the language-matrix builder) that need to enumerate
// languages the same way Localizer itself resolves them.
func (l *Localizer) Dir() string { return l.dir }

// AvailableLanguages lists every language with a translation table present
// (one "<code>.json" file per language), sorted, used to expand
// `--language all` and to build the language-coverage matrix.
func (l *Localizer) AvailableLanguages() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, err
	}
	var languages []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if ext := filepath.Ext(name); ext == ".json" {
			languages = append(languages, strings.TrimSuffix(name, ext))
		}
	}
	sort.Strings(languages)
	return languages, nil
}

func (l *Localizer) table(language string) map[string]string {
	if t, ok := l.cache[language]; ok {
		return t
	}
	data, err := os.ReadFile(filepath.Join(l.dir, language+".json"))
	t := map[string]string{}
	if err == nil {
		json.Unmarshal(data, &t)
	}
	l.cache[language] = t
	return t
}

// Localize looks up key in language, falling back to the default language,
// then to the key itself (so untranslated strings remain visible rather
// than disappearing).
func (l *Localizer) Localize(language, key string) string {
	if v, ok := l.table(language)[key]; ok {
		return v
	}
	if language != l.defaultLanguage {
		if v, ok := l.table(l.defaultLanguage)[key]; ok {
			return v
		}
	}
	return key
}

// LocalizeParameter looks up a parameter-scoped key
// ("<command>.<parameter>.<key>"), falling back to the unscoped key.
func (l *Localizer) LocalizeParameter(language, command, parameter, key string) string {
	scoped := command + "." + parameter + "." + key
	if v, ok := l.table(language)[scoped]; ok {
		return v
	}
	return l.Localize(language, key)
}

// Placeholders are the template substitutions applied to SVG text/tail and
// attribute values. The name placeholders carry both a localized and a raw
// form; the label placeholders have no raw equivalents, since a label's
// un-localized form is the name itself.
type Placeholders struct {
	CommandName              string
	CommandNameRaw           string
	ParameterName            string
	ParameterNameRaw         string
	VariantName              string
	CommandLabel             string
	ParameterLabel           string
	ParameterWithVariantName string
}

// Apply substitutes every `{placeholder}` occurrence in text.
func (p Placeholders) Apply(text string) string {
	replacer := strings.NewReplacer(
		"{command_name}", p.CommandName,
		"{parameter_name}", p.ParameterName,
		"{variant_name}", p.VariantName,
		"{command_label}", p.CommandLabel,
		"{parameter_label}", p.ParameterLabel,
		"{parameter_with_variant_name}", p.ParameterWithVariantName,
		"{command_name_raw}", p.CommandNameRaw,
		"{parameter_name_raw}", p.ParameterNameRaw,
	)
	return replacer.Replace(text)
}
