package l10n

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLang(t *testing.T, dir, lang, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, lang+".json"), []byte(contents), 0o644))
}

func TestLocalizeFallsBackToDefaultLanguage(t *testing.T) {
	dir := t.TempDir()
	writeLang(t, dir, "en", `{"greeting":"Hello"}`)
	writeLang(t, dir, "de", `{}`)
	l := New(dir, "en")

	assert.Equal(t, "Hello", l.Localize("de", "greeting"))
}

func TestLocalizeFallsBackToKeyWhenNowhereFound(t *testing.T) {
	dir := t.TempDir()
	writeLang(t, dir, "en", `{}`)
	l := New(dir, "en")
	assert.Equal(t, "missing.key", l.Localize("en", "missing.key"))
}

func TestLocalizeParameterScopedLookup(t *testing.T) {
	dir := t.TempDir()
	writeLang(t, dir, "en", `{"space.SimpleRocket.title":"Simple Rocket","title":"Generic"}`)
	l := New(dir, "en")

	assert.Equal(t, "Simple Rocket", l.LocalizeParameter("en", "space", "SimpleRocket", "title"))
	assert.Equal(t, "Generic", l.LocalizeParameter("en", "fairies", "RoundBug", "title"))
}

func TestAvailableLanguagesSorted(t *testing.T) {
	dir := t.TempDir()
	writeLang(t, dir, "de", `{}`)
	writeLang(t, dir, "en", `{}`)
	writeLang(t, dir, "ar", `{}`)
	l := New(dir, "en")

	langs, err := l.AvailableLanguages()
	require.NoError(t, err)
	assert.Equal(t, []string{"ar", "de", "en"}, langs)
}

func TestPlaceholdersApplySubstitutesAll(t *testing.T) {
	p := Placeholders{
		CommandName:              "Space",
		CommandNameRaw:           "space",
		ParameterName:            "Simple Rocket",
		ParameterNameRaw:         "SimpleRocket",
		VariantName:              "Detailed",
		CommandLabel:             "Space",
		ParameterLabel:           "Simple Rocket",
		ParameterWithVariantName: "SimpleRocketDetailed",
	}
	in := "{command_name}/{parameter_name}/{variant_name}/{command_label}/{parameter_label}/{parameter_with_variant_name}/{command_name_raw}/{parameter_name_raw}"
	out := p.Apply(in)
	assert.Equal(t, "Space/Simple Rocket/Detailed/Space/Simple Rocket/SimpleRocketDetailed/space/SimpleRocket", out)
}

func TestPlaceholdersApplyLeavesUnknownTokens(t *testing.T) {
	p := Placeholders{}
	assert.Equal(t, "{totally_unknown}", p.Apply("{totally_unknown}"))
}
