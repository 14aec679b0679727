package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanarium/scanarium-go/internal/runenv"
	"github.com/scanarium/scanarium-go/internal/scanerr"
)

func TestEnvOrReturnsEnvValueWhenSet(t *testing.T) {
	t.Setenv("SCANARIUM_TEST_VAR", "from-env")
	assert.Equal(t, "from-env", envOr("SCANARIUM_TEST_VAR", "default"))
}

func TestEnvOrReturnsDefaultWhenUnset(t *testing.T) {
	os.Unsetenv("SCANARIUM_TEST_VAR_UNSET")
	assert.Equal(t, "default", envOr("SCANARIUM_TEST_VAR_UNSET", "default"))
}

func TestRunReturnsOneOnUnknownFlag(t *testing.T) {
	assert.Equal(t, 1, run([]string{"-not-a-real-flag"}))
}

func TestRunReturnsOneWhenConfigDirMissingBaseFile(t *testing.T) {
	configDir := t.TempDir()
	exit := run([]string{"-config-dir", configDir, "-scenes-dir", t.TempDir(), "-dynamic-dir", t.TempDir()})
	assert.Equal(t, 1, exit)
}

func TestRunReturnsOneWhenSourceMissing(t *testing.T) {
	configDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "scanarium.toml"), []byte("[qr-code]\nmappings = \"\"\n"), 0o644))

	exit := run([]string{
		"-config-dir", configDir, "-scenes-dir", t.TempDir(), "-dynamic-dir", t.TempDir(),
		"-source", filepath.Join(t.TempDir(), "missing.png"),
	})
	assert.Equal(t, 1, exit)
}

func TestEmitSuccessReturnsZero(t *testing.T) {
	result := runenv.NewResult("ok-path", nil)
	assert.Equal(t, 0, emit(false, result))
}

func TestEmitFailureReturnsOne(t *testing.T) {
	result := runenv.NewResult(nil, scanerr.New(scanerr.NoQrCode, "no qr", nil))
	assert.Equal(t, 1, emit(false, result))
}

func TestReportWrapsErrorIntoFailureEnvelope(t *testing.T) {
	assert.Equal(t, 1, report(false, nil, scanerr.New(scanerr.NoQrCode, "no qr", nil)))
}
