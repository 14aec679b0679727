package cliapp

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanarium/scanarium-go/internal/acquire"
	"github.com/scanarium/scanarium-go/internal/commandlog"
	"github.com/scanarium/scanarium-go/internal/scanconfig"
)

func setupScanBootstrap(t *testing.T, tomlBody string) *Bootstrap {
	t.Helper()
	configDir, scenesDir, dynamicDir := t.TempDir(), t.TempDir(), t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "scanarium.toml"), []byte(tomlBody), 0o644))
	bs, err := New(Options{ConfigDir: configDir, ScenesDir: scenesDir, DynamicDir: dynamicDir})
	require.NoError(t, err)
	return bs
}

func TestReadSourceArgsOverrideWinsOverConfig(t *testing.T) {
	bs := setupScanBootstrap(t, "[qr-code]\nmappings = \"\"\n[scan]\nsource = \"/does/not/matter\"\n")

	path := filepath.Join(t.TempDir(), "frame.png")
	require.NoError(t, os.WriteFile(path, []byte("frame-bytes"), 0o644))

	data, err := bs.readSource(ScanArgs{Source: path})
	require.NoError(t, err)
	assert.Equal(t, "frame-bytes", string(data))
}

func TestReadSourceFallsBackToConfiguredValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	require.NoError(t, os.WriteFile(path, []byte("frame-bytes"), 0o644))

	bs := setupScanBootstrap(t, "[qr-code]\nmappings = \"\"\n[scan]\nsource = \""+path+"\"\n")

	data, err := bs.readSource(ScanArgs{})
	require.NoError(t, err)
	assert.Equal(t, "frame-bytes", string(data))
}

func TestReadSourceRejectsCameraSource(t *testing.T) {
	bs := setupScanBootstrap(t, "[qr-code]\nmappings = \"\"\n")
	_, err := bs.readSource(ScanArgs{Source: "cam:0"})
	require.Error(t, err)
}

func TestReadSourceMissingFileFails(t *testing.T) {
	bs := setupScanBootstrap(t, "[qr-code]\nmappings = \"\"\n")
	_, err := bs.readSource(ScanArgs{Source: filepath.Join(t.TempDir(), "missing.png")})
	require.Error(t, err)
}

func TestParsePayloadExpandsSanitizesAndParses(t *testing.T) {
	payload, err := parsePayload("space:rocket", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "space", payload.Command)
	assert.Equal(t, "rocket", payload.Parameter)
}

func TestIntOptAndFloatOptUseDefaultsWhenMissing(t *testing.T) {
	cfg, err := scanconfig.Load(writeTempToml(t, "[qr-code]\nmappings = \"\"\n"), "")
	require.NoError(t, err)

	assert.Equal(t, 7, intOpt(cfg, "does_not_exist", 7))
	assert.Equal(t, 3.5, floatOpt(cfg, "does_not_exist", 3.5))
}

func writeTempToml(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scanarium.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestBuildScanResourcesParsesPermitAndPipelineFlags(t *testing.T) {
	bs := setupScanBootstrap(t, "[qr-code]\nmappings = \"\"\n[scan]\ncontrasts = \"1,1.5\"\npermit_file_type_pdf = false\npipeline_file_type_pdf = \"pdftoppm\"\n")

	res, err := bs.buildScanResources()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1.5}, res.contrasts)
	assert.False(t, res.stillCfg.Permitted[acquire.FormatPDF])
	assert.Equal(t, acquire.PipelinePdftoppm, res.stillCfg.Pipelines[acquire.FormatPDF])
	assert.True(t, res.stillCfg.Permitted[acquire.FormatPNG])
	assert.Equal(t, acquire.PipelineNative, res.stillCfg.Pipelines[acquire.FormatPNG])
}

func TestRunScanMissingSourceProducesFailureEnvelopeAndLogsOneRecord(t *testing.T) {
	bs := setupScanBootstrap(t, "[qr-code]\nmappings = \"\"\n[scan]\nsource = \""+filepath.Join(t.TempDir(), "missing.png")+"\"\n")

	result, err := bs.RunScan(ScanArgs{})
	require.NoError(t, err)
	assert.False(t, result.OK)

	data, err := os.ReadFile(filepath.Join(bs.DynamicDir, "command-log.json"))
	require.NoError(t, err)
	var records []commandlog.Record
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 1)
	assert.False(t, records[0].IsOK)
}

func TestRunScanUndecodableImageBytesProducesFailureEnvelope(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

	bs := setupScanBootstrap(t, "[qr-code]\nmappings = \"\"\n[scan]\nsource = \""+path+"\"\n")

	result, err := bs.RunScan(ScanArgs{})
	require.NoError(t, err)
	assert.False(t, result.OK)
}
