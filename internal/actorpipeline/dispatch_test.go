package actorpipeline

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanarium/scanarium-go/internal/commandlog"
	"github.com/scanarium/scanarium-go/internal/qrscan"
	"github.com/scanarium/scanarium-go/internal/runenv"
	"github.com/scanarium/scanarium-go/internal/scanerr"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, string) {
	t.Helper()
	dynamicDir := t.TempDir()
	return &Dispatcher{
		Log: commandlog.New(filepath.Join(dynamicDir, "command-log.json")),
		Env: &runenv.Env{DynamicDir: dynamicDir},
	}, dynamicDir
}

func readLogRecords(t *testing.T, dynamicDir string) []commandlog.Record {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dynamicDir, "command-log.json"))
	require.NoError(t, err)
	var records []commandlog.Record
	require.NoError(t, json.Unmarshal(data, &records))
	return records
}

func TestDispatchDebugOkIsNoopSuccess(t *testing.T) {
	d, dynamicDir := newTestDispatcher(t)

	result := d.Dispatch(qrscan.Payload{Command: "debug", Parameter: "ok"}, func(qrscan.Payload) (string, error) {
		t.Fatal("run should not be invoked for a debug pseudo-command")
		return "", nil
	})

	assert.True(t, result.OK)
	records := readLogRecords(t, dynamicDir)
	require.Len(t, records, 1)
	assert.True(t, records[0].IsOK)
	assert.Equal(t, "debug", *records[0].Command)
}

func TestDispatchDebugFailProducesErrorResult(t *testing.T) {
	d, dynamicDir := newTestDispatcher(t)

	result := d.Dispatch(qrscan.Payload{Command: "debug", Parameter: "fail"}, nil)

	assert.False(t, result.OK)
	assert.Equal(t, string(scanerr.DebugFail), result.Code)
	records := readLogRecords(t, dynamicDir)
	require.Len(t, records, 1)
	assert.False(t, records[0].IsOK)
	assert.Equal(t, string(scanerr.DebugFail), records[0].ErrorCode)
}

func TestDispatchDebugToggleFpsFlipsState(t *testing.T) {
	d, _ := newTestDispatcher(t)

	assert.False(t, d.DebugState.FPS)
	d.Dispatch(qrscan.Payload{Command: "debug", Parameter: "toggleFps"}, nil)
	assert.True(t, d.DebugState.FPS)
	d.Dispatch(qrscan.Payload{Command: "debug", Parameter: "toggleFps"}, nil)
	assert.False(t, d.DebugState.FPS)
}

func TestDispatchDebugToggleDevInfoFlipsState(t *testing.T) {
	d, _ := newTestDispatcher(t)

	d.Dispatch(qrscan.Payload{Command: "debug", Parameter: "toggleDevInfo"}, nil)
	assert.True(t, d.DebugState.DevInfo)
}

func TestDispatchResetClearsDefaultScene(t *testing.T) {
	d, dynamicDir := newTestDispatcher(t)
	require.NoError(t, os.WriteFile(filepath.Join(dynamicDir, "config.json"), []byte(`{"default_scene":"space"}`), 0o644))

	result := d.Dispatch(qrscan.Payload{Command: "reset"}, nil)
	assert.True(t, result.OK)

	data, err := os.ReadFile(filepath.Join(dynamicDir, "config.json"))
	require.NoError(t, err)
	var cfg dynamicConfig
	require.NoError(t, json.Unmarshal(data, &cfg))
	assert.Equal(t, "", cfg.DefaultScene)
}

func TestDispatchSwitchSceneWritesDefaultScene(t *testing.T) {
	d, dynamicDir := newTestDispatcher(t)

	result := d.Dispatch(qrscan.Payload{Command: "switchScene", Parameter: "jungle"}, nil)
	assert.True(t, result.OK)

	data, err := os.ReadFile(filepath.Join(dynamicDir, "config.json"))
	require.NoError(t, err)
	var cfg dynamicConfig
	require.NoError(t, json.Unmarshal(data, &cfg))
	assert.Equal(t, "jungle", cfg.DefaultScene)
}

type fakeSystemController struct {
	called bool
	err    error
}

func (f *fakeSystemController) Poweroff() error {
	f.called = true
	return f.err
}

func TestDispatchSystemPoweroffCallsController(t *testing.T) {
	d, _ := newTestDispatcher(t)
	sys := &fakeSystemController{}
	d.System = sys

	result := d.Dispatch(qrscan.Payload{Command: "system", Parameter: "poweroff"}, nil)
	assert.True(t, result.OK)
	assert.True(t, sys.called)
}

func TestDispatchSystemPoweroffWithoutControllerIsNoop(t *testing.T) {
	d, _ := newTestDispatcher(t)

	result := d.Dispatch(qrscan.Payload{Command: "system", Parameter: "poweroff"}, nil)
	assert.True(t, result.OK)
}

func TestDispatchDefaultRunsPipelineAndReturnsArtifactPath(t *testing.T) {
	d, dynamicDir := newTestDispatcher(t)

	result := d.Dispatch(qrscan.Payload{Command: "space", Parameter: "rocket"}, func(p qrscan.Payload) (string, error) {
		assert.Equal(t, "space", p.Command)
		return "/dynamic/out.png", nil
	})

	assert.True(t, result.OK)
	assert.Equal(t, "/dynamic/out.png", result.Payload)
	records := readLogRecords(t, dynamicDir)
	require.Len(t, records, 1)
	assert.Equal(t, "/dynamic/out.png", records[0].ArtifactPath)
}

func TestDispatchDefaultCollapsesDetailErrorWithoutFineGrained(t *testing.T) {
	d, _ := newTestDispatcher(t)
	d.FineGrained = false

	result := d.Dispatch(qrscan.Payload{Command: "space", Parameter: "rocket"}, func(qrscan.Payload) (string, error) {
		return "", scanerr.New(scanerr.ImageTooSmall, "too small", nil)
	})

	assert.False(t, result.OK)
	assert.Equal(t, string(scanerr.UnknownQr), result.Code)
}

func TestDispatchDefaultKeepsDetailErrorWhenFineGrained(t *testing.T) {
	d, _ := newTestDispatcher(t)
	d.FineGrained = true

	result := d.Dispatch(qrscan.Payload{Command: "space", Parameter: "rocket"}, func(qrscan.Payload) (string, error) {
		return "", scanerr.New(scanerr.ImageTooSmall, "too small", nil)
	})

	assert.False(t, result.OK)
	assert.Equal(t, string(scanerr.ImageTooSmall), result.Code)
}

func TestDispatchDefaultPassesThroughNonScanError(t *testing.T) {
	d, _ := newTestDispatcher(t)

	result := d.Dispatch(qrscan.Payload{Command: "space", Parameter: "rocket"}, func(qrscan.Payload) (string, error) {
		return "", errors.New("boom")
	})

	assert.False(t, result.OK)
	assert.Equal(t, "boom", result.Message)
}
