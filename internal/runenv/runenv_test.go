package runenv

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanarium/scanarium-go/internal/scanerr"
)

func TestRunReturnsStdout(t *testing.T) {
	e := &Env{}
	out, err := e.Run(context.Background(), "echo", []string{"hello"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)
}

func TestRunNonZeroExitIsReturnValue(t *testing.T) {
	e := &Env{}
	_, err := e.Run(context.Background(), "false", nil, time.Second)
	require.Error(t, err)
	assert.True(t, scanerr.As(err, scanerr.ReturnValue))
}

func TestRunTimeout(t *testing.T) {
	e := &Env{}
	_, err := e.Run(context.Background(), "sleep", []string{"5"}, 50*time.Millisecond)
	require.Error(t, err)
	assert.True(t, scanerr.As(err, scanerr.Timeout))
}

func TestRunMissingExecutable(t *testing.T) {
	e := &Env{}
	_, err := e.Run(context.Background(), "this-binary-does-not-exist-xyz", nil, time.Second)
	require.Error(t, err)
	assert.True(t, scanerr.As(err, scanerr.ReturnValue))
}

func TestCallGuardedSuccess(t *testing.T) {
	res := CallGuarded(func() (any, error) { return "payload", nil })
	assert.True(t, res.OK)
	assert.Equal(t, "payload", res.Payload)
}

func TestCallGuardedCapturesPanic(t *testing.T) {
	res := CallGuarded(func() (any, error) { panic("boom") })
	assert.False(t, res.OK)
	assert.Contains(t, res.Message, "boom")
}

func TestNewResultScanariumError(t *testing.T) {
	err := scanerr.New(scanerr.NoQrCode, "no qr", nil)
	res := NewResult(nil, err)
	assert.False(t, res.OK)
	assert.Equal(t, string(scanerr.NoQrCode), res.Code)
	assert.Equal(t, err.UUID.String(), res.UUID)
}

func TestNewResultGenericError(t *testing.T) {
	res := NewResult(nil, errors.New("boom"))
	assert.False(t, res.OK)
	assert.Equal(t, "SE_UNEXPECTED", res.Code)
}

func TestDumpJSONAndString(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	require.NoError(t, DumpJSON(path, map[string]int{"a": 1}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var m map[string]int
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, 1, m["a"])

	s, err := DumpJSONString(map[string]int{"b": 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"b":2}`, s)
}

func TestLatestDecorationVersionPicksMax(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"decoration-d-1.svg", "decoration-d-3.svg", "decoration-d-2.svg", "decoration-d-x.svg"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("<svg/>"), 0o644))
	}
	e := &Env{ConfigDir: dir}
	v, err := e.LatestDecorationVersion()
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestLatestDecorationVersionNoneFoundFails(t *testing.T) {
	dir := t.TempDir()
	e := &Env{ConfigDir: dir}
	_, err := e.LatestDecorationVersion()
	require.Error(t, err)
}

func TestVersionedFilename(t *testing.T) {
	got := VersionedFilename("/cfg", "decoration", "svg", 3)
	assert.Equal(t, filepath.Join("/cfg", "decoration-d-3.svg"), got)
}

func TestFileNeedsUpdateForce(t *testing.T) {
	assert.True(t, FileNeedsUpdate("/does/not/exist", nil, true))
}

func TestFileNeedsUpdateMissingSourceForcesUpdate(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))
	assert.True(t, FileNeedsUpdate(target, []string{filepath.Join(dir, "missing-src")}, false))
}

func TestToSafeFilename(t *testing.T) {
	assert.Equal(t, "Simple_Rocket", ToSafeFilename("Simple Rocket"))
	assert.Equal(t, "foo-bar_1", ToSafeFilename("foo-bar_1"))
	assert.Equal(t, "untitled", ToSafeFilename("###"))
}

func TestTimestampForFilenameIsNumeric(t *testing.T) {
	ts := TimestampForFilename(time.Unix(1700000000, 0))
	assert.NotEmpty(t, ts)
	for _, r := range ts {
		assert.True(t, r >= '0' && r <= '9')
	}
}
