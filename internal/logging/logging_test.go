package logging

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupInstallsDefaultLoggerAtInfoLevel(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	Setup(0, w)
	assert.False(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelInfo))
}

func TestSetupVerboseEnablesDebugLevel(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	Setup(1, w)
	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))
}

func TestIsTerminalFalseForPipe(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	assert.False(t, isTerminal(w))
}

func TestWithFieldsReturnsNonNilLogger(t *testing.T) {
	logger := WithFields(context.Background(), "component", "test")
	assert.NotNil(t, logger)
}

func TestElapsedReturnsNonNegativeDuration(t *testing.T) {
	start := time.Now().Add(-10 * time.Millisecond)
	d := Elapsed(start)
	assert.GreaterOrEqual(t, d, 10*time.Millisecond)
}
