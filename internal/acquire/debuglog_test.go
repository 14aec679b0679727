package acquire

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogRawImageEmitsWhenEnabled(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	gates := DebugGates{LogRawImages: true}
	gates.LogRawImage(logger, 640, 480)

	assert.Contains(t, buf.String(), "captured raw image")
	assert.Contains(t, buf.String(), "width=640")
}

func TestLogRawImageSilentWhenDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	gates := DebugGates{LogRawImages: false}
	gates.LogRawImage(logger, 640, 480)

	assert.Empty(t, buf.String())
}
