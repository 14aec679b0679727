package acquire

import "log/slog"

// DebugGates holds acquire's raw-image debug logging gate. It carries no
// other gate, and the debug:toggleFps / debug:toggleDevInfo pseudo-commands
// do not change it.
type DebugGates struct {
	LogRawImages bool
}

// LogRawImage emits a debug-level record for a captured raw frame when the
// gate is enabled, instead of unconditionally logging every frame.
func (g DebugGates) LogRawImage(logger *slog.Logger, width, height int) {
	if !g.LogRawImages {
		return
	}
	logger.Debug("captured raw image", "width", width, "height", height)
}
