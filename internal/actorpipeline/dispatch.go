package actorpipeline

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/scanarium/scanarium-go/internal/commandlog"
	"github.com/scanarium/scanarium-go/internal/qrscan"
	"github.com/scanarium/scanarium-go/internal/runenv"
	"github.com/scanarium/scanarium-go/internal/scanerr"
)

// Dispatcher routes a parsed QR payload to either one of the supplemented
// pseudo-commands (debug:*, reset, switchScene, system:poweroff) or the
// ordinary actor pipeline, and funnels every attempt through structured
// logging and the command log.
type Dispatcher struct {
	Pipeline *Pipeline
	System   SystemController
	Log      *commandlog.Log
	Env      *runenv.Env

	// FineGrained mirrors debug.fine_grained_errors: when false, any
	// scan-detail error raised while running the actor pipeline is collapsed to a single opaque UnknownQr before it
	// reaches the command log or the caller.
	FineGrained bool

	// DebugState holds the in-process toggles debug:toggleFps/toggleDevInfo
	// flip, mirrored here rather than as package globals per the module's
	// explicit-fields-not-globals convention.
	DebugState struct {
		FPS     bool
		DevInfo bool
	}
}

// Dispatch handles one parsed payload end-to-end, always returning a
// *runenv.Result envelope (never propagating a raw error), and always
// appending exactly one command-log record.
func (d *Dispatcher) Dispatch(payload qrscan.Payload, run func(qrscan.Payload) (string, error)) *runenv.Result {
	command := payload.Command
	var artifactPath string
	var err error

	switch {
	case command == "debug" && payload.Parameter == "ok":
		// intentional no-op success path for exercising the logging funnel
	case command == "debug" && payload.Parameter == "fail":
		err = scanerr.New(scanerr.DebugFail, "debug:fail was requested", nil)
	case command == "debug" && payload.Parameter == "toggleFps":
		d.DebugState.FPS = !d.DebugState.FPS
	case command == "debug" && payload.Parameter == "toggleDevInfo":
		d.DebugState.DevInfo = !d.DebugState.DevInfo
	case command == "reset":
		err = d.reset()
	case command == "switchScene":
		err = d.switchScene(payload.Parameter)
	case command == "system" && payload.Parameter == "poweroff":
		if d.System != nil {
			err = d.System.Poweroff()
		}
	default:
		artifactPath, err = run(payload)
		err = scanerr.Collapse(err, d.FineGrained, scanerr.UnknownQrError())
	}

	result := runenv.NewResult(artifactPath, err)

	params := []string{payload.Parameter}
	if d.Log != nil {
		cmd := command
		d.Log.Append(commandlog.RecordFromResult(result.OK, &cmd, params, result.Code, result.Message, result.UUID, artifactPath))
	}
	return result
}

// reset handles the "reset" pseudo-command: best-effort clears the default
// scene back to whatever dynamic/config.json's initial value was, by
// removing the override so the generator's default applies again.
func (d *Dispatcher) reset() error {
	return d.writeDynamicConfig("")
}

// switchScene best-effort-updates dynamic/config.json's default_scene.
func (d *Dispatcher) switchScene(scene string) error {
	return d.writeDynamicConfig(scene)
}

type dynamicConfig struct {
	DefaultScene string `json:"default_scene"`
}

func (d *Dispatcher) writeDynamicConfig(scene string) error {
	if d.Env == nil {
		return nil
	}
	path := filepath.Join(d.Env.DynamicDir, "config.json")

	cfg := dynamicConfig{}
	if data, err := os.ReadFile(path); err == nil {
		json.Unmarshal(data, &cfg) // best effort: a malformed file is replaced, not fatal
	}
	cfg.DefaultScene = scene

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return nil // reset/switchScene are best-effort
	}
	return os.Rename(tmp, path)
}
