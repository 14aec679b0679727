// Package runenv is Scanarium's runtime environment: the seam through
// which every component invokes external processes, reads/writes JSON, and
// resolves versioned/staleness-checked filenames.
package runenv

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/scanarium/scanarium-go/internal/scanconfig"
	"github.com/scanarium/scanarium-go/internal/scanerr"
)

// DefaultTimeout is applied when a caller does not override it.
const DefaultTimeout = 10 * time.Second

// Env bundles the directories and config every component needs; both cli
// entry points construct exactly one.
type Env struct {
	Config       *scanconfig.Config
	BackendDir   string
	ScenesDir    string
	DynamicDir   string
	ConfigDir    string
	CommandsDir  string
	ImagesDir    string
	L10nDir      string
	FineGrained  func() bool
}

// Run executes command with a timeout, translating OS/timeout/non-zero-exit
// failures into tagged errors the way Environment.run does. It always reaps
// the child process and returns its stdout on success.
func (e *Env) Run(ctx context.Context, name string, args []string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return "", scanerr.New(scanerr.Timeout,
			"The command \"{command}\" did not finish within {timeout} seconds",
			map[string]any{"command": append([]string{name}, args...), "timeout": timeout.Seconds()})
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", scanerr.New(scanerr.ReturnValue,
				"The command \"{command}\" did not return 0",
				map[string]any{"command": append([]string{name}, args...)})
		}
		return "", scanerr.NewWithPrivate(scanerr.ReturnValue,
			"The command \"{command}\" could not be started",
			map[string]any{"command": append([]string{name}, args...)},
			map[string]any{"os_error": err.Error()})
	}
	return stdout.String(), nil
}

// CallGuarded runs fn, catching any error, logging nothing itself (the
// caller's command logger does that), and always producing a Result instead
// of letting a panic or raw error escape. The CGI `Content-Type` framing
// lives at the cmd/ entry point.
func CallGuarded(fn func() (any, error)) *Result {
	payload, err := safeCall(fn)
	return NewResult(payload, err)
}

func safeCall(fn func() (any, error)) (payload any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// Result is the response envelope handed back to clients: a success
// payload, or `{code, message, uuid}` on failure.
type Result struct {
	OK      bool           `json:"ok"`
	Payload any            `json:"payload,omitempty"`
	Code    string         `json:"code,omitempty"`
	Message string         `json:"message,omitempty"`
	UUID    string         `json:"uuid,omitempty"`
}

// NewResult builds the envelope from a payload/error pair.
func NewResult(payload any, err error) *Result {
	if err == nil {
		return &Result{OK: true, Payload: payload}
	}
	if se, ok := err.(*scanerr.Error); ok {
		return &Result{
			OK:      false,
			Code:    string(se.Code),
			Message: se.Message(),
			UUID:    se.UUID.String(),
		}
	}
	return &Result{OK: false, Code: "SE_UNEXPECTED", Message: err.Error()}
}

// DumpJSON writes v to path as pretty-printed JSON with deterministic key
// order, so staleness checks downstream stay reproducible.
func DumpJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// DumpJSONString renders v as a JSON string, the building block CGI-style
// entry points use to write `Content-Type: application/json` bodies.
func DumpJSONString(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

var versionFileRe = regexp.MustCompile(`^decoration-d-([1-9][0-9]*)\.svg$`)

// LatestDecorationVersion scans the config dir for `decoration-d-<N>.svg`
// files and returns the highest N. The directory is rescanned on every
// call; the result is not cached.
func (e *Env) LatestDecorationVersion() (int, error) {
	entries, err := os.ReadDir(e.ConfigDir)
	if err != nil {
		return 0, err
	}
	best := 0
	for _, ent := range entries {
		m := versionFileRe.FindStringSubmatch(ent.Name())
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		if n > best {
			best = n
		}
	}
	if best == 0 {
		return 0, scanerr.New("SE_NO_DECORATION", "No decoration-d-<N>.svg found in {dir}",
			map[string]any{"dir": e.ConfigDir})
	}
	return best, nil
}

// VersionedFilename builds `<base>-d-<v>.<ext>` inside dir, the shared
// naming scheme both the generator and the scan pipeline rely on.
func VersionedFilename(dir, base, ext string, version int) string {
	return filepath.Join(dir, fmt.Sprintf("%s-d-%d.%s", base, version, ext))
}

// FileNeedsUpdate implements the generator's staleness rule: a target is stale if missing, force is set, or any
// source is newer than it.
func FileNeedsUpdate(target string, sources []string, force bool) bool {
	if force {
		return true
	}
	targetInfo, err := os.Stat(target)
	if err != nil {
		return true
	}
	for _, src := range sources {
		srcInfo, err := os.Stat(src)
		if err != nil {
			// A missing declared source is surprising but not our call to
			// police; treat it conservatively as "needs regeneration" so
			// the failure surfaces where the source is actually read.
			return true
		}
		if srcInfo.ModTime().After(targetInfo.ModTime()) {
			return true
		}
	}
	return false
}

// TimestampForFilename returns the timestamp used to name scan artifacts
// (`<timestamp>.png`).
func TimestampForFilename(now time.Time) string {
	return fmt.Sprintf("%d", now.UnixMilli())
}

// ToSafeFilename sanitizes a localized label into a filesystem-safe base
// name.
func ToSafeFilename(s string) string {
	var b []rune
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_':
			b = append(b, r)
		case r == ' ':
			b = append(b, '_')
		}
	}
	if len(b) == 0 {
		return "untitled"
	}
	return string(b)
}
