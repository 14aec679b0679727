// Package cliapp wires the core packages (scanconfig, l10n, qrscan,
// actorpipeline, generator, acquire) into the two user-facing operations
// (generate sheets, scan one capture) the CLI exposes. Keeping
// this assembly in its own package instead of main.go lets it be exercised
// directly by tests without going through os.Args/os.Exit.
package cliapp

import (
	"path/filepath"

	"github.com/scanarium/scanarium-go/internal/l10n"
	"github.com/scanarium/scanarium-go/internal/qrscan"
	"github.com/scanarium/scanarium-go/internal/scanconfig"
)

// Bootstrap holds everything derived once from configuration at process
// start and reused across one CLI invocation.
type Bootstrap struct {
	Config *scanconfig.Config

	ConfigDir  string
	ScenesDir  string
	DynamicDir string

	Localizer *l10n.Localizer
	Mappings  []qrscan.MappingEntry

	Verbosity int
}

// Options configures one Bootstrap.
type Options struct {
	ConfigDir       string
	ScenesDir       string
	DynamicDir      string
	ConfigFile      string // base scanarium.toml, relative to ConfigDir unless absolute
	OverrideFile    string // optional --config flag value, takes precedence
	DefaultLanguage string
	Verbosity       int
}

// New loads configuration and builds every shared component a CLI
// subcommand needs.
func New(opts Options) (*Bootstrap, error) {
	baseFile := opts.ConfigFile
	if baseFile == "" {
		baseFile = filepath.Join(opts.ConfigDir, "scanarium.toml")
	} else if !filepath.IsAbs(baseFile) {
		baseFile = filepath.Join(opts.ConfigDir, baseFile)
	}

	cfg, err := scanconfig.Load(baseFile, opts.OverrideFile)
	if err != nil {
		return nil, err
	}
	cfg.SetConfigDir(opts.ConfigDir)

	defaultLanguage := opts.DefaultLanguage
	if defaultLanguage == "" {
		defaultLanguage = "en"
	}

	mappingsRaw, err := cfg.GetString("qr-code", "mappings", scanconfig.AllowMissing(), scanconfig.AllowEmpty())
	if err != nil {
		return nil, err
	}

	return &Bootstrap{
		Config:     cfg,
		ConfigDir:  opts.ConfigDir,
		ScenesDir:  opts.ScenesDir,
		DynamicDir: opts.DynamicDir,
		Localizer:  l10n.New(filepath.Join(opts.ConfigDir, "l10n"), defaultLanguage),
		Mappings:   qrscan.ParseMappings(mappingsRaw),
		Verbosity:  opts.Verbosity,
	}, nil
}

// FineGrainedErrors reports the debug.fine_grained_errors configuration
// value, defaulting to false, the production posture.
func (b *Bootstrap) FineGrainedErrors() bool {
	v, err := b.Config.GetBool("debug", "fine_grained_errors", scanconfig.AllowMissing(), scanconfig.WithDefault(false))
	if err != nil {
		return false
	}
	return v
}

func (b *Bootstrap) commandLogPath() string {
	return filepath.Join(b.DynamicDir, "command-log.json")
}
