// Command scanarium-scan runs one scan attempt against a configured source
// (a still file today; see internal/acquire for the live-capture seam) and
// dispatches its QR payload through the actor pipeline.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/scanarium/scanarium-go/internal/cliapp"
	"github.com/scanarium/scanarium-go/internal/runenv"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("scanarium-scan", flag.ContinueOnError)
	configDir := fs.String("config-dir", envOr("SCANARIUM_CONFIG_DIR", "config"), "configuration directory")
	scenesDir := fs.String("scenes-dir", envOr("SCANARIUM_SCENES_DIR", "scenes"), "scenes directory")
	dynamicDir := fs.String("dynamic-dir", envOr("SCANARIUM_DYNAMIC_DIR", "dynamic"), "dynamic (runtime) directory")
	overrideFile := fs.String("config", "", "override configuration file")
	source := fs.String("source", "", "override scan.source (\"image:<path>\" or a bare path)")
	asRequestHandler := fs.Bool("json", false, "emit a Content-Type/JSON response envelope to stdout")

	var verbosity int
	fs.Func("v", "increase verbosity (repeatable)", func(string) error {
		verbosity++
		return nil
	})

	if err := fs.Parse(args); err != nil {
		return 1
	}

	b, err := cliapp.New(cliapp.Options{
		ConfigDir: *configDir, ScenesDir: *scenesDir, DynamicDir: *dynamicDir,
		OverrideFile: *overrideFile, Verbosity: verbosity,
	})
	if err != nil {
		return report(*asRequestHandler, nil, err)
	}

	result, err := b.RunScan(cliapp.ScanArgs{Source: *source})
	if err != nil {
		return report(*asRequestHandler, nil, err)
	}
	return emit(*asRequestHandler, result)
}

func report(asJSON bool, payload any, err error) int {
	return emit(asJSON, runenv.NewResult(payload, err))
}

func emit(asJSON bool, result *runenv.Result) int {
	if asJSON {
		body, jsonErr := runenv.DumpJSONString(result)
		if jsonErr != nil {
			fmt.Fprintln(os.Stderr, jsonErr)
			return 1
		}
		fmt.Print("Content-Type: application/json\n\n")
		fmt.Println(body)
	} else if !result.OK {
		fmt.Fprintln(os.Stderr, result.Message)
	} else if path, ok := result.Payload.(string); ok {
		fmt.Println(path)
	}
	if !result.OK {
		return 1
	}
	return 0
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
