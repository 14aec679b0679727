// Command scanarium-generate builds coloring-sheet artifacts (SVG, PNG, JPG,
// PDF) for one or every scene/actor, plus the top-level indexes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/scanarium/scanarium-go/internal/cliapp"
	"github.com/scanarium/scanarium-go/internal/runenv"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("scanarium-generate", flag.ContinueOnError)
	language := fs.String("language", "all", "language code, or \"all\"")
	force := fs.Bool("force", false, "regenerate even when NOT stale")
	watch := fs.Bool("watch", false, "keep running, regenerating when sources change")
	configDir := fs.String("config-dir", envOr("SCANARIUM_CONFIG_DIR", "config"), "configuration directory")
	scenesDir := fs.String("scenes-dir", envOr("SCANARIUM_SCENES_DIR", "scenes"), "scenes directory")
	dynamicDir := fs.String("dynamic-dir", envOr("SCANARIUM_DYNAMIC_DIR", "dynamic"), "dynamic (runtime) directory")
	overrideFile := fs.String("config", "", "override configuration file")
	asRequestHandler := fs.Bool("json", false, "emit a Content-Type/JSON response envelope to stdout")

	var verbosity int
	fs.Func("v", "increase verbosity (repeatable)", func(string) error {
		verbosity++
		return nil
	})

	if err := fs.Parse(args); err != nil {
		return 1
	}

	var command, parameter string
	if rest := fs.Args(); len(rest) > 0 {
		command = rest[0]
		if len(rest) > 1 {
			parameter = rest[1]
		}
	}

	b, err := cliapp.New(cliapp.Options{
		ConfigDir: *configDir, ScenesDir: *scenesDir, DynamicDir: *dynamicDir,
		OverrideFile: *overrideFile, Verbosity: verbosity,
	})
	if err != nil {
		return report(*asRequestHandler, nil, err)
	}

	genArgs := cliapp.GenerateArgs{
		Command: command, Parameter: parameter, Language: *language, Force: *force,
	}
	written, err := b.RunGenerate(genArgs)
	if !*watch || err != nil {
		return report(*asRequestHandler, written, err)
	}

	report(*asRequestHandler, written, nil)
	watchErr := b.WatchGenerate(context.Background(), genArgs, 500*time.Millisecond,
		func(files []string, passErr error) {
			report(*asRequestHandler, files, passErr)
		})
	if watchErr != nil && watchErr != context.Canceled {
		fmt.Fprintln(os.Stderr, watchErr)
		return 1
	}
	return 0
}

func report(asJSON bool, payload any, err error) int {
	result := runenv.NewResult(payload, err)
	if asJSON {
		body, jsonErr := runenv.DumpJSONString(result)
		if jsonErr != nil {
			fmt.Fprintln(os.Stderr, jsonErr)
			return 1
		}
		fmt.Print("Content-Type: application/json\n\n")
		fmt.Println(body)
	} else if err != nil {
		fmt.Fprintln(os.Stderr, err)
	} else {
		for _, path := range payload.([]string) {
			fmt.Println(path)
		}
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
