// Command scanarium-qr writes the QR code of a single coloring sheet to a
// standalone PNG, JPEG or SVG file, picked by the output extension.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/scanarium/scanarium-go/internal/qrexport"
	"github.com/scanarium/scanarium-go/internal/qrscan"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("scanarium-qr", flag.ContinueOnError)
	command := fs.String("command", "", "command (scene) the sheet belongs to")
	parameter := fs.String("parameter", "", "parameter (actor) the sheet belongs to")
	version := fs.Int("d", 1, "decoration version embedded in the payload")
	size := fs.Int("size", 256, "rendered edge length in pixels")
	output := fs.String("o", "qr.png", "output path; extension selects png, jpg or svg")
	mappings := fs.String("mappings", "", "qr-code.mappings value used to abbreviate the payload")
	configDir := fs.String("config-dir", envOr("SCANARIUM_CONFIG_DIR", "config"), "configuration directory (for %CONF_DIR% in mappings)")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	var format qrexport.Format
	switch filepath.Ext(*output) {
	case ".png":
		format = qrexport.FormatPNG
	case ".jpg", ".jpeg":
		format = qrexport.FormatJPEG
	case ".svg":
		format = qrexport.FormatSVG
	default:
		fmt.Fprintf(os.Stderr, "unsupported output extension on %s\n", *output)
		return 1
	}

	err := qrexport.Export(qrexport.Request{
		Command:    *command,
		Parameter:  *parameter,
		Version:    *version,
		Mappings:   qrscan.ParseMappings(*mappings),
		ConfDir:    *configDir,
		Size:       *size,
		OutputPath: *output,
		Format:     format,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
