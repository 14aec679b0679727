// Package qrscan implements QR code detection over a sequence of contrast
// values and the domain-specific payload grammar.
package qrscan

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/scanarium/scanarium-go/internal/scanerr"
)

// Payload is the parsed form of a QR payload: command, parameter, decoration
// version and any extra key/value pairs.
type Payload struct {
	Command   string
	Parameter string
	Version   int
	Extra     map[string]string
}

var sanitizeRe = regexp.MustCompile(`[^0-9A-Za-z:_]+`)

// Sanitize reduces raw to the substring after the last of `/ ? =`, then
// collapses every run of characters outside [0-9A-Za-z:_] to a single `_`.
func Sanitize(raw string) string {
	cut := -1
	for _, sep := range []byte{'/', '?', '='} {
		if i := strings.LastIndexByte(raw, sep); i > cut {
			cut = i
		}
	}
	if cut >= 0 {
		raw = raw[cut+1:]
	}
	return sanitizeRe.ReplaceAllString(raw, "_")
}

// ParsePayload parses a sanitized payload string into its command,
// parameter, optional decoration version and any extra key/value pairs.
func ParsePayload(data string) (Payload, error) {
	if len(data) > 64 || !isASCII(data) {
		return Payload{}, scanerr.New(scanerr.MalformedQr,
			"QR payload {data} is too long or not ASCII", map[string]any{"data": data})
	}

	parts := strings.Split(data, ":")
	if len(parts) < 2 {
		return Payload{}, scanerr.New(scanerr.MalformedQr,
			"QR payload {data} does not contain command and parameter", map[string]any{"data": data})
	}

	p := Payload{
		Command:   parts[0],
		Parameter: parts[1],
		Version:   1,
		Extra:     map[string]string{},
	}

	for _, kv := range parts[2:] {
		key, value, found := strings.Cut(kv, "_")
		if !found {
			key, value = kv, ""
		}
		if key == "d" {
			v, err := strconv.Atoi(value)
			if err != nil || v < 1 {
				return Payload{}, scanerr.New(scanerr.UnknownQr,
					"QR payload {data} has a non-integer decoration version {value}",
					map[string]any{"data": data, "value": value})
			}
			p.Version = v
			continue
		}
		p.Extra[key] = value
	}

	return p, nil
}

// isASCII reports whether s is decodable as ASCII, using charmap.ASCII's strict encoder
// rather than a hand-rolled byte-range check so multi-byte UTF-8 sequences
// a QR decoder might hand back are rejected rather than silently truncated.
func isASCII(s string) bool {
	_, err := charmap.ASCII.NewEncoder().String(s)
	return err == nil
}

// Serialize renders a payload back to wire form: "command:parameter:d_v",
// with no extra key_value pairs, matching the generator's "compose a
// payload to embed in a QR pixel" need.
func Serialize(command, parameter string, version int) string {
	return command + ":" + parameter + ":d_" + strconv.Itoa(version)
}
