// Package commandlog implements the append-only command-log.json record
// store.
package commandlog

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/scanarium/scanarium-go/internal/scanerr"
)

// Record is a single append-only command-log entry.
type Record struct {
	IsOK            bool     `json:"is_ok"`
	Command         *string  `json:"command"`
	Parameters      []string `json:"parameters"`
	ErrorCode       string   `json:"error_code,omitempty"`
	ErrorMessage    string   `json:"error_message,omitempty"`
	UUID            string   `json:"uuid"`
	ArtifactPath    string   `json:"artifact,omitempty"`
}

// Log appends records to a JSON array file, serializing concurrent writers
// with an in-process mutex so a long-lived process can embed this package
// from more than one goroutine.
type Log struct {
	mu   sync.Mutex
	Path string
}

func New(path string) *Log {
	return &Log{Path: path}
}

// Append adds one record to the log, creating the file with an empty array
// if it doesn't exist yet.
func (l *Log) Append(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.readLocked()
	if err != nil {
		return err
	}
	records = append(records, rec)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return scanerr.New(scanerr.PipelineError, "could not serialize command log", nil)
	}
	if err := os.WriteFile(l.Path, data, 0o644); err != nil {
		return scanerr.New(scanerr.PipelineError, "could not write command log {path}", map[string]any{"path": l.Path})
	}
	return nil
}

func (l *Log) readLocked() ([]Record, error) {
	data, err := os.ReadFile(l.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, scanerr.New(scanerr.PipelineError, "could not read command log {path}", map[string]any{"path": l.Path})
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, scanerr.New(scanerr.PipelineError, "command log {path} is not valid JSON", map[string]any{"path": l.Path})
	}
	return records, nil
}

// RecordFromResult builds a Record from a runenv.Result-shaped envelope,
// avoiding an import cycle by taking the already-unpacked fields.
func RecordFromResult(isOK bool, command *string, parameters []string, code, message, uuid, artifactPath string) Record {
	return Record{
		IsOK: isOK, Command: command, Parameters: parameters,
		ErrorCode: code, ErrorMessage: message, UUID: uuid, ArtifactPath: artifactPath,
	}
}
