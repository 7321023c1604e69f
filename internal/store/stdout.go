package store

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// JSONStdoutWriter prints rows as JSON lines to STDOUT. Useful for
// development and for piping the history stream into other tools.
type JSONStdoutWriter struct {
	out io.Writer
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout}
}

// WriteTelemetry outputs a telemetry history row in JSON format.
func (w *JSONStdoutWriter) WriteTelemetry(row TelemetryRow) error {
	data, _ := json.Marshal(row)
	fmt.Fprintln(w.out, string(data))
	return nil
}

// WriteEvent outputs an event record in JSON format.
func (w *JSONStdoutWriter) WriteEvent(row EventRow) error {
	data, _ := json.Marshal(row)
	fmt.Fprintln(w.out, string(data))
	return nil
}
