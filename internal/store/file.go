package store

import (
	"encoding/json"
	"os"
	"sync"
)

// FileWriter appends rows to JSONL files. eventPath may be empty to skip
// the event log.
type FileWriter struct {
	mu        sync.Mutex
	teleFile  *os.File
	eventFile *os.File
	teleEnc   *json.Encoder
	eventEnc  *json.Encoder
}

// NewFileWriter creates a FileWriter. The telemetry file is truncated;
// pass an empty eventPath to disable the event log.
func NewFileWriter(telemetryPath, eventPath string) (*FileWriter, error) {
	tf, err := os.Create(telemetryPath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{teleFile: tf, teleEnc: json.NewEncoder(tf)}
	if eventPath != "" {
		ef, err := os.Create(eventPath)
		if err != nil {
			tf.Close()
			return nil, err
		}
		fw.eventFile = ef
		fw.eventEnc = json.NewEncoder(ef)
	}
	return fw, nil
}

// WriteTelemetry logs a single telemetry history row.
func (f *FileWriter) WriteTelemetry(row TelemetryRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.teleEnc.Encode(row)
}

// WriteEvent logs a single event record, if enabled.
func (f *FileWriter) WriteEvent(row EventRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.eventEnc == nil {
		return nil
	}
	return f.eventEnc.Encode(row)
}

// Close closes the underlying files.
func (f *FileWriter) Close() error {
	var err error
	if f.teleFile != nil {
		if e := f.teleFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	if f.eventFile != nil {
		if e := f.eventFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
