package store

// MultiWriter fans rows out to multiple writers.
type MultiWriter struct {
	writers []RowWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(writers ...RowWriter) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteTelemetry sends a telemetry row to all writers.
func (mw *MultiWriter) WriteTelemetry(row TelemetryRow) error {
	for _, w := range mw.writers {
		if err := w.WriteTelemetry(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteEvent sends an event record to all writers.
func (mw *MultiWriter) WriteEvent(row EventRow) error {
	for _, w := range mw.writers {
		if err := w.WriteEvent(row); err != nil {
			return err
		}
	}
	return nil
}
