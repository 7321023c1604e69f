package main

import (
	"log/slog"

	"droneops-gateway/internal/config"
	"droneops-gateway/internal/store"
)

// newRowWriter sets up the history row writer based on config and flags.
// It returns the writer and a cleanup function to close any resources.
func newRowWriter(cfg *config.GatewayConfig, printOnly bool, logFile string, log *slog.Logger) (store.RowWriter, func(), error) {
	cleanup := func() {}

	writer, err := baseRowWriter(cfg, printOnly, log)
	if err != nil {
		return nil, nil, err
	}
	if logFile == "" && cfg.Persistence.LogFile != "" {
		logFile = cfg.Persistence.LogFile
	}
	if logFile == "" {
		return writer, cleanup, nil
	}

	fw, err := store.NewFileWriter(logFile, logFile+".events")
	if err != nil {
		return nil, nil, err
	}
	cleanup = func() { fw.Close() }
	return store.NewMultiWriter(writer, fw), cleanup, nil
}

// baseRowWriter chooses the underlying writer based on the printOnly flag
// and the configured GreptimeDB endpoint.
func baseRowWriter(cfg *config.GatewayConfig, printOnly bool, log *slog.Logger) (store.RowWriter, error) {
	if printOnly || cfg.Persistence.Endpoint == "" {
		return store.NewJSONStdoutWriter(), nil
	}
	return store.NewGreptimeWriter(cfg.Persistence.Endpoint, cfg.Persistence.Database, log.With("component", "greptime"))
}
