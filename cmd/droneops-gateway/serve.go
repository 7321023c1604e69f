package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"droneops-gateway/internal/bus"
	"droneops-gateway/internal/config"
	"droneops-gateway/internal/gateway"
	"droneops-gateway/internal/ingest"
	"droneops-gateway/internal/logging"
	"droneops-gateway/internal/session"
	"droneops-gateway/internal/store"
)

var (
	serveConfigPath string
	serveSchemaPath string
	servePrintOnly  bool
	serveLogFile    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the telemetry gateway",
	Long:  "serve connects to the fleet hub, relays drone telemetry to operator WebSocket clients, and persists flight history.",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.New()

		cfg, err := config.Load(serveConfigPath, serveSchemaPath)
		if err != nil {
			return err
		}

		writer, cleanup, err := newRowWriter(cfg, servePrintOnly, serveLogFile, log)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, cancel := context.WithCancel(logging.NewContext(context.Background(), log))
		defer cancel()

		b := bus.New(log.With("component", "bus"))
		mgr := session.NewManager(b, log.With("component", "session"),
			cfg.DisconnectTimeout.Std(), cfg.SweepInterval.Std())
		store.NewHistoryWriter(b, writer, cfg.PolicyThresholds(), log.With("component", "history"))
		snaps := store.NewSnapshotTracker(b)
		reg := gateway.NewRegistry(b, log.With("component", "registry"))
		proc := gateway.NewProcessor(b, log.With("component", "processor"), cfg.ProcessorQueueSize)
		client := ingest.New(cfg.FleetHubURL, b, mgr, log.With("component", "ingest"), cfg.CommandQueueSize)
		srv := gateway.NewServer(reg, proc, mgr, snaps, log.With("component", "server"))

		go mgr.Run(ctx)
		go proc.Run(ctx)
		go client.Run(ctx)

		errCh := make(chan error, 1)
		go func() {
			log.Info("gateway listening", "addr", cfg.ListenAddr, "fleetHub", cfg.FleetHubURL)
			errCh <- srv.Start(ctx, cfg.ListenAddr)
		}()

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-sigs:
			cancel()
			err = <-errCh
		case err = <-errCh:
			cancel()
		}
		if err == http.ErrServerClosed {
			err = nil
		}

		log.Info("gateway stopped")
		return err
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "config/gateway.yaml", "Path to gateway configuration YAML")
	serveCmd.Flags().StringVar(&serveSchemaPath, "schema", "schemas/gateway.cue", "Path to CUE schema file")
	serveCmd.Flags().BoolVar(&servePrintOnly, "print-only", false, "Print history rows to STDOUT instead of writing to DB")
	serveCmd.Flags().StringVar(&serveLogFile, "log-file", "", "Path to export telemetry/event history (JSONL)")
}
