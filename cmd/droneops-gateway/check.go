package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"droneops-gateway/internal/config"
)

var (
	checkConfigPath string
	checkSchemaPath string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the gateway configuration",
	Long:  "check loads the configuration YAML, validates it against the CUE schema, and prints the effective settings.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(checkConfigPath, checkSchemaPath)
		if err != nil {
			return err
		}

		fmt.Printf("fleet hub:          %s\n", cfg.FleetHubURL)
		fmt.Printf("listen addr:        %s\n", cfg.ListenAddr)
		fmt.Printf("disconnect timeout: %s\n", cfg.DisconnectTimeout.Std())
		fmt.Printf("sweep interval:     %s\n", cfg.SweepInterval.Std())
		if cfg.Persistence.Endpoint == "" {
			fmt.Println("persistence:        stdout")
		} else {
			fmt.Printf("persistence:        greptimedb %s/%s\n",
				cfg.Persistence.Endpoint, cfg.Persistence.Database)
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkConfigPath, "config", "config/gateway.yaml", "Path to gateway configuration YAML")
	checkCmd.Flags().StringVar(&checkSchemaPath, "schema", "schemas/gateway.cue", "Path to CUE schema file")
}
