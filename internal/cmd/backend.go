package cmd

import (
	"github.com/spf13/cobra"

	"kitchen-relay/internal/common/logger"
	"kitchen-relay/internal/microservices/backend"
)

var backendCmd = &cobra.Command{
	Use:   "backend",
	Short: "Run the tables, menu and orders API",
	RunE:  runBackend,
}

func init() {
	rootCmd.AddCommand(backendCmd)
}

func runBackend(cmd *cobra.Command, args []string) error {
	cfg, ctx, stop, err := setup()
	if err != nil {
		return err
	}
	defer stop()

	lg := logger.For("bootstrap")
	lg.Info("service_started", map[string]any{"service": "backend", "http": cfg.HTTP.BackendAddr})
	if err := backend.Run(ctx, cfg); err != nil {
		lg.Error("fatal", err, nil)
		return err
	}
	return nil
}
