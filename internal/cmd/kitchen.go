package cmd

import (
	"github.com/spf13/cobra"

	"kitchen-relay/internal/common/logger"
	"kitchen-relay/internal/microservices/kitchen"
)

var kitchenCmd = &cobra.Command{
	Use:   "kitchen",
	Short: "Run the kitchen display",
	Long:  `Accept orders from waiters, keep the live order board and notify tables when dishes are ready`,
	RunE:  runKitchen,
}

func init() {
	rootCmd.AddCommand(kitchenCmd)
}

func runKitchen(cmd *cobra.Command, args []string) error {
	cfg, ctx, stop, err := setup()
	if err != nil {
		return err
	}
	defer stop()

	lg := logger.For("bootstrap")
	lg.Info("service_started", map[string]any{"service": "kitchen", "mode": cfg.Transport.Mode, "http": cfg.HTTP.KitchenAddr})
	if err := kitchen.Run(ctx, cfg); err != nil {
		lg.Error("fatal", err, nil)
		return err
	}
	return nil
}
