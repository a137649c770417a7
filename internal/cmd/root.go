package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"kitchen-relay/internal/common/logger"
	"kitchen-relay/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "kitchen-relay",
	Short: "Relay restaurant orders from waiters to the kitchen and readiness back",
	Long: `kitchen-relay moves table orders from waiter devices to the kitchen display
and sends dish and order readiness back, either over direct LAN sockets with
service discovery or through a shared RabbitMQ hub.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		if err := cmd.Help(); err != nil {
			logger.New("bootstrap").Error("help_failed", err, nil)
		}
	},
}

// Execute executes the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file or directory (default ./config.yaml)")
}

// setup loads configuration, applies logging settings and returns a context cancelled on SIGINT/SIGTERM.
func setup() (config.Config, context.Context, context.CancelFunc, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	logger.Setup(cfg.Logging.Level, cfg.Environment)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return cfg, ctx, stop, nil
}
