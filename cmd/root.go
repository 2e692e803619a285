package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dealhawk/cardmatch/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "cardmatch",
	Short: "Marketplace listing to catalog card matcher",
	Long:  "Normalizes noisy marketplace listings, retrieves catalog candidates by card number, validates names and expansions, and emits calibrated-confidence matches.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// interruptContext derives a context cancelled on SIGINT or SIGTERM, so
// long-running commands stop their in-flight work and still reach their
// deferred cleanup (store close, lock release, log sync).
func interruptContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
