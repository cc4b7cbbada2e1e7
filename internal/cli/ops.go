package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/gazette/internal/transport/ops"
)

var opsCmd = &cobra.Command{
	Use:   "ops",
	Short: "Run the operational HTTP listener (health, readiness, metrics)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		srv := ops.NewServer(&ops.Config{
			Port:            app.Cfg.Ops.Port,
			ReadTimeoutSec:  app.Cfg.Ops.ReadTimeoutSec,
			WriteTimeoutSec: app.Cfg.Ops.WriteTimeoutSec,
		}, app.Health, app.Logger)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		select {
		case err := <-errCh:
			return err
		case <-quit:
		}
		app.Logger.Info("received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			time.Duration(app.Cfg.Ops.ShutdownSec)*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Error("error during shutdown", zap.Error(err))
			return err
		}
		app.Logger.Info("ops listener stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(opsCmd)
}
