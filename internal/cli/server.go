package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/martijn/parkapi/internal/api"
	"github.com/martijn/parkapi/pkg/logger"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Long:  "Start the REST API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := initServices()
		if err != nil {
			return err
		}
		defer services.Close()

		server := api.NewServer(cfg, services.UserService, services.DB)
		log := logger.Get()

		serverErr := make(chan error, 1)
		go func() {
			serverErr <- server.Start()
		}()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case err := <-serverErr:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case sig := <-sigChan:
			log.Info().Str("signal", sig.String()).Msg("shutting down gracefully")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		log.Info().Msg("server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
