package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/qualbot/qualbot/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and websocket chat server",
	Long: `Serves the JSON question-answering API, the ingestion endpoint and the
websocket chat endpoint. The server shuts down gracefully on SIGINT or
SIGTERM. When fallback hot reload is enabled, edits to the curated answer
table take effect without a restart.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		port, _ := cmd.Flags().GetInt("port")
		if port > 0 {
			cfg.Server.Port = port
		}

		a, err := buildApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.close()

		if cfg.Fallback.HotReload {
			if err := a.matcher.Watch(ctx, cfg.Fallback.Path); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: fallback hot reload disabled: %v\n", err)
			}
		}

		srv := server.New(server.Config{Port: cfg.Server.Port, AllowAll: cfg.Server.AllowAll}, a.engine)

		errCh := make(chan error, 1)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
