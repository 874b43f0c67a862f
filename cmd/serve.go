package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/flyerscan/prestations/internal/handlers"
)

func newServeCmd() *cobra.Command {
	var port string
	var flags modelFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the catalog API server",
		Long: `Starts the prestations HTTP API.

The API lists and edits the catalog, accepts flyer photos for extraction,
stores prestation photos, and streams change events to connected clients.`,
		Example: `  # Start server on default port 8888
  prestations serve

  # Start server on custom port with Ollama
  prestations serve --port 3000 --provider ollama`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			flags.apply(a.cfg)
			if port != "" {
				a.cfg.Port = port
			}
			orch, err := a.orchestrator()
			if err != nil {
				return err
			}

			handler := handlers.New(a.store, orch, filepath.Join(a.cfg.DataDir, "uploads"))

			addr := a.cfg.Addr()
			server := &http.Server{
				Addr:    addr,
				Handler: handler.Routes(),
			}
			// Event streams never go idle on their own.
			server.RegisterOnShutdown(handler.Close)

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Prestations API available", "addr", addr, "url", "http://localhost"+addr, "provider", a.cfg.Provider, "storage", a.cfg.Storage, "key", a.store.Key())
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (default $PRESTATIONS_PORT or 8888)")
	flags.register(cmd)

	return cmd
}
