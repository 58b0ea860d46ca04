package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/profilesketch/sketcher/internal/analysis"
	"github.com/profilesketch/sketcher/internal/config"
	"github.com/profilesketch/sketcher/internal/credential"
	"github.com/profilesketch/sketcher/internal/handlers"
)

func newServeCmd() *cobra.Command {
	var (
		port     string
		provider string
		model    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server and analysis proxy",
		Long: `Starts the Sketcher web interface and JSON API.

Browsers upload screenshots into a session, configure their API key once and
submit the batch for analysis. POST /api/analyze is also available as a
stateless proxy taking base64 images directly.`,
		Example: `  # Start server on default port 8001
  sketcher serve

  # Use OpenAI instead of Volcengine on a custom port
  sketcher serve --port 3000 --provider openai --model gpt-4o`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if port != "" {
				cfg.Port = port
			}
			if provider != "" {
				cfg.Provider = provider
			}
			if model != "" {
				cfg.Model = model
			}

			store, err := credential.OpenSQLStore(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					slog.Error("Unable to close credential store", "err", err)
				}
			}()

			svc, err := analysis.NewService(cfg)
			if err != nil {
				return fmt.Errorf("failed to configure analysis: %w", err)
			}

			corsHandler := cors.New(cors.Options{
				AllowedOrigins: cfg.AllowedOrigins,
				AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
				MaxAge:         300,
			})

			addr := ":" + cfg.Port
			server := &http.Server{
				Addr:    addr,
				Handler: corsHandler.Handler(handlers.New(cfg, store, svc).Routes()),
			}

			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Sketcher interface available", "addr", addr, "url", "http://localhost"+addr, "provider", cfg.Provider)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

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

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (default $SKETCHER_PORT or 8001)")
	cmd.Flags().StringVar(&provider, "provider", "", "Analysis provider: volcano, openai, ollama, gemini or stub")
	cmd.Flags().StringVar(&model, "model", "", "Model name passed to the provider")

	return cmd
}
