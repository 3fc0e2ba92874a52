package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/scanlate/internal/handlers"
	"github.com/lehigh-university-libraries/scanlate/internal/storage"
	"github.com/lehigh-university-libraries/scanlate/internal/translation"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string
	var staticDir string
	var backend backendFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start web server for the translation workspace",
		Long: `Starts the Scanlate web interface on the specified port.

The workspace lives in memory: uploaded pages, the selection canvas and the
translated zones are lost when the server stops. Use the export endpoint to
keep the translations.`,
		Example: `  # Start server on default port 8888
  scanlate serve

  # Translate with a local Ollama model
  scanlate serve --provider ollama --model qwen2.5vl:7b

  # Start server on custom port
  scanlate serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			translator, closeTranslator, err := backend.translator(cmd)
			if err != nil {
				return err
			}
			defer closeTranslator()

			store := storage.New()
			orchestrator := translation.NewOrchestrator(store, translator)
			handler := handlers.New(store, orchestrator)
			handler.SetStaticDir(staticDir)

			// Set up routes
			mux := http.NewServeMux()
			handler.Routes(mux)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Scanlate interface available", "addr", addr, "url", "http://localhost"+addr)
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
				if n := orchestrator.Pending(); n > 0 {
					slog.Info("Waiting for translations in flight", "pending", n)
				}
				orchestrator.Wait()
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().StringVar(&staticDir, "static", "static", "Directory the web interface is served from")
	backend.register(cmd)

	return cmd
}
