package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/video-stream/transcriber/internal/api"
	"github.com/video-stream/transcriber/internal/fetch"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.Port = port
		}

		svc, err := newServices(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		router, limiter := api.NewRouter(cfg, api.Deps{
			Runner:  svc.pipeline,
			History: svc.store,
			Engines: svc.engines,
			Device:  svc.device,
		})
		if limiter != nil {
			defer limiter.Stop()
			log.Printf("Rate limit: %d requests/minute per client", cfg.RateLimit)
		}

		if n, err := fetch.SweepStale(cfg.DownloadPath, time.Hour); err != nil {
			log.Printf("Download sweep failed: %v", err)
		} else if n > 0 {
			log.Printf("Removed %d stale downloads from %s", n, cfg.DownloadPath)
		}

		addr := fmt.Sprintf(":%d", cfg.Port)
		server := &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		go func() {
			<-ctx.Done()
			log.Println("Shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			server.Shutdown(shutdownCtx)
		}()

		log.Printf("Starting server on %s", addr)
		log.Printf("Database: %s, downloads: %s, static: %s", cfg.DBPath, cfg.DownloadPath, cfg.StaticPath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}
