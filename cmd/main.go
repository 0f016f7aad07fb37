package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/linguaflow/linguaflow-backend/internal/app"
	"github.com/linguaflow/linguaflow-backend/internal/observability"
	"github.com/linguaflow/linguaflow-backend/internal/platform/envutil"
	"github.com/linguaflow/linguaflow-backend/internal/realtime"
)

func main() {
	_ = godotenv.Load()

	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()
	log := a.Log

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := observability.InitOTel(rootCtx, log, observability.OtelConfig{
		ServiceName: "linguaflow-backend",
		Environment: os.Getenv("APP_ENV"),
		Version:     os.Getenv("APP_VERSION"),
	})
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Warn("Tracing shutdown", "error", err)
		}
	}()

	port := envutil.GetEnv("PORT", "8080", log)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		log.Info("HTTP server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if a.Bus != nil {
		g.Go(func() error {
			// Log-only subscriber; drops out cleanly on shutdown.
			err := a.Bus.Subscribe(gctx, func(event realtime.Event) {
				log.Debug("Generation event", "type", event.Type, "entity_id", event.EntityID)
			})
			if err != nil && gctx.Err() == nil {
				log.Warn("Event subscription ended", "error", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("Server stopped")
}
