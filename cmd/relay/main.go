package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/civicgov/birth-registry/certificate-service/internal/adapters/messaging"
	"github.com/civicgov/birth-registry/certificate-service/internal/adapters/outbox"
	"github.com/civicgov/birth-registry/certificate-service/internal/config"
)

func main() {
	logger := config.NewLogger()
	logger.Info("starting outbox relay service")

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found, relying on process environment")
	}

	cfg := config.LoadRelayConfig()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Error("relay: failed to open database")
	} else {
		defer db.Close()
		logger.Info("relay: database connection initialized, circuit breaker will validate on first operation")
	}

	broker, err := messaging.NewRabbitMQBroker(cfg.RabbitMQURL, cfg.ApplicationQueue, logger)
	if err != nil {
		logger.WithError(err).Warn("relay: failed to create application event publisher")
	} else {
		defer broker.Close()
		logger.Info("relay: connected to RabbitMQ")
	}

	relayWorker := outbox.NewRelay(db, cfg.DatabaseURL, broker, logger)

	// Health check endpoint for the relay pod
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := "UP"
		httpStatus := http.StatusOK

		if !relayWorker.IsHealthy() {
			status = "DOWN"
			httpStatus = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(httpStatus)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":    status,
			"component": "outbox-relay",
		})
	})
	healthMux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		status := "UP"
		httpStatus := http.StatusOK

		if !relayWorker.IsReady() {
			status = "DOWN"
			httpStatus = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(httpStatus)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":    status,
			"component": "outbox-relay",
		})
	})

	healthServer := &http.Server{
		Addr:    cfg.HealthListenAddr,
		Handler: healthMux,
	}

	go func() {
		logger.WithField("addr", cfg.HealthListenAddr).Info("relay: starting health check server")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("relay: health server error")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Channel to capture fatal errors from the relay worker
	errChan := make(chan error, 1)

	go func() {
		logger.Info("relay: starting event processing worker")
		if err := relayWorker.Start(ctx); err != nil && err != context.Canceled {
			logger.WithError(err).Error("relay: worker error")
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal or fatal error
	select {
	case sig := <-sigChan:
		logger.WithField("signal", sig.String()).Info("relay: initiating shutdown")
		cancel()

	case err := <-errChan:
		logger.WithError(err).Error("relay: fatal error, shutting down")
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("relay: error shutting down health server")
	}

	logger.Info("relay: shutdown complete")
}
