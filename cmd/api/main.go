package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog/log"

	"pulselink/internal/database"
	"pulselink/internal/handlers"
	"pulselink/internal/livedata"
	"pulselink/internal/server"
	"pulselink/internal/telemetry"
)

func gracefulShutdown(apiServer *http.Server, cancel context.CancelFunc, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info().Msg("shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// Stop the status broadcaster before the listener goes away.
	cancel()

	// The server has 5 seconds to finish the requests it is currently handling.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
	done <- true
}

func main() {
	firebaseURL := os.Getenv("FIREBASE_DB_URL")
	firebaseCreds := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON")
	if firebaseURL == "" || firebaseCreds == "" {
		log.Fatal().Msg("FIREBASE_DB_URL and FIREBASE_SERVICE_ACCOUNT_JSON are required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	live, err := livedata.NewClient(ctx, firebaseURL, firebaseCreds)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize live-data client")
	}

	dbService := database.NewService()
	defer dbService.Close()

	aggregator := telemetry.NewAggregator(live, statusTTLFromEnv())
	reporter := telemetry.NewReporter(dbService.Measurements())
	handlers.InitTelemetryPackage(aggregator, reporter)
	handlers.StartStatusBroadcast(ctx, 2*time.Second)

	apiServer := server.NewServer(dbService)

	done := make(chan bool, 1)
	go gracefulShutdown(apiServer, cancel, done)

	log.Info().Str("addr", apiServer.Addr).Msg("PulseLink telemetry service started")
	if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	<-done
	log.Info().Msg("Graceful shutdown complete.")
}

func statusTTLFromEnv() time.Duration {
	raw := os.Getenv("STATUS_CACHE_TTL_MS")
	if raw == "" {
		return telemetry.DefaultStatusTTL
	}
	var ms int
	if _, err := fmt.Sscanf(raw, "%d", &ms); err != nil || ms <= 0 {
		log.Warn().Str("value", raw).Msg("Invalid STATUS_CACHE_TTL_MS, using default")
		return telemetry.DefaultStatusTTL
	}
	return time.Duration(ms) * time.Millisecond
}
