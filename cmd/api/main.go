package main

import (
	"net/http"
	"os"
	"time"

	"pet-daycare-portal/internal/observability/metrics"
	"pet-daycare-portal/internal/platform/config"
	"pet-daycare-portal/internal/platform/logger"
	"pet-daycare-portal/internal/router"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg := config.Load()

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})

	r := router.NewRouter(router.Options{
		Config:       cfg,
		Log:          log,
		AuthVerifier: nil, // sin verifier para modo dev
		Metrics:      metrics.NewBookingMetrics(prometheus.DefaultRegisterer),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Info("starting server", map[string]any{"addr": srv.Addr})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
