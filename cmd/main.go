package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/motolog/internal/config"
	"github.com/ukydev/motolog/internal/db"
	"github.com/ukydev/motolog/internal/events"
	"github.com/ukydev/motolog/internal/handlers"
	"github.com/ukydev/motolog/internal/maintenance"
	"github.com/ukydev/motolog/internal/middleware"
	"github.com/ukydev/motolog/internal/models"
	"github.com/ukydev/motolog/internal/report"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	if err := config.SetupLogging(cfg.Log); err != nil {
		log.WithError(err).Fatal("Invalid logging configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	store, err := db.Open(ctx, storeOptions(cfg.Store))
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.WithError(err).Warn("Failed to close store")
		}
	}()

	publisher, err := events.New(events.MQTTConfig{
		Broker:   cfg.MQTT.Broker,
		Topic:    cfg.MQTT.Topic,
		ClientID: cfg.MQTT.ClientID,
	})
	if err != nil {
		return err
	}
	defer publisher.Close()

	service := maintenance.NewService(store, maintenance.Options{
		DateLayout: models.ISODateLayout,
		Builder:    report.Builder{Currency: cfg.Report.Currency},
		Sink:       report.FixedFile{Path: cfg.Report.Path},
		Publisher:  publisher,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(service, prometheus.NewRegistry(), cfg.Rate),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newRouter mounts the API with request id, logging, metrics and rate
// limiting. /metrics serves reg, which also gets the Go runtime and
// process collectors.
func newRouter(service *maintenance.Service, reg *prometheus.Registry, rate config.RateLimit) *mux.Router {
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := handlers.NewRouter(handlers.NewMaintenanceHandler(service))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	metrics := middleware.NewMetrics(reg)
	limiter := middleware.NewRateLimitMiddleware(rate.Requests, rate.Window, rate.TrustProxy)
	chain := []mux.MiddlewareFunc{middleware.RequestID, middleware.Logging, metrics.Instrument, limiter.RateLimit}
	r.Use(chain...)

	// mux skips Use middleware when no route matches
	r.NotFoundHandler = wrap(r.NotFoundHandler, chain)
	r.MethodNotAllowedHandler = wrap(r.MethodNotAllowedHandler, chain)
	return r
}

func wrap(h http.Handler, chain []mux.MiddlewareFunc) http.Handler {
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	return h
}

func storeOptions(c config.Store) db.Options {
	return db.Options{
		Backend:    c.Backend,
		SQLitePath: c.SQLitePath,
		MongoURI:   c.MongoURI,
		MongoDB:    c.MongoDB,
	}
}
