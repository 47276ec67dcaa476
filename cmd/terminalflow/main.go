package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/restopay/terminalflow/internal/config"
	"github.com/restopay/terminalflow/internal/flow"
	"github.com/restopay/terminalflow/internal/metrics"
	"github.com/restopay/terminalflow/internal/payment"
	"github.com/restopay/terminalflow/internal/provider"
	"github.com/restopay/terminalflow/internal/proxy"
	"github.com/restopay/terminalflow/internal/rest"
	"github.com/restopay/terminalflow/internal/rest/middleware"
	"github.com/restopay/terminalflow/internal/terminal"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting terminalflow service",
		"port", cfg.Server.Port,
		"log_level", cfg.Logger.Level,
		"has_credential", cfg.Provider.APISecret != "",
	)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	providerClient := provider.NewHTTPClient(cfg.Provider, logger)
	retryClient := provider.NewRetryClient(providerClient, cfg.Retry)

	var source terminal.EnablementSource
	switch cfg.Terminals.Source {
	case "postgres":
		db, err := terminal.Connect(context.Background(), &cfg.Database, logger)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		source = terminal.NewPostgresSource(db)
	default:
		source = terminal.NewStaticSource(cfg.Terminals.EnabledIDs())
	}

	directory := terminal.NewDirectory(source, retryClient, logger)
	payments := payment.NewService(retryClient, cfg.Poller, m, logger)
	manager := flow.NewManager(directory, payments, m, logger)

	router := chi.NewRouter()
	rest.NewHandlers(manager, directory, logger).AppendRoutes(router)

	router.Handle("/proxy/*", http.StripPrefix("/proxy", proxy.New(cfg.Provider, logger)))
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	handler := middleware.Recovery(logger)(router)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Timeout(cfg.Server.ReadTimeout)(handler)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
