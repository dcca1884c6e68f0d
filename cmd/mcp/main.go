package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cloudledger/costsync/clock"
	"github.com/cloudledger/costsync/cmd/mcp/tools"
	"github.com/cloudledger/costsync/logger"
	"github.com/cloudledger/costsync/model"
	"github.com/cloudledger/costsync/service/normalizer"
	"github.com/cloudledger/costsync/service/orchestrator"
	"github.com/cloudledger/costsync/service/recordstore"
	"github.com/cloudledger/costsync/service/status"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	ctx := context.Background()

	services, err := tools.BuildServices(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Provider setup error: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := services.Close(); err != nil {
			log.Warn("close failed", "error", err)
		}
	}()

	clk := clock.RealClock{}
	registry := prometheus.NewRegistry()
	store := recordstore.NewService()
	tracker := status.NewService(clk, registry)
	norm := normalizer.NewService(clk, cfg.Currency)

	granularity, err := model.ParseGranularity(cfg.Sync.Granularity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	orch := orchestrator.NewService(services.Sources, norm, store, tracker, log, orchestrator.Options{
		Clock:       clk,
		WindowDays:  cfg.Sync.WindowDays,
		Granularity: granularity,
		GroupBy:     cfg.Sync.GroupBy,
		WorkerLimit: cfg.Sync.WorkerLimit,
	})

	go serveMetrics(cfg.MetricsPort, registry, log)

	s := server.NewMCPServer(
		"costsync-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	timeout := time.Duration(cfg.Sync.TimeoutSeconds) * time.Second
	tools.RegisterSyncTools(s, orch, store, cfg.Currency, timeout)
	tools.RegisterStatusTools(s, orch)
	tools.RegisterValidationTools(s, services.Identities)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func serveMetrics(port int, registry *prometheus.Registry, log *logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info("metrics listener starting", "port", port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("metrics listener failed", "error", err)
	}
}
