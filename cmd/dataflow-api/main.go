// Dataflow API — HTTP сервер движка пайплайнов.
//
// Выполняет графы синхронно (POST /api/v1/execute) и ставит их
// в очередь RabbitMQ для dataflow-worker (POST /api/v1/runs).
// Без RabbitMQ сервер работает, но /runs отвечает 503.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shaiso/dataflow/internal/api"
	"github.com/shaiso/dataflow/internal/config"
	"github.com/shaiso/dataflow/internal/engine"
	"github.com/shaiso/dataflow/internal/mq"
	"github.com/shaiso/dataflow/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (default $DATAFLOW_CONFIG)")
	flag.Parse()

	logger := telemetry.SetupLogger()
	logger.Info("starting dataflow-api")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	eng, err := engine.FromConfig(cfg, logger, telemetry.NewMetrics(prometheus.DefaultRegisterer))
	if err != nil {
		logger.Error("failed to create engine", "error", err)
		os.Exit(1)
	}
	logger.Info("engine ready", "operations", eng.Registry().Count())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// RabbitMQ опционален: без него работает только синхронное выполнение
	var publisher api.RunPublisher
	mqConn, err := mq.NewConnection(cfg.AMQPURL, "dataflow-api", logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, queued runs disabled", "error", err)
	} else {
		defer mqConn.Close()
		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}
		publisher = mq.NewPublisher(mqConn, logger)
	}

	handler := api.NewHandler(api.Config{
		Engine:    eng,
		Registry:  eng.Registry(),
		Publisher: publisher,
		Logger:    logger,
	})

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	addr := config.Addr(cfg.APIPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
