// Dataflow Worker — выполняет графы из очереди runs.requested.
//
// Worker:
//   - Получает run.requested из RabbitMQ
//   - Выполняет граф движком
//   - Публикует run.completed с результатом
//
// Workers масштабируются горизонтально.
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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/dataflow/internal/config"
	"github.com/shaiso/dataflow/internal/engine"
	"github.com/shaiso/dataflow/internal/mq"
	"github.com/shaiso/dataflow/internal/telemetry"
	"github.com/shaiso/dataflow/internal/worker"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (default $DATAFLOW_CONFIG)")
	flag.Parse()

	logger := telemetry.SetupLogger()
	logger.Info("starting dataflow-worker")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	eng, err := engine.FromConfig(cfg, logger, telemetry.NewMetrics(prometheus.DefaultRegisterer))
	if err != nil {
		logger.Error("failed to create engine", "error", err)
		os.Exit(1)
	}

	// Worker без очереди бесполезен, поэтому RabbitMQ обязателен
	mqConn, err := mq.NewConnection(cfg.AMQPURL, "dataflow-worker", logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()

	if err := mq.SetupTopology(ctx, mqConn); err != nil {
		logger.Error("failed to setup topology", "error", err)
		os.Exit(1)
	}

	w := worker.New(worker.Config{
		Engine:    eng,
		Publisher: mq.NewPublisher(mqConn, logger),
		Conn:      mqConn,
		Logger:    logger,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		if !mqConn.IsConnected() {
			rw.WriteHeader(http.StatusServiceUnavailable)
			rw.Write([]byte("mq disconnected"))
			return
		}
		rw.WriteHeader(http.StatusOK)
		rw.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              config.Addr(cfg.WorkerPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := w.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		w.Stop()
		return nil
	})

	g.Go(func() error {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("worker exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("dataflow-worker stopped")
}
