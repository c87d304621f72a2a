package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pakornb/moto-loan-intake/internal/config"
	"github.com/pakornb/moto-loan-intake/internal/core/domain"
	"github.com/pakornb/moto-loan-intake/internal/infrastructure/queue/nats"
	"github.com/pakornb/moto-loan-intake/internal/infrastructure/repository/postgres"
	"github.com/pakornb/moto-loan-intake/internal/observability/logging"
	"github.com/pakornb/moto-loan-intake/internal/observability/metrics"
)

const service = "worker"

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger(service, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}
	defer db.Close()

	ledger := postgres.NewLedgerRepository(db)
	if err := ledger.EnsureSchema(ctx); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubjectPrefix)
	if err != nil {
		log.Fatalf("init message queue: %v", err)
	}
	defer queue.Close()

	workerMetrics := metrics.NewWorkerMetrics(service)
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		slog.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("worker metrics server error: %v", err)
		}
	}()

	slog.Info("worker_subscribed", "subject_prefix", cfg.NATSSubjectPrefix)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		err := queue.SubscribeDecisions(ctx, func(handlerCtx context.Context, event domain.DecisionEvent) error {
			return handleEvent(handlerCtx, workerMetrics, "decision", event.OccurredAt, func(c context.Context) error {
				return ledger.InsertDecision(c, event)
			})
		})
		if err != nil {
			slog.Error("decision_subscription_ended", "error", err)
		}
	}()

	go func() {
		defer wg.Done()
		err := queue.SubscribeFeedback(ctx, func(handlerCtx context.Context, event domain.FeedbackEvent) error {
			return handleEvent(handlerCtx, workerMetrics, "feedback", event.OccurredAt, func(c context.Context) error {
				return ledger.InsertFeedback(c, event)
			})
		})
		if err != nil {
			slog.Error("feedback_subscription_ended", "error", err)
		}
	}()

	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("worker_metrics_shutdown_error", "error", err)
	}
}

func handleEvent(ctx context.Context, m *metrics.WorkerMetrics, event string, occurredAt time.Time, insert func(context.Context) error) error {
	m.StartEvent()
	m.ObserveEventLag(service, time.Since(occurredAt))
	start := time.Now()

	insertCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	err := insert(insertCtx)

	m.FinishEvent(service, event, time.Since(start), err)
	return err
}
