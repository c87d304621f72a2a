package bootstrap

import (
	"context"
	"fmt"

	"github.com/pakornb/moto-loan-intake/internal/config"
	"github.com/pakornb/moto-loan-intake/internal/core/ports"
	"github.com/pakornb/moto-loan-intake/internal/core/usecase"
	"github.com/pakornb/moto-loan-intake/internal/infrastructure/extractor/payslip"
	"github.com/pakornb/moto-loan-intake/internal/infrastructure/llm/openaicompat"
	"github.com/pakornb/moto-loan-intake/internal/infrastructure/ocr"
	"github.com/pakornb/moto-loan-intake/internal/infrastructure/ocr/olmhttp"
	"github.com/pakornb/moto-loan-intake/internal/infrastructure/queue/nats"
	"github.com/pakornb/moto-loan-intake/internal/infrastructure/resilience"
	"github.com/pakornb/moto-loan-intake/internal/infrastructure/session/memory"
	"github.com/pakornb/moto-loan-intake/internal/infrastructure/storage/localfs"
	"github.com/pakornb/moto-loan-intake/internal/observability/metrics"
)

// App wires the API-side dependency graph.
type App struct {
	Config config.Config

	Intake    ports.IntakeService
	Documents ports.DocumentStore
	Queue     *nats.Queue
	Metrics   *metrics.HTTPServerMetrics

	closeFn func()
}

func New(_ context.Context, cfg config.Config) (*App, error) {
	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init document storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultPolicy())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubjectPrefix, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	llmClient := openaicompat.New(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMTextModel, cfg.LLMVisionModel, executor)
	ocrClient := olmhttp.New(cfg.OCRBaseURL, executor)
	incomeReader := ocr.NewIncomeRouter(ocrClient, payslip.New())

	sessions := memory.New(memory.Options{TTL: cfg.SessionTTL()})

	httpMetrics := metrics.NewHTTPServerMetrics("api")

	var msgs *usecase.Messages
	if cfg.MessagesFile != "" {
		loaded, err := usecase.LoadMessagesFile(cfg.MessagesFile)
		if err != nil {
			return nil, fmt.Errorf("load messages: %w", err)
		}
		msgs = &loaded
	}

	intake := usecase.NewIntakeUseCase(
		sessions,
		openaicompat.NewIntentClassifier(llmClient),
		openaicompat.NewMotorcycleChecker(llmClient),
		openaicompat.NewBikeAppraiser(llmClient),
		openaicompat.NewResponder(llmClient),
		ocrClient,
		incomeReader,
		queue,
		usecase.Options{
			Messages: msgs,
			Metrics:  metrics.NewIntakeRecorder(httpMetrics, "api"),
		},
	)

	return &App{
		Config:    cfg,
		Intake:    intake,
		Documents: storage,
		Queue:     queue,
		Metrics:   httpMetrics,

		closeFn: func() {
			queue.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
