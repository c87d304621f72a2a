package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/pakornb/moto-loan-intake/internal/core/domain"
	"github.com/pakornb/moto-loan-intake/internal/infrastructure/resilience"
)

// Queue publishes application lifecycle events to NATS and lets the ledger
// worker subscribe to them. Subjects are <prefix>.decision, <prefix>.feedback
// and <prefix>.reset.
type Queue struct {
	conn          *nats.Conn
	subjectPrefix string
	executor      *resilience.Executor
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func New(url, subjectPrefix string) (*Queue, error) {
	return NewWithOptions(url, subjectPrefix, Options{})
}

func NewWithOptions(url, subjectPrefix string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	if subjectPrefix == "" {
		subjectPrefix = "loan"
	}

	conn, err := nats.Connect(
		url,
		nats.Name("moto-loan-intake"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:          conn,
		subjectPrefix: subjectPrefix,
		executor:      options.ResilienceExecutor,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishDecision(ctx context.Context, event domain.DecisionEvent) error {
	return q.publish(ctx, q.subjectPrefix+".decision", event)
}

func (q *Queue) PublishFeedback(ctx context.Context, event domain.FeedbackEvent) error {
	return q.publish(ctx, q.subjectPrefix+".feedback", event)
}

func (q *Queue) PublishReset(ctx context.Context, event domain.ResetEvent) error {
	return q.publish(ctx, q.subjectPrefix+".reset", event)
}

func (q *Queue) publish(ctx context.Context, subject string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event for %s: %w", subject, err)
	}

	call := func(_ context.Context) error {
		if err := q.conn.Publish(subject, payload); err != nil {
			return fmt.Errorf("nats publish %s: %w", subject, err)
		}
		return nil
	}

	if q.executor != nil {
		err = q.executor.Do(ctx, "nats_publish", classifyNATSError, call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapTemporaryIfNeeded(err)
	}
	return nil
}

// SubscribeDecisions delivers decision events to the handler from the
// workers queue group until the context is cancelled.
func (q *Queue) SubscribeDecisions(ctx context.Context, handler func(context.Context, domain.DecisionEvent) error) error {
	return subscribe(ctx, q, q.subjectPrefix+".decision", handler)
}

func (q *Queue) SubscribeFeedback(ctx context.Context, handler func(context.Context, domain.FeedbackEvent) error) error {
	return subscribe(ctx, q, q.subjectPrefix+".feedback", handler)
}

func (q *Queue) SubscribeResets(ctx context.Context, handler func(context.Context, domain.ResetEvent) error) error {
	return subscribe(ctx, q, q.subjectPrefix+".reset", handler)
}

func subscribe[T any](ctx context.Context, q *Queue, subject string, handler func(context.Context, T) error) error {
	sub, err := q.conn.QueueSubscribe(subject, "workers", func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		var event T
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			slog.Error("worker_event_decode_failed", "subject", subject, "error", err)
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, event); err != nil {
			slog.Error("worker_handler_failed", "subject", subject, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", subject, err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}
