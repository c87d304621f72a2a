package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/pakornb/moto-loan-intake/internal/core/domain"
	"github.com/pakornb/moto-loan-intake/internal/core/ports"
)

// IntakeUseCase drives the loan-intake conversation: one ProcessEvent call
// per external event, one synchronous graph traversal per call.
type IntakeUseCase struct {
	sessions  ports.SessionStore
	intents   ports.IntentClassifier
	moto      ports.MotorcycleChecker
	appraiser ports.BikeAppraiser
	chat      ports.ChatResponder
	idReader  ports.IDCardReader
	incomes   ports.IncomeReader
	events    ports.EventPublisher

	msgs    Messages
	metrics Recorder
	now     func() time.Time
}

// Options carries the optional collaborators; zero values fall back to
// defaults.
type Options struct {
	Messages *Messages
	Metrics  Recorder
	Clock    func() time.Time
}

func NewIntakeUseCase(
	sessions ports.SessionStore,
	intents ports.IntentClassifier,
	moto ports.MotorcycleChecker,
	appraiser ports.BikeAppraiser,
	chat ports.ChatResponder,
	idReader ports.IDCardReader,
	incomes ports.IncomeReader,
	events ports.EventPublisher,
	opts Options,
) *IntakeUseCase {
	msgs := DefaultMessages()
	if opts.Messages != nil {
		msgs = *opts.Messages
	}
	metrics := Recorder(nopRecorder{})
	if opts.Metrics != nil {
		metrics = opts.Metrics
	}
	clock := time.Now
	if opts.Clock != nil {
		clock = opts.Clock
	}

	return &IntakeUseCase{
		sessions:  sessions,
		intents:   intents,
		moto:      moto,
		appraiser: appraiser,
		chat:      chat,
		idReader:  idReader,
		incomes:   incomes,
		events:    events,
		msgs:      msgs,
		metrics:   metrics,
		now:       clock,
	}
}

func (uc *IntakeUseCase) CreateSession(ctx context.Context) (*domain.Session, error) {
	session, err := uc.sessions.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

func (uc *IntakeUseCase) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	session, err := uc.sessions.View(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// ProcessEvent applies one external event to the session and runs the
// routing graph to completion. Capability failures degrade to assistant
// messages; they never surface as errors here.
func (uc *IntakeUseCase) ProcessEvent(ctx context.Context, sessionID string, event domain.Event) (*domain.Session, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}

	err := uc.sessions.Update(ctx, sessionID, func(s *domain.Session) error {
		switch event.Type {
		case domain.EventUserMessage:
			s.Append(domain.RoleUser, event.Text)
			terminal := uc.runGraph(ctx, s)
			uc.metrics.TurnProcessed(string(terminal))
		case domain.EventDocumentUploaded:
			s.SetDocumentPath(event.Kind, event.Path)
			terminal := uc.runGraph(ctx, s)
			uc.metrics.TurnProcessed(string(terminal))
		case domain.EventSatisfaction:
			uc.handleFeedback(ctx, s, event.Feedback)
		}
		s.UpdatedAt = uc.now()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("process event: %w", err)
	}

	return uc.sessions.View(ctx, sessionID)
}
