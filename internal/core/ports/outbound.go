package ports

import (
	"context"
	"io"

	"github.com/pakornb/moto-loan-intake/internal/core/domain"
)

// IntentClassifier decides whether a user message expresses motorcycle-loan
// intent.
type IntentClassifier interface {
	ClassifyIntent(ctx context.Context, text string) (domain.Intent, error)
}

// MotorcycleChecker verifies that an uploaded image shows a motorcycle.
type MotorcycleChecker interface {
	CheckMotorcycle(ctx context.Context, imagePath string) (domain.MotorcycleCheck, error)
}

// BikeAppraiser estimates a fair market value for the bike image.
type BikeAppraiser interface {
	AppraiseBike(ctx context.Context, imagePath string) (domain.Appraisal, error)
}

// ChatResponder produces a contextual assistant reply over recent history.
// Compaction and sanitization of the history are the implementation's job.
type ChatResponder interface {
	Reply(ctx context.Context, history []domain.Message, extraSystem string) (string, error)
}

// IDCardReader extracts national-id and person-name fields from an ID-card
// image.
type IDCardReader interface {
	ReadIDCard(ctx context.Context, path string) (domain.IDCardFields, error)
}

// IncomeReader extracts normalized income fields from a payslip upload.
type IncomeReader interface {
	ReadIncomeProof(ctx context.Context, path string) (domain.IncomeFields, error)
}

// SessionStore owns session state. Update serializes callbacks per session
// id; no two traversals for the same session ever run concurrently.
type SessionStore interface {
	Create(ctx context.Context) (*domain.Session, error)
	View(ctx context.Context, id string) (*domain.Session, error)
	Update(ctx context.Context, id string, fn func(*domain.Session) error) error
}

// DocumentStore persists uploaded documents and returns the stored path.
type DocumentStore interface {
	Save(ctx context.Context, key string, data io.Reader) (string, error)
}

// EventPublisher emits application lifecycle events for downstream
// consumers. Publishing is best-effort from the interactive path.
type EventPublisher interface {
	PublishDecision(ctx context.Context, event domain.DecisionEvent) error
	PublishFeedback(ctx context.Context, event domain.FeedbackEvent) error
	PublishReset(ctx context.Context, event domain.ResetEvent) error
}

// DecisionLedger records completed decisions and feedback for audit.
type DecisionLedger interface {
	InsertDecision(ctx context.Context, event domain.DecisionEvent) error
	InsertFeedback(ctx context.Context, event domain.FeedbackEvent) error
}
