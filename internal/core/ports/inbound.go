package ports

import (
	"context"

	"github.com/pakornb/moto-loan-intake/internal/core/domain"
)

// IntakeService is the inbound contract for the loan-intake conversation.
// ProcessEvent runs one synchronous traversal of the routing graph and
// returns the resulting session snapshot.
type IntakeService interface {
	CreateSession(ctx context.Context) (*domain.Session, error)
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	ProcessEvent(ctx context.Context, sessionID string, event domain.Event) (*domain.Session, error)
}
