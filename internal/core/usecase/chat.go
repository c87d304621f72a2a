package usecase

import (
	"context"
	"log/slog"

	"github.com/pakornb/moto-loan-intake/internal/core/domain"
)

// generalChat answers the turn conversationally. No-op until the session
// has seen at least one user message.
func (uc *IntakeUseCase) generalChat(ctx context.Context, s *domain.Session) {
	if !s.HasUserMessage() {
		return
	}

	reply, err := uc.chat.Reply(ctx, s.Messages, "")
	if err != nil {
		slog.Warn("chat_reply_failed", "session_id", s.ID, "error", err)
		uc.metrics.CapabilityFailure("contextual_reply")
		reply = uc.msgs.RetryGeneric
	}
	s.Append(domain.RoleAssistant, reply)
}
