package usecase

import (
	"context"
	"log/slog"

	"github.com/pakornb/moto-loan-intake/internal/core/domain"
)

// handleFeedback reacts to the satisfaction buttons. Happy closes the
// survey; unhappy additionally arms reapply-ready so the next loan-intent
// message triggers a full reset.
func (uc *IntakeUseCase) handleFeedback(ctx context.Context, s *domain.Session, kind domain.FeedbackKind) {
	extra := uc.feedbackSystemPrompt(s, kind)
	reply, err := uc.chat.Reply(ctx, s.Messages, extra)
	if err != nil {
		slog.Warn("feedback_reply_failed", "session_id", s.ID, "kind", kind, "error", err)
		uc.metrics.CapabilityFailure("contextual_reply")
		reply = uc.msgs.FeedbackThanks
	}
	s.Append(domain.RoleAssistant, reply)

	s.UI.ShowSatisfaction = false
	s.Flags.LastFeedback = kind
	s.Flags.ReapplyReady = kind == domain.FeedbackUnhappy

	uc.metrics.FeedbackReceived(kind)
	uc.publishFeedback(ctx, s, kind)
}

func (uc *IntakeUseCase) publishFeedback(ctx context.Context, s *domain.Session, kind domain.FeedbackKind) {
	if uc.events == nil {
		return
	}
	event := domain.FeedbackEvent{SessionID: s.ID, Kind: kind, OccurredAt: uc.now()}
	if err := uc.events.PublishFeedback(ctx, event); err != nil {
		slog.Warn("publish_feedback_failed", "session_id", s.ID, "error", err)
	}
}
