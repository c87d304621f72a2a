package usecase

import (
	"context"
	"log/slog"

	"github.com/pakornb/moto-loan-intake/internal/core/domain"
)

// routerIntent classifies the newest unprocessed user message and decides
// between fresh onboarding, the post-approval guard, and the re-application
// reset. The cursor makes the stage idempotent: a turn without a new user
// message never re-classifies or re-appends prompts.
func (uc *IntakeUseCase) routerIntent(ctx context.Context, s *domain.Session) {
	idx, text, ok := s.LatestUserMessage()
	if !ok {
		return
	}
	if idx == s.Cursor {
		return
	}

	intent, err := uc.intents.ClassifyIntent(ctx, text)
	if err != nil {
		// Degrade to "no loan intent this turn" so the chat stage can
		// still answer; a stale positive intent must not route to docops.
		slog.Warn("intent_classify_failed", "session_id", s.ID, "error", err)
		uc.metrics.CapabilityFailure("classify_intent")
		s.Intent = domain.Intent{}
		s.Cursor = idx
		return
	}
	s.Intent = intent

	if intent.MotorcycleLoanIntent && s.Flags.ApprovedOnce {
		if s.Flags.ReapplyReady || s.Flags.LastFeedback == domain.FeedbackUnhappy {
			uc.resetApplication(ctx, s, true)
			s.Cursor = idx
			return
		}

		// Approval already exists and the user has not signalled a
		// re-application; steer them to clarify what changed instead of
		// re-running the pipeline.
		reply, replyErr := uc.chat.Reply(ctx, s.Messages, repeatIntentSystem)
		if replyErr != nil {
			slog.Warn("repeat_intent_reply_failed", "session_id", s.ID, "error", replyErr)
			uc.metrics.CapabilityFailure("contextual_reply")
			reply = uc.msgs.RetryGeneric
		}
		s.Append(domain.RoleAssistant, reply)
		s.UI.ShowUploads = false
		s.Cursor = idx
		return
	}

	if intent.MotorcycleLoanIntent && !s.UI.ShowUploads {
		s.UI.ShowUploads = true
		s.Append(domain.RoleAssistant, uc.msgs.Onboarding)
	}

	s.Cursor = idx
}

// resetApplication starts a new application cycle: documents, decision, and
// flags are cleared; messages and cursor are preserved.
func (uc *IntakeUseCase) resetApplication(ctx context.Context, s *domain.Session, announce bool) {
	s.ResetApplication()
	if announce {
		s.Append(domain.RoleAssistant, uc.msgs.ResetNotice)
	}
	uc.publishReset(ctx, s)
}

func (uc *IntakeUseCase) publishReset(ctx context.Context, s *domain.Session) {
	if uc.events == nil {
		return
	}
	event := domain.ResetEvent{SessionID: s.ID, OccurredAt: uc.now()}
	if err := uc.events.PublishReset(ctx, event); err != nil {
		slog.Warn("publish_reset_failed", "session_id", s.ID, "error", err)
	}
}
