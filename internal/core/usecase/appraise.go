package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pakornb/moto-loan-intake/internal/core/domain"
)

// appraise consumes the appraisal trigger, cross-checks identity names, and
// computes the bounded credit decision. The trigger is cleared on entry so
// a failed run (mismatch, capability error) does not silently repeat; it is
// re-armed only by a later docops pass that still finds all documents ok.
func (uc *IntakeUseCase) appraise(ctx context.Context, s *domain.Session) {
	if !s.Flags.UserTriggeredAppraise {
		return
	}
	s.Flags.UserTriggeredAppraise = false

	if !s.DocumentsComplete() {
		// Unreachable via graph routing; kept as a guard.
		s.Append(domain.RoleAssistant, uc.msgs.DocsIncomplete)
		return
	}

	holder := s.Documents.Income.HolderName
	idName := s.Documents.ID.PersonName
	match := domain.RelaxedNameMatch(holder, idName)
	s.Decision = &domain.Decision{
		SamePerson:     match.Same,
		NameMatchScore: match.Score,
	}
	slog.Info("name_match",
		"session_id", s.ID,
		"score", match.Score,
		"ratio", match.Ratio,
		"token_overlap", match.TokenOverlap,
		"last_token_same", match.LastTokenSame,
		"same_person", match.Same,
	)
	if !match.Same {
		s.Append(domain.RoleAssistant, uc.msgs.NameMismatch)
		return
	}

	bike := &s.Documents.Bike
	appraisal, err := uc.appraiser.AppraiseBike(ctx, bike.Path)
	if err != nil {
		slog.Warn("appraisal_failed", "session_id", s.ID, "error", err)
		uc.metrics.CapabilityFailure("appraise_bike")
		s.Append(domain.RoleAssistant, uc.msgs.RetryGeneric)
		return
	}

	bike.AppraisedValueTHB = appraisal.ValueTHB
	bike.AppraisalConfidence = appraisal.Confidence
	bike.AppraisalNotes = appraisal.Notes

	monthlyIncome := 0
	if s.Documents.Income.MonthlyIncomeTHB != nil {
		monthlyIncome = *s.Documents.Income.MonthlyIncomeTHB
	}
	decision := domain.ComputeDecision(monthlyIncome, appraisal.ValueTHB)
	decision.SamePerson = match.Same
	decision.NameMatchScore = match.Score
	s.Decision = &decision

	s.Append(domain.RoleAssistant, fmt.Sprintf(uc.msgs.DecisionSummary,
		domain.FormatTHB(decision.ApprovedAmountTHB),
		decision.Reason,
		appraisal.Confidence,
	))

	s.UI.ShowUploads = false
	s.UI.ShowSatisfaction = true
	s.Flags.ApprovedOnce = true

	uc.metrics.AppraisalCompleted(decision.ApprovedAmountTHB)
	uc.publishDecision(ctx, s, decision)
}

func (uc *IntakeUseCase) publishDecision(ctx context.Context, s *domain.Session, decision domain.Decision) {
	if uc.events == nil {
		return
	}
	event := domain.DecisionEvent{
		SessionID:         s.ID,
		ApprovedAmountTHB: decision.ApprovedAmountTHB,
		IncomeCapTHB:      decision.IncomeCapTHB,
		BikeCapTHB:        decision.BikeCapTHB,
		LimitingFactor:    decision.LimitingFactor,
		NameMatchScore:    decision.NameMatchScore,
		OccurredAt:        uc.now(),
	}
	if err := uc.events.PublishDecision(ctx, event); err != nil {
		slog.Warn("publish_decision_failed", "session_id", s.ID, "error", err)
	}
}
