package usecase

import (
	"fmt"
	"strings"

	"github.com/pakornb/moto-loan-intake/internal/core/domain"
)

const repeatIntentSystem = "The user is trying to start another motorcycle loan in the same session after an approval already exists.\n" +
	"Politely ask what changed (bike, income, corrections). Offer to start a new application if they confirm."

// feedbackSystemPrompt embeds the numeric decision context and a
// disposition matching the pressed button into the chat capability's extra
// system instructions.
func (uc *IntakeUseCase) feedbackSystemPrompt(s *domain.Session, kind domain.FeedbackKind) string {
	monthlyIncome := 0
	if s.Documents.Income.MonthlyIncomeTHB != nil {
		monthlyIncome = *s.Documents.Income.MonthlyIncomeTHB
	}
	incomeCap := monthlyIncome / 2
	bikeCap := s.Documents.Bike.AppraisedValueTHB
	approved := 0
	if s.Decision != nil {
		approved = s.Decision.ApprovedAmountTHB
	}
	limiting := domain.LimitedByBike
	if incomeCap <= bikeCap {
		limiting = domain.LimitedByIncome
	}

	lines := []string{
		"You are a Thai motorcycle-loan assistant.",
		"Keep replies concise (2–4 short sentences), friendly, and non-binding.",
		"Policy math: approved ≤ min(50% of monthly income, appraised bike value).",
		fmt.Sprintf("Context: approved=%s THB, monthly_income=%s THB, income_cap(50%%)=%s THB, bike_appraisal=%s THB, limiting_factor=%s.",
			domain.FormatTHB(approved),
			domain.FormatTHB(monthlyIncome),
			domain.FormatTHB(incomeCap),
			domain.FormatTHB(bikeCap),
			limiting,
		),
		"Write in Thai.",
	}

	if kind == domain.FeedbackHappy {
		lines = append(lines,
			"The user clicked a 'Happy' button.",
			"Congratulate briefly and summarize next steps (identity verification, contract signing).",
			"Optionally invite questions (payout timing, repayment).",
			"Do NOT promise outcomes beyond the shown approval.",
		)
	} else {
		lines = append(lines,
			"The user clicked an 'Unhappy' button.",
			"Be empathetic. Ask what loan amount they hoped to get.",
			"Explain succinctly which factor likely limited the amount (income or bike value).",
			"Offer actionable next steps: newer income proof if higher, increase income, or use a higher-value bike.",
			"Explain the rule transparently: for target amount X, monthly income should be at least ~2×X (and still ≤ bike value).",
		)
	}

	return strings.Join(lines, "\n")
}
