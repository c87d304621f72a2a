package httpadapter

import (
	"time"

	"github.com/pakornb/moto-loan-intake/internal/core/domain"
)

// SessionView is the wire representation of a session. Stored document
// paths and raw OCR fields stay server-side; the view carries verification
// state and masked identity data only.
type SessionView struct {
	ID            string           `json:"id"`
	Messages      []domain.Message `json:"messages"`
	TotalMessages int              `json:"total_messages"`
	Documents     DocumentsView    `json:"documents"`
	UI            domain.UIState   `json:"ui"`
	Decision      *domain.Decision `json:"decision,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

type DocumentsView struct {
	Bike   BikeSlotView   `json:"bike"`
	Income IncomeSlotView `json:"income"`
	ID     IDSlotView     `json:"id"`
}

type BikeSlotView struct {
	Uploaded            bool    `json:"uploaded"`
	OK                  bool    `json:"ok"`
	CheckConfidence     float64 `json:"check_confidence,omitempty"`
	AppraisedValueTHB   int     `json:"appraised_value_thb,omitempty"`
	AppraisalConfidence float64 `json:"appraisal_confidence,omitempty"`
}

type IncomeSlotView struct {
	Uploaded         bool   `json:"uploaded"`
	OK               bool   `json:"ok"`
	HolderName       string `json:"holder_name,omitempty"`
	MonthlyIncomeTHB *int   `json:"monthly_income_thb,omitempty"`
	Employer         string `json:"employer,omitempty"`
	Period           string `json:"period,omitempty"`
}

type IDSlotView struct {
	Uploaded         bool   `json:"uploaded"`
	OK               bool   `json:"ok"`
	MaskedNationalID string `json:"masked_national_id,omitempty"`
	PersonName       string `json:"person_name,omitempty"`
}

// sessionToView renders a session snapshot. tail > 0 limits messages to the
// most recent tail entries.
func sessionToView(s *domain.Session, tail int) SessionView {
	messages := s.Messages
	if tail > 0 && len(messages) > tail {
		messages = messages[len(messages)-tail:]
	}

	return SessionView{
		ID:            s.ID,
		Messages:      messages,
		TotalMessages: len(s.Messages),
		Documents: DocumentsView{
			Bike: BikeSlotView{
				Uploaded:            s.Documents.Bike.Path != "",
				OK:                  s.Documents.Bike.OK,
				CheckConfidence:     s.Documents.Bike.CheckConfidence,
				AppraisedValueTHB:   s.Documents.Bike.AppraisedValueTHB,
				AppraisalConfidence: s.Documents.Bike.AppraisalConfidence,
			},
			Income: IncomeSlotView{
				Uploaded:         s.Documents.Income.Path != "",
				OK:               s.Documents.Income.OK,
				HolderName:       s.Documents.Income.HolderName,
				MonthlyIncomeTHB: s.Documents.Income.MonthlyIncomeTHB,
				Employer:         s.Documents.Income.Employer,
				Period:           s.Documents.Income.Period,
			},
			ID: IDSlotView{
				Uploaded:         s.Documents.ID.Path != "",
				OK:               s.Documents.ID.OK,
				MaskedNationalID: domain.MaskThaiCitizenID(s.Documents.ID.NationalID),
				PersonName:       s.Documents.ID.PersonName,
			},
		},
		UI:        s.UI,
		Decision:  s.Decision,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
