package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pakornb/moto-loan-intake/internal/core/domain"
)

// verifyDocuments runs the pending verification for every slot that has a
// path but is not yet ok, then recomputes readiness. When all three
// documents pass, the completion message fires once per application cycle
// and the appraisal trigger is armed.
func (uc *IntakeUseCase) verifyDocuments(ctx context.Context, s *domain.Session) {
	uc.verifyBike(ctx, s)
	uc.verifyID(ctx, s)
	uc.verifyIncome(ctx, s)

	s.RecomputeNeed()

	if s.DocumentsComplete() {
		if !s.Flags.DocsCompleteAnnounced {
			s.Append(domain.RoleAssistant, uc.msgs.DocsComplete)
			s.Flags.DocsCompleteAnnounced = true
		}
		s.Flags.UserTriggeredAppraise = true
	}
}

func (uc *IntakeUseCase) verifyBike(ctx context.Context, s *domain.Session) {
	bike := &s.Documents.Bike
	if bike.Path == "" || bike.OK {
		return
	}

	check, err := uc.moto.CheckMotorcycle(ctx, bike.Path)
	if err != nil {
		slog.Warn("bike_check_failed", "session_id", s.ID, "error", err)
		uc.metrics.CapabilityFailure("check_motorcycle")
		s.Append(domain.RoleAssistant, uc.msgs.RetryGeneric)
		return
	}

	bike.IsMotorcycle = check.IsMotorcycle
	bike.CheckConfidence = check.Confidence
	bike.OK = check.IsMotorcycle
	uc.metrics.DocumentVerified(domain.DocBike, bike.OK)
	if !bike.OK {
		s.Append(domain.RoleAssistant, fmt.Sprintf(uc.msgs.BikeRejected, check.Confidence))
	}
}

func (uc *IntakeUseCase) verifyID(ctx context.Context, s *domain.Session) {
	id := &s.Documents.ID
	if id.Path == "" || id.OK {
		return
	}

	fields, err := uc.idReader.ReadIDCard(ctx, id.Path)
	if err != nil {
		slog.Warn("id_ocr_failed", "session_id", s.ID, "error", err)
		uc.metrics.CapabilityFailure("ocr_id")
		s.Append(domain.RoleAssistant, uc.msgs.RetryGeneric)
		return
	}

	id.Raw = fields.Raw
	id.NationalID = fields.NationalID
	id.PersonName = fields.PersonName
	id.ChecksumValid = domain.ValidThaiCitizenID(fields.NationalID)
	id.OK = fields.PersonName != "" && fields.NationalID != "" && id.ChecksumValid
	uc.metrics.DocumentVerified(domain.DocID, id.OK)
	if !id.OK {
		masked := domain.MaskThaiCitizenID(id.NationalID)
		s.Append(domain.RoleAssistant, fmt.Sprintf(uc.msgs.IDRejected, masked))
	}
}

func (uc *IntakeUseCase) verifyIncome(ctx context.Context, s *domain.Session) {
	income := &s.Documents.Income
	if income.Path == "" || income.OK {
		return
	}

	fields, err := uc.incomes.ReadIncomeProof(ctx, income.Path)
	if err != nil {
		slog.Warn("income_ocr_failed", "session_id", s.ID, "error", err)
		uc.metrics.CapabilityFailure("ocr_income")
		s.Append(domain.RoleAssistant, uc.msgs.RetryGeneric)
		return
	}

	income.Raw = fields.Raw
	income.HolderName = fields.HolderName
	income.MonthlyIncomeTHB = fields.MonthlyIncomeTHB
	income.Employer = fields.Employer
	income.Period = fields.Period
	income.OK = fields.MonthlyIncomeTHB != nil
	uc.metrics.DocumentVerified(domain.DocIncome, income.OK)
	if !income.OK {
		s.Append(domain.RoleAssistant, uc.msgs.IncomeRejected)
	}
}
