package usecase

import "github.com/pakornb/moto-loan-intake/internal/core/domain"

// Recorder receives intake observations. Implemented by the Prometheus
// metrics in observability; a nop recorder is used when none is wired.
type Recorder interface {
	TurnProcessed(terminal string)
	DocumentVerified(kind domain.DocumentKind, ok bool)
	AppraisalCompleted(approvedTHB int)
	CapabilityFailure(operation string)
	FeedbackReceived(kind domain.FeedbackKind)
}

type nopRecorder struct{}

func (nopRecorder) TurnProcessed(string)                       {}
func (nopRecorder) DocumentVerified(domain.DocumentKind, bool) {}
func (nopRecorder) AppraisalCompleted(int)                     {}
func (nopRecorder) CapabilityFailure(string)                   {}
func (nopRecorder) FeedbackReceived(domain.FeedbackKind)       {}
