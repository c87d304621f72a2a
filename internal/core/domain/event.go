package domain

import (
	"fmt"
	"strings"
	"time"
)

type EventType string

const (
	EventUserMessage      EventType = "user_message"
	EventDocumentUploaded EventType = "document_uploaded"
	EventSatisfaction     EventType = "satisfaction"
)

// Event is one external input to a session: a chat message, a stored
// document upload, or a satisfaction button press.
type Event struct {
	Type     EventType
	Text     string
	Kind     DocumentKind
	Path     string
	Feedback FeedbackKind
}

func NewUserMessageEvent(text string) Event {
	return Event{Type: EventUserMessage, Text: text}
}

func NewDocumentUploadedEvent(kind DocumentKind, path string) Event {
	return Event{Type: EventDocumentUploaded, Kind: kind, Path: path}
}

func NewSatisfactionEvent(kind FeedbackKind) Event {
	return Event{Type: EventSatisfaction, Feedback: kind}
}

func (e Event) Validate() error {
	switch e.Type {
	case EventUserMessage:
		if strings.TrimSpace(e.Text) == "" {
			return WrapError(ErrInvalidInput, "validate event", fmt.Errorf("message text is required"))
		}
	case EventDocumentUploaded:
		if !ValidDocumentKind(e.Kind) {
			return WrapError(ErrInvalidInput, "validate event", fmt.Errorf("unknown document kind: %q", e.Kind))
		}
		if strings.TrimSpace(e.Path) == "" {
			return WrapError(ErrInvalidInput, "validate event", fmt.Errorf("document path is required"))
		}
	case EventSatisfaction:
		if !ValidFeedbackKind(e.Feedback) {
			return WrapError(ErrInvalidInput, "validate event", fmt.Errorf("unknown feedback kind: %q", e.Feedback))
		}
	default:
		return WrapError(ErrInvalidInput, "validate event", fmt.Errorf("unknown event type: %q", e.Type))
	}
	return nil
}

// DecisionEvent is published when an appraisal completes with an approved
// amount; it feeds the audit ledger.
type DecisionEvent struct {
	SessionID         string         `json:"session_id"`
	ApprovedAmountTHB int            `json:"approved_amount_thb"`
	IncomeCapTHB      int            `json:"income_cap_thb"`
	BikeCapTHB        int            `json:"bike_cap_thb"`
	LimitingFactor    LimitingFactor `json:"limiting_factor"`
	NameMatchScore    float64        `json:"name_match_score"`
	OccurredAt        time.Time      `json:"occurred_at"`
}

type FeedbackEvent struct {
	SessionID  string       `json:"session_id"`
	Kind       FeedbackKind `json:"kind"`
	OccurredAt time.Time    `json:"occurred_at"`
}

type ResetEvent struct {
	SessionID  string    `json:"session_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
