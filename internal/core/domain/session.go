package domain

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

type DocumentKind string

const (
	DocBike   DocumentKind = "bike"
	DocIncome DocumentKind = "income"
	DocID     DocumentKind = "id"
)

func DocumentKinds() []DocumentKind {
	return []DocumentKind{DocBike, DocIncome, DocID}
}

func ValidDocumentKind(kind DocumentKind) bool {
	switch kind {
	case DocBike, DocIncome, DocID:
		return true
	default:
		return false
	}
}

// BikeSlot holds the motorcycle photo verification and, after appraisal,
// the estimated value.
type BikeSlot struct {
	Path                string  `json:"path,omitempty"`
	OK                  bool    `json:"ok"`
	IsMotorcycle        bool    `json:"is_motorcycle,omitempty"`
	CheckConfidence     float64 `json:"check_confidence,omitempty"`
	AppraisedValueTHB   int     `json:"appraised_value_thb,omitempty"`
	AppraisalConfidence float64 `json:"appraisal_confidence,omitempty"`
	AppraisalNotes      string  `json:"appraisal_notes,omitempty"`
}

type IncomeSlot struct {
	Path             string            `json:"path,omitempty"`
	OK               bool              `json:"ok"`
	HolderName       string            `json:"holder_name,omitempty"`
	MonthlyIncomeTHB *int              `json:"monthly_income_thb,omitempty"`
	Employer         string            `json:"employer,omitempty"`
	Period           string            `json:"period,omitempty"`
	Raw              map[string]string `json:"raw,omitempty"`
}

type IDSlot struct {
	Path          string            `json:"path,omitempty"`
	OK            bool              `json:"ok"`
	NationalID    string            `json:"national_id,omitempty"`
	PersonName    string            `json:"person_name,omitempty"`
	ChecksumValid bool              `json:"checksum_valid,omitempty"`
	Raw           map[string]string `json:"raw,omitempty"`
}

type Documents struct {
	Bike   BikeSlot   `json:"bike"`
	Income IncomeSlot `json:"income"`
	ID     IDSlot     `json:"id"`
}

type UIState struct {
	ShowUploads      bool                  `json:"show_uploads"`
	ShowSatisfaction bool                  `json:"show_satisfaction"`
	Need             map[DocumentKind]bool `json:"need"`
}

type Intent struct {
	MotorcycleLoanIntent bool    `json:"motorcycle_loan_intent"`
	Confidence           float64 `json:"confidence"`
	Rationale            string  `json:"rationale"`
}

type FeedbackKind string

const (
	FeedbackNone    FeedbackKind = ""
	FeedbackHappy   FeedbackKind = "happy"
	FeedbackUnhappy FeedbackKind = "unhappy"
)

func ValidFeedbackKind(kind FeedbackKind) bool {
	return kind == FeedbackHappy || kind == FeedbackUnhappy
}

type Flags struct {
	UserTriggeredAppraise bool         `json:"user_triggered_appraise"`
	DocsCompleteAnnounced bool         `json:"docs_complete_announced"`
	ApprovedOnce          bool         `json:"approved_once"`
	ReapplyReady          bool         `json:"reapply_ready"`
	LastFeedback          FeedbackKind `json:"last_feedback"`
}

// Session is the per-conversation state record. It is mutated only inside
// the store's per-session critical section, one event traversal at a time.
type Session struct {
	ID        string    `json:"id"`
	Messages  []Message `json:"messages"`
	Documents Documents `json:"documents"`
	UI        UIState   `json:"ui"`
	Decision  *Decision `json:"decision,omitempty"`
	Intent    Intent    `json:"intent"`
	Flags     Flags     `json:"flags"`

	// Cursor is the index of the last user message the router has handled.
	// -1 means no user message has been processed yet. Monotonically
	// non-decreasing within an application cycle.
	Cursor int `json:"cursor"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:       id,
		Messages: []Message{},
		UI: UIState{
			Need: map[DocumentKind]bool{DocBike: true, DocIncome: true, DocID: true},
		},
		Cursor:    -1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) Append(role Role, text string) {
	s.Messages = append(s.Messages, Message{Role: role, Text: text})
}

// LatestUserMessage scans backward for the most recent user entry.
func (s *Session) LatestUserMessage() (int, string, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return i, s.Messages[i].Text, true
		}
	}
	return -1, "", false
}

func (s *Session) HasUserMessage() bool {
	_, _, ok := s.LatestUserMessage()
	return ok
}

func (s *Session) DocumentsComplete() bool {
	return s.Documents.Bike.OK && s.Documents.Income.OK && s.Documents.ID.OK
}

// RecomputeNeed derives the per-kind need flags from slot state. Need is
// never stored as independent truth.
func (s *Session) RecomputeNeed() {
	if s.UI.Need == nil {
		s.UI.Need = make(map[DocumentKind]bool, 3)
	}
	s.UI.Need[DocBike] = !s.Documents.Bike.OK
	s.UI.Need[DocIncome] = !s.Documents.Income.OK
	s.UI.Need[DocID] = !s.Documents.ID.OK
}

// SetDocumentPath records an upload for the given kind. A fresh path clears
// the slot's verification state so the document is re-verified.
func (s *Session) SetDocumentPath(kind DocumentKind, path string) {
	switch kind {
	case DocBike:
		s.Documents.Bike = BikeSlot{Path: path}
	case DocIncome:
		s.Documents.Income = IncomeSlot{Path: path}
	case DocID:
		s.Documents.ID = IDSlot{Path: path}
	}
	s.RecomputeNeed()
}

// ResetApplication clears document, decision, and flag state for a new
// application cycle. Message history and the router cursor are preserved.
func (s *Session) ResetApplication() {
	s.Documents = Documents{}
	s.Decision = nil
	s.UI.ShowUploads = true
	s.UI.ShowSatisfaction = false
	s.Flags = Flags{}
	s.RecomputeNeed()
}

// Clone returns a deep copy safe to hand to callers outside the store's
// critical section.
func (s *Session) Clone() *Session {
	out := *s
	out.Messages = make([]Message, len(s.Messages))
	copy(out.Messages, s.Messages)
	out.UI.Need = make(map[DocumentKind]bool, len(s.UI.Need))
	for k, v := range s.UI.Need {
		out.UI.Need[k] = v
	}
	if s.Decision != nil {
		decision := *s.Decision
		out.Decision = &decision
	}
	if s.Documents.Income.MonthlyIncomeTHB != nil {
		income := *s.Documents.Income.MonthlyIncomeTHB
		out.Documents.Income.MonthlyIncomeTHB = &income
	}
	out.Documents.Income.Raw = cloneStringMap(s.Documents.Income.Raw)
	out.Documents.ID.Raw = cloneStringMap(s.Documents.ID.Raw)
	return &out
}

func cloneStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
