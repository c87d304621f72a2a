package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pakornb/moto-loan-intake/internal/core/domain"
)

type fakeStore struct {
	sessions map[string]*domain.Session
	nextID   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[string]*domain.Session)}
}

func (f *fakeStore) Create(context.Context) (*domain.Session, error) {
	f.nextID++
	id := fmt.Sprintf("s-%d", f.nextID)
	session := domain.NewSession(id, time.Now())
	f.sessions[id] = session
	return session.Clone(), nil
}

func (f *fakeStore) View(_ context.Context, id string) (*domain.Session, error) {
	session, ok := f.sessions[id]
	if !ok {
		return nil, fmt.Errorf("view %s: %w", id, domain.ErrSessionNotFound)
	}
	return session.Clone(), nil
}

func (f *fakeStore) Update(_ context.Context, id string, fn func(*domain.Session) error) error {
	session, ok := f.sessions[id]
	if !ok {
		return fmt.Errorf("update %s: %w", id, domain.ErrSessionNotFound)
	}
	return fn(session)
}

type fakeIntents struct {
	intent domain.Intent
	err    error
	calls  int
}

func (f *fakeIntents) ClassifyIntent(context.Context, string) (domain.Intent, error) {
	f.calls++
	return f.intent, f.err
}

type fakeMoto struct {
	check domain.MotorcycleCheck
	err   error
	calls int
}

func (f *fakeMoto) CheckMotorcycle(context.Context, string) (domain.MotorcycleCheck, error) {
	f.calls++
	return f.check, f.err
}

type fakeAppraiser struct {
	appraisal domain.Appraisal
	err       error
	calls     int
}

func (f *fakeAppraiser) AppraiseBike(context.Context, string) (domain.Appraisal, error) {
	f.calls++
	return f.appraisal, f.err
}

type fakeChat struct {
	reply  string
	err    error
	calls  int
	extras []string
}

func (f *fakeChat) Reply(_ context.Context, _ []domain.Message, extraSystem string) (string, error) {
	f.calls++
	f.extras = append(f.extras, extraSystem)
	return f.reply, f.err
}

type fakeIDReader struct {
	fields domain.IDCardFields
	err    error
}

func (f *fakeIDReader) ReadIDCard(context.Context, string) (domain.IDCardFields, error) {
	return f.fields, f.err
}

type fakeIncomeReader struct {
	fields domain.IncomeFields
	err    error
}

func (f *fakeIncomeReader) ReadIncomeProof(context.Context, string) (domain.IncomeFields, error) {
	return f.fields, f.err
}

type fakePublisher struct {
	decisions []domain.DecisionEvent
	feedback  []domain.FeedbackEvent
	resets    []domain.ResetEvent
}

func (f *fakePublisher) PublishDecision(_ context.Context, e domain.DecisionEvent) error {
	f.decisions = append(f.decisions, e)
	return nil
}

func (f *fakePublisher) PublishFeedback(_ context.Context, e domain.FeedbackEvent) error {
	f.feedback = append(f.feedback, e)
	return nil
}

func (f *fakePublisher) PublishReset(_ context.Context, e domain.ResetEvent) error {
	f.resets = append(f.resets, e)
	return nil
}

type harness struct {
	uc        *IntakeUseCase
	store     *fakeStore
	intents   *fakeIntents
	moto      *fakeMoto
	appraiser *fakeAppraiser
	chat      *fakeChat
	idReader  *fakeIDReader
	incomes   *fakeIncomeReader
	events    *fakePublisher
}

func newHarness() *harness {
	income := 20000
	h := &harness{
		store:     newFakeStore(),
		intents:   &fakeIntents{intent: domain.Intent{MotorcycleLoanIntent: true, Confidence: 0.9}},
		moto:      &fakeMoto{check: domain.MotorcycleCheck{IsMotorcycle: true, Confidence: 0.95}},
		appraiser: &fakeAppraiser{appraisal: domain.Appraisal{ValueTHB: 50000, Confidence: 0.8}},
		chat:      &fakeChat{reply: "รับทราบครับ"},
		idReader: &fakeIDReader{fields: domain.IDCardFields{
			NationalID: "1234567890121",
			PersonName: "นาย สมชาย ใจดี",
		}},
		incomes: &fakeIncomeReader{fields: domain.IncomeFields{
			HolderName:       "สมชาย ใจดี",
			MonthlyIncomeTHB: &income,
		}},
		events: &fakePublisher{},
	}
	h.uc = NewIntakeUseCase(
		h.store, h.intents, h.moto, h.appraiser, h.chat, h.idReader, h.incomes, h.events,
		Options{},
	)
	return h
}

func (h *harness) createSession(t *testing.T) string {
	t.Helper()
	session, err := h.uc.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return session.ID
}

func (h *harness) send(t *testing.T, id string, event domain.Event) *domain.Session {
	t.Helper()
	session, err := h.uc.ProcessEvent(context.Background(), id, event)
	if err != nil {
		t.Fatalf("process event: %v", err)
	}
	return session
}

func lastAssistant(t *testing.T, s *domain.Session) string {
	t.Helper()
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == domain.RoleAssistant {
			return s.Messages[i].Text
		}
	}
	t.Fatalf("no assistant message in session")
	return ""
}

func countMessages(s *domain.Session, text string) int {
	n := 0
	for _, m := range s.Messages {
		if m.Text == text {
			n++
		}
	}
	return n
}

func TestProcessEventRejectsInvalidEvents(t *testing.T) {
	h := newHarness()
	id := h.createSession(t)

	_, err := h.uc.ProcessEvent(context.Background(), id, domain.NewUserMessageEvent("  "))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestProcessEventUnknownSession(t *testing.T) {
	h := newHarness()
	_, err := h.uc.ProcessEvent(context.Background(), "missing", domain.NewUserMessageEvent("สวัสดี"))
	if !domain.IsKind(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
}

func TestLoanIntentShowsOnboardingOnce(t *testing.T) {
	h := newHarness()
	id := h.createSession(t)

	s := h.send(t, id, domain.NewUserMessageEvent("อยากขอสินเชื่อมอเตอร์ไซค์"))
	if !s.UI.ShowUploads {
		t.Fatalf("loan intent must open uploads")
	}
	onboarding := DefaultMessages().Onboarding
	if countMessages(s, onboarding) != 1 {
		t.Fatalf("expected one onboarding message")
	}

	// An upload turn has no new user message; the router must not
	// re-classify or repeat onboarding.
	classifies := h.intents.calls
	s = h.send(t, id, domain.NewDocumentUploadedEvent(domain.DocBike, "bike.jpg"))
	if h.intents.calls != classifies {
		t.Fatalf("upload turn re-classified intent")
	}
	if countMessages(s, onboarding) != 1 {
		t.Fatalf("onboarding repeated")
	}
}

func TestNoIntentRoutesToChat(t *testing.T) {
	h := newHarness()
	h.intents.intent = domain.Intent{MotorcycleLoanIntent: false, Confidence: 0.8}
	id := h.createSession(t)

	s := h.send(t, id, domain.NewUserMessageEvent("อากาศเป็นไงบ้าง"))
	if h.chat.calls != 1 {
		t.Fatalf("chat calls = %d, want 1", h.chat.calls)
	}
	if lastAssistant(t, s) != "รับทราบครับ" {
		t.Fatalf("chat reply missing")
	}
	if s.UI.ShowUploads {
		t.Fatalf("no intent must not open uploads")
	}
}

func TestClassifierFailureDegradesToChat(t *testing.T) {
	h := newHarness()
	h.intents.err = errors.New("model down")
	id := h.createSession(t)

	s := h.send(t, id, domain.NewUserMessageEvent("อยากขอสินเชื่อ"))
	if s.Intent.MotorcycleLoanIntent {
		t.Fatalf("failed classification must not keep loan intent")
	}
	if h.chat.calls != 1 {
		t.Fatalf("degraded turn must still answer via chat")
	}
	if s.UI.ShowUploads {
		t.Fatalf("degraded turn must not open uploads")
	}
}

func TestFullFlowToApproval(t *testing.T) {
	h := newHarness()
	id := h.createSession(t)

	h.send(t, id, domain.NewUserMessageEvent("ขอสินเชื่อมอเตอร์ไซค์"))
	h.send(t, id, domain.NewDocumentUploadedEvent(domain.DocBike, "bike.jpg"))
	h.send(t, id, domain.NewDocumentUploadedEvent(domain.DocIncome, "slip.jpg"))
	s := h.send(t, id, domain.NewDocumentUploadedEvent(domain.DocID, "id.jpg"))

	if !s.DocumentsComplete() {
		t.Fatalf("documents must be complete: %+v", s.Documents)
	}
	if countMessages(s, DefaultMessages().DocsComplete) != 1 {
		t.Fatalf("completion must announce exactly once")
	}
	if s.Decision == nil {
		t.Fatalf("decision missing")
	}
	// min(20000/2, 50000) = 10000, limited by income.
	if s.Decision.ApprovedAmountTHB != 10000 {
		t.Fatalf("approved = %d, want 10000", s.Decision.ApprovedAmountTHB)
	}
	if s.Decision.LimitingFactor != domain.LimitedByIncome {
		t.Fatalf("limiting = %q", s.Decision.LimitingFactor)
	}
	if !s.Decision.SamePerson {
		t.Fatalf("name cross-check must pass")
	}
	if !s.UI.ShowSatisfaction || s.UI.ShowUploads {
		t.Fatalf("post-approval ui wrong: %+v", s.UI)
	}
	if !s.Flags.ApprovedOnce {
		t.Fatalf("approved flag not set")
	}
	if !strings.Contains(lastAssistant(t, s), "10,000") {
		t.Fatalf("decision summary missing amount: %q", lastAssistant(t, s))
	}
	if len(h.events.decisions) != 1 || h.events.decisions[0].ApprovedAmountTHB != 10000 {
		t.Fatalf("decision event not published: %+v", h.events.decisions)
	}
	if h.appraiser.calls != 1 {
		t.Fatalf("appraiser calls = %d, want 1", h.appraiser.calls)
	}
}

func TestFlowIsDeterministicPerUploadOrder(t *testing.T) {
	order1 := []domain.DocumentKind{domain.DocBike, domain.DocIncome, domain.DocID}
	order2 := []domain.DocumentKind{domain.DocID, domain.DocBike, domain.DocIncome}

	run := func(order []domain.DocumentKind) *domain.Session {
		h := newHarness()
		id := h.createSession(t)
		h.send(t, id, domain.NewUserMessageEvent("ขอสินเชื่อ"))
		var s *domain.Session
		for _, kind := range order {
			s = h.send(t, id, domain.NewDocumentUploadedEvent(kind, string(kind)+".jpg"))
		}
		return s
	}

	s1, s2 := run(order1), run(order2)
	if s1.Decision == nil || s2.Decision == nil {
		t.Fatalf("both orders must decide")
	}
	if s1.Decision.ApprovedAmountTHB != s2.Decision.ApprovedAmountTHB {
		t.Fatalf("upload order changed the decision: %d vs %d",
			s1.Decision.ApprovedAmountTHB, s2.Decision.ApprovedAmountTHB)
	}
}

func TestNameMismatchStopsAppraisal(t *testing.T) {
	h := newHarness()
	h.incomes.fields.HolderName = "John Smith"
	h.idReader.fields.PersonName = "Jane Doe"
	id := h.createSession(t)

	h.send(t, id, domain.NewUserMessageEvent("ขอสินเชื่อ"))
	h.send(t, id, domain.NewDocumentUploadedEvent(domain.DocBike, "bike.jpg"))
	h.send(t, id, domain.NewDocumentUploadedEvent(domain.DocIncome, "slip.jpg"))
	s := h.send(t, id, domain.NewDocumentUploadedEvent(domain.DocID, "id.jpg"))

	if h.appraiser.calls != 0 {
		t.Fatalf("appraiser must not run on mismatch")
	}
	if s.Decision == nil || s.Decision.SamePerson {
		t.Fatalf("mismatch must record same_person=false: %+v", s.Decision)
	}
	if s.Decision.ApprovedAmountTHB != 0 {
		t.Fatalf("mismatch must not approve an amount")
	}
	if countMessages(s, DefaultMessages().NameMismatch) != 1 {
		t.Fatalf("mismatch message missing")
	}
	if s.UI.ShowSatisfaction {
		t.Fatalf("mismatch must not open the survey")
	}
	if len(h.events.decisions) != 0 {
		t.Fatalf("mismatch must not publish a decision")
	}
}

func TestBikeRejectionAsksForReupload(t *testing.T) {
	h := newHarness()
	h.moto.check = domain.MotorcycleCheck{IsMotorcycle: false, Confidence: 0.3}
	id := h.createSession(t)

	h.send(t, id, domain.NewUserMessageEvent("ขอสินเชื่อ"))
	s := h.send(t, id, domain.NewDocumentUploadedEvent(domain.DocBike, "cat.jpg"))

	if s.Documents.Bike.OK {
		t.Fatalf("non-motorcycle must not pass")
	}
	if !s.UI.Need[domain.DocBike] {
		t.Fatalf("need must remain for rejected bike")
	}
	want := fmt.Sprintf(DefaultMessages().BikeRejected, 0.3)
	if countMessages(s, want) != 1 {
		t.Fatalf("rejection message missing: %q", want)
	}
}

func TestInvalidCitizenIDRejected(t *testing.T) {
	h := newHarness()
	h.idReader.fields.NationalID = "1234567890122"
	id := h.createSession(t)

	h.send(t, id, domain.NewUserMessageEvent("ขอสินเชื่อ"))
	s := h.send(t, id, domain.NewDocumentUploadedEvent(domain.DocID, "id.jpg"))

	if s.Documents.ID.OK || s.Documents.ID.ChecksumValid {
		t.Fatalf("bad checksum must reject the id card")
	}
	if lastAssistant(t, s) != fmt.Sprintf(DefaultMessages().IDRejected, "1 2345 **** 01 22") {
		t.Fatalf("id rejection message wrong: %q", lastAssistant(t, s))
	}
}

func TestCapabilityFailureDegradesTurn(t *testing.T) {
	h := newHarness()
	h.moto.err = errors.New("vision timeout")
	id := h.createSession(t)

	h.send(t, id, domain.NewUserMessageEvent("ขอสินเชื่อ"))
	s := h.send(t, id, domain.NewDocumentUploadedEvent(domain.DocBike, "bike.jpg"))

	if s.Documents.Bike.OK {
		t.Fatalf("failed check must not mark slot ok")
	}
	if lastAssistant(t, s) != DefaultMessages().RetryGeneric {
		t.Fatalf("expected generic retry message, got %q", lastAssistant(t, s))
	}

	// A later re-upload after recovery passes.
	h.moto.err = nil
	s = h.send(t, id, domain.NewDocumentUploadedEvent(domain.DocBike, "bike2.jpg"))
	if !s.Documents.Bike.OK {
		t.Fatalf("recovered check must pass")
	}
}

func TestRepeatIntentAfterApprovalGuards(t *testing.T) {
	h := newHarness()
	id := h.createSession(t)

	h.send(t, id, domain.NewUserMessageEvent("ขอสินเชื่อ"))
	h.send(t, id, domain.NewDocumentUploadedEvent(domain.DocBike, "bike.jpg"))
	h.send(t, id, domain.NewDocumentUploadedEvent(domain.DocIncome, "slip.jpg"))
	h.send(t, id, domain.NewDocumentUploadedEvent(domain.DocID, "id.jpg"))

	s := h.send(t, id, domain.NewUserMessageEvent("ขอสินเชื่ออีกรอบ"))
	// The guard reply is followed by a general contextual reply on the
	// same turn.
	if h.chat.calls != 2 {
		t.Fatalf("chat calls = %d, want guard reply plus contextual reply", h.chat.calls)
	}
	if h.chat.extras[0] != repeatIntentSystem || h.chat.extras[1] != "" {
		t.Fatalf("chat extras = %q", h.chat.extras)
	}
	if s.UI.ShowUploads {
		t.Fatalf("guard must not reopen uploads")
	}
	if !s.Flags.ApprovedOnce || s.Decision == nil {
		t.Fatalf("guard must keep the approval")
	}
	if h.appraiser.calls != 1 {
		t.Fatalf("guard must not re-run the appraisal")
	}
}

func TestPostApprovalTurnsStillGetChatReplies(t *testing.T) {
	h := newHarness()
	id := h.createSession(t)

	h.send(t, id, domain.NewUserMessageEvent("ขอสินเชื่อ"))
	h.send(t, id, domain.NewDocumentUploadedEvent(domain.DocBike, "bike.jpg"))
	h.send(t, id, domain.NewDocumentUploadedEvent(domain.DocIncome, "slip.jpg"))
	h.send(t, id, domain.NewDocumentUploadedEvent(domain.DocID, "id.jpg"))
	if h.chat.calls != 0 {
		t.Fatalf("chat calls before approval = %d", h.chat.calls)
	}

	// An upload after approval carries no new user message, but the loan
	// intent is still set; the turn answers via chat instead of re-running
	// verification.
	s := h.send(t, id, domain.NewDocumentUploadedEvent(domain.DocBike, "bike2.jpg"))
	if h.chat.calls != 1 {
		t.Fatalf("chat calls = %d, want 1", h.chat.calls)
	}
	if h.appraiser.calls != 1 || s.Decision == nil {
		t.Fatalf("post-approval upload must not re-run the pipeline")
	}
	if lastAssistant(t, s) != "รับทราบครับ" {
		t.Fatalf("chat reply missing: %q", lastAssistant(t, s))
	}
}

func TestUnhappyFeedbackArmsReapply(t *testing.T) {
	h := newHarness()
	id := h.createSession(t)

	h.send(t, id, domain.NewUserMessageEvent("ขอสินเชื่อ"))
	h.send(t, id, domain.NewDocumentUploadedEvent(domain.DocBike, "bike.jpg"))
	h.send(t, id, domain.NewDocumentUploadedEvent(domain.DocIncome, "slip.jpg"))
	h.send(t, id, domain.NewDocumentUploadedEvent(domain.DocID, "id.jpg"))

	s := h.send(t, id, domain.NewSatisfactionEvent(domain.FeedbackUnhappy))
	if !s.Flags.ReapplyReady || s.Flags.LastFeedback != domain.FeedbackUnhappy {
		t.Fatalf("unhappy must arm reapply: %+v", s.Flags)
	}
	if s.UI.ShowSatisfaction {
		t.Fatalf("survey must close after feedback")
	}
	if len(h.events.feedback) != 1 || h.events.feedback[0].Kind != domain.FeedbackUnhappy {
		t.Fatalf("feedback event not published")
	}

	// The next loan-intent message starts a fresh application cycle.
	s = h.send(t, id, domain.NewUserMessageEvent("ขอใหม่อีกครั้ง"))
	if s.DocumentsComplete() || s.Decision != nil {
		t.Fatalf("reapply must clear the previous application")
	}
	if s.Flags.ApprovedOnce {
		t.Fatalf("reapply must clear the approved flag")
	}
	if !s.UI.ShowUploads {
		t.Fatalf("reapply must reopen uploads")
	}
	if countMessages(s, DefaultMessages().ResetNotice) != 1 {
		t.Fatalf("reset notice missing")
	}
	if len(h.events.resets) != 1 {
		t.Fatalf("reset event not published")
	}
}

func TestHappyFeedbackClosesSurveyWithoutReset(t *testing.T) {
	h := newHarness()
	h.chat.err = errors.New("model down")
	id := h.createSession(t)

	h.send(t, id, domain.NewUserMessageEvent("ขอสินเชื่อ"))
	h.send(t, id, domain.NewDocumentUploadedEvent(domain.DocBike, "bike.jpg"))
	h.send(t, id, domain.NewDocumentUploadedEvent(domain.DocIncome, "slip.jpg"))
	h.send(t, id, domain.NewDocumentUploadedEvent(domain.DocID, "id.jpg"))

	s := h.send(t, id, domain.NewSatisfactionEvent(domain.FeedbackHappy))
	if s.Flags.ReapplyReady {
		t.Fatalf("happy must not arm reapply")
	}
	// Chat is down; the canned thanks message covers the turn.
	if lastAssistant(t, s) != DefaultMessages().FeedbackThanks {
		t.Fatalf("expected canned thanks, got %q", lastAssistant(t, s))
	}

	s = h.send(t, id, domain.NewUserMessageEvent("ขอสินเชื่ออีก"))
	if s.Decision == nil || !s.Flags.ApprovedOnce {
		t.Fatalf("happy feedback must not reset the application")
	}
}
