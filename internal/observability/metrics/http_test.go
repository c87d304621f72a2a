package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pakornb/moto-loan-intake/internal/core/domain"
)

func TestNormalizePath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"/v1/sessions", "/v1/sessions"},
		{"/v1/sessions/abc-123", "/v1/sessions/{session_id}"},
		{"/v1/sessions/abc-123/messages", "/v1/sessions/{session_id}/messages"},
		{"/v1/sessions/abc-123/documents", "/v1/sessions/{session_id}/documents"},
		{"/healthz", "/healthz"},
	}
	for _, tc := range cases {
		if got := normalizePath(tc.in); got != tc.want {
			t.Fatalf("normalizePath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMiddlewareRecordsRequests(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	handler := m.Middleware("api", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/sessions/s-1/messages", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, `mli_http_requests_total`) {
		t.Fatalf("requests counter missing from exposition:\n%s", body)
	}
	if !strings.Contains(body, `path="/v1/sessions/{session_id}/messages"`) {
		t.Fatalf("path label not normalized:\n%s", body)
	}
	if !strings.Contains(body, `status="201"`) {
		t.Fatalf("status label missing:\n%s", body)
	}
}

func TestIntakeRecorderCounters(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	recorder := NewIntakeRecorder(m, "api")

	recorder.TurnProcessed("docops")
	recorder.TurnProcessed("")
	recorder.DocumentVerified(domain.DocBike, true)
	recorder.DocumentVerified(domain.DocID, false)
	recorder.AppraisalCompleted(10000)
	recorder.CapabilityFailure("ocr_id")
	recorder.FeedbackReceived(domain.FeedbackHappy)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()

	for _, want := range []string{
		`mli_intake_turns_total{service="api",terminal="docops"} 1`,
		`mli_intake_turns_total{service="api",terminal="unknown"} 1`,
		`kind="bike",result="accepted"`,
		`kind="id",result="rejected"`,
		`mli_intake_appraisals_total{service="api"} 1`,
		`operation="ocr_id"`,
		`kind="happy"`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("exposition missing %q:\n%s", want, body)
		}
	}
}
