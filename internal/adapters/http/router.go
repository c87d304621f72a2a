package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pakornb/moto-loan-intake/internal/core/domain"
	"github.com/pakornb/moto-loan-intake/internal/core/ports"
)

type Router struct {
	intake    ports.IntakeService
	documents ports.DocumentStore

	metricsHandler    http.Handler
	metricsMiddleware func(http.Handler) http.Handler

	rateLimitRPS   float64
	rateLimitBurst int
	maxInFlight    int
	maxUploadBytes int64
}

type Options struct {
	MetricsHandler    http.Handler
	MetricsMiddleware func(http.Handler) http.Handler
	RateLimitRPS      float64
	RateLimitBurst    int
	MaxInFlight       int
	MaxUploadBytes    int64
}

func NewRouter(intake ports.IntakeService, documents ports.DocumentStore, opts Options) *Router {
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &Router{
		intake:            intake,
		documents:         documents,
		metricsHandler:    opts.MetricsHandler,
		metricsMiddleware: opts.MetricsMiddleware,
		rateLimitRPS:      opts.RateLimitRPS,
		rateLimitBurst:    opts.RateLimitBurst,
		maxInFlight:       opts.MaxInFlight,
		maxUploadBytes:    maxUpload,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/sessions", rt.createSession)
	mux.HandleFunc("/v1/sessions/", rt.sessionSubtree)
	if rt.metricsHandler != nil {
		mux.Handle("/metrics", rt.metricsHandler)
	}

	var handler http.Handler = mux
	if rt.metricsMiddleware != nil {
		handler = rt.metricsMiddleware(handler)
	}
	if rt.maxInFlight > 0 {
		handler = backpressureMiddleware(handler, rt.maxInFlight, 0)
	}
	if rt.rateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) createSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	session, err := rt.intake.CreateSession(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionToView(session, 0))
}

// sessionSubtree dispatches /v1/sessions/{id} and its child routes.
func (rt *Router) sessionSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/sessions/")
	id, child, _ := strings.Cut(rest, "/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session id is required"})
		return
	}

	switch child {
	case "":
		rt.getSession(w, r, id)
	case "messages":
		rt.postMessage(w, r, id)
	case "documents":
		rt.postDocument(w, r, id)
	case "feedback":
		rt.postFeedback(w, r, id)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	}
}

func (rt *Router) getSession(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	tail := 0
	if raw := r.URL.Query().Get("tail"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tail must be a non-negative integer"})
			return
		}
		tail = n
	}

	session, err := rt.intake.GetSession(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionToView(session, tail))
}

func (rt *Router) postMessage(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "text is required"})
		return
	}

	session, err := rt.intake.ProcessEvent(r.Context(), id, domain.NewUserMessageEvent(req.Text))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionToView(session, 0))
}

func (rt *Router) postDocument(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes)
	if err := r.ParseMultipartForm(rt.maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	kind := domain.DocumentKind(r.FormValue("kind"))
	if !domain.ValidDocumentKind(kind) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown document kind: %q", kind)})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	key := path.Join(id, string(kind)+ext)
	storedPath, err := rt.documents.Save(r.Context(), key, file)
	if err != nil {
		writeError(w, err)
		return
	}

	session, err := rt.intake.ProcessEvent(r.Context(), id, domain.NewDocumentUploadedEvent(kind, storedPath))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionToView(session, 0))
}

func (rt *Router) postFeedback(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Kind string `json:"kind"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	kind := domain.FeedbackKind(req.Kind)
	if !domain.ValidFeedbackKind(kind) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown feedback kind: %q", req.Kind)})
		return
	}

	session, err := rt.intake.ProcessEvent(r.Context(), id, domain.NewSatisfactionEvent(kind))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionToView(session, 0))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
