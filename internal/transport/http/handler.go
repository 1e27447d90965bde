package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Mayhomes/quiz/internal/app"
	"github.com/Mayhomes/quiz/internal/domain"
	"github.com/Mayhomes/quiz/internal/export"
)

// Handler exposes the quiz session REST surface.
type Handler struct {
	registry app.SessionRegistry
	validate *validator.Validate
	log      zerolog.Logger
	version  string
}

func NewHandler(registry app.SessionRegistry, log zerolog.Logger, version string) *Handler {
	return &Handler{
		registry: registry,
		validate: validator.New(),
		log:      log.With().Str("component", "http").Logger(),
		version:  version,
	}
}

// NewRouter mounts the REST routes and the WebSocket timer stream.
func NewRouter(h *Handler, ws *TimerSocket) chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", h.health)
	r.Get("/ws/timer", ws.Serve)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", h.createSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/questions", h.questions)
			r.Put("/answers/{index}", h.setAnswer)
			r.Get("/progress", h.progress)
			r.Post("/submit", h.submit)
			r.Get("/results", h.results)
			r.Get("/summary", h.summary)
			r.Get("/export/json", h.exportJSON)
			r.Get("/export/csv", h.exportCSV)
			r.Post("/retake", h.retake)
		})
	})
	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": h.version})
}

type createSessionRequest struct {
	Name      string `json:"name" validate:"required,min=2"`
	Phone     string `json:"phone" validate:"required,numeric,min=10,max=11"`
	AgentName string `json:"agentName" validate:"required"`
}

// createSession registers identity and opens a new session. Identity is the
// entry-view gate: everything else requires it.
func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}

	id := uuid.NewString()
	session := h.registry.GetOrCreate(id)
	info, err := session.Register(r.Context(), domain.UserInfo{
		Name:      req.Name,
		Phone:     req.Phone,
		AgentName: req.AgentName,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("register failed")
		writeError(w, http.StatusInternalServerError, "could not start session")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"sessionId": id, "user": info})
}

// questions provisions (or reloads) the question set and starts or resumes
// the countdown.
func (h *Handler) questions(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	set, tick, err := session.Begin(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"questions": set,
		"timer":     tick,
	})
}

type answerRequest struct {
	Value string `json:"value"`
}

func (h *Handler) setAnswer(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid question index")
		return
	}
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := session.SetAnswer(r.Context(), index, req.Value); err != nil {
		h.writeDomainError(w, err)
		return
	}
	stats, err := session.Progress(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) progress(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	stats, err := session.Progress(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// submit runs finalization (stop timer, score, persist) and relays the
// summary. Duplicate submits return the already-persisted results with the
// submission marked skipped.
func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	results, submission, err := session.Complete(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results":    results,
		"submission": submission,
	})
}

func (h *Handler) results(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	results, err := session.Results(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	summary, err := session.Summary(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) exportJSON(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	summary, err := session.Summary(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	data, err := export.JSON(summary)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not render export")
		return
	}
	serveDownload(w, data, "application/json", export.Filename(summary.UserInfo.Name, "json", time.Now()))
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	summary, err := session.Summary(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	serveDownload(w, export.CSV(summary), "text/csv; charset=utf-8", export.Filename(summary.UserInfo.Name, "csv", time.Now()))
}

// retake purges the quiz-scoped records and sends the user back to the
// entry view for a fresh attempt.
func (h *Handler) retake(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := session.Retake(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("retake failed")
		writeError(w, http.StatusInternalServerError, "could not clear quiz data")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*app.Session, bool) {
	id := chi.URLParam(r, "sessionID")
	session, ok := h.registry.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, domain.ErrSessionNotFound.Error())
		return nil, false
	}
	return session, true
}

// writeDomainError maps the error taxonomy onto HTTP statuses: identity
// gates redirect (403), missing records are 404, bad input is 400, and bank
// failures are fatal server errors.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrIdentityMissing):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrResultsMissing), errors.Is(err, domain.ErrSummaryIncomplete):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrIndexOutOfRange):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrAlreadySubmitted):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrQuestionsMissing):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		h.log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeValidationError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation failed", "fields": fields})
		return
	}
	writeError(w, http.StatusBadRequest, "validation failed")
}

func serveDownload(w http.ResponseWriter, data []byte, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
