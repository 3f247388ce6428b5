package http

import (
	"net/http"

	"go.uber.org/zap"

	"lms-grading-service/internal/app"
	"lms-grading-service/internal/domain"
)

// Handler is the JSON boundary over the grading and progress services.
type Handler struct {
	grading  *app.GradingService
	progress *app.ProgressService
	auth     *Authenticator
	log      *zap.Logger
	ws       *WSHandler
}

// Deps are the collaborators of the router. Observer and Metrics are optional.
type Deps struct {
	Grading  *app.GradingService
	Progress *app.ProgressService
	Auth     *Authenticator
	Log      *zap.Logger
	Observer RequestObserver
	Metrics  http.Handler
}

// NewRouter builds the service's HTTP routes.
func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{
		grading:  d.Grading,
		progress: d.Progress,
		auth:     d.Auth,
		log:      log.Named("http"),
	}
	h.ws = NewWSHandler(d.Grading, h.log)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics)
	}

	mux.HandleFunc("GET /assessments/{id}", h.authed(h.viewAssessment))
	mux.HandleFunc("POST /assessments/{id}/start", h.authed(h.startAttempt))
	mux.HandleFunc("POST /assessments/{id}/submit", h.authed(h.submitActive))
	mux.HandleFunc("POST /attempts/{id}/submit", h.authed(h.submitAttempt))
	mux.HandleFunc("GET /attempts/{id}/answers", h.authed(h.attemptAnswers))
	mux.HandleFunc("GET /progress/courses/{id}", h.authed(h.courseProgress))
	mux.HandleFunc("POST /progress/lessons/{id}", h.authed(h.completeLesson))
	mux.HandleFunc("GET /progress/assessments", h.authed(h.results))
	mux.HandleFunc("GET /courses/{id}/results", h.authed(h.courseResults))
	mux.HandleFunc("GET /ws/courses/{id}/results", h.authed(h.ws.ServeResults))

	return instrument(mux, h.log, d.Observer)
}

type authedFunc func(w http.ResponseWriter, r *http.Request, caller domain.Caller)

func (h *Handler) authed(fn authedFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := h.auth.Caller(r)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		fn(w, r, caller)
	}
}

type submitRequest struct {
	Answers []domain.SubmittedAnswer `json:"answers"`
}

func (h *Handler) viewAssessment(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	assessment, err := h.grading.View(r.Context(), caller, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

func (h *Handler) startAttempt(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	attempt, err := h.grading.Start(r.Context(), caller, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attempt)
}

func (h *Handler) submitActive(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req submitRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	attempt, err := h.grading.SubmitActive(r.Context(), caller, id, req.Answers)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attempt)
}

func (h *Handler) submitAttempt(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req submitRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	attempt, err := h.grading.Submit(r.Context(), caller, id, req.Answers)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attempt)
}

func (h *Handler) attemptAnswers(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	answers, err := h.grading.AttemptAnswers(r.Context(), caller, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, answers)
}

func (h *Handler) courseProgress(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	report, err := h.progress.CourseProgress(r.Context(), caller, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) completeLesson(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var input domain.LessonCompletionInput
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &input); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	completion, err := h.progress.MarkLessonComplete(r.Context(), caller, id, input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, completion)
}

func (h *Handler) results(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", domain.DefaultPageLimit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	summaries, err := h.grading.Results(r.Context(), caller, domain.Page{Skip: skip, Limit: limit})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *Handler) courseResults(w http.ResponseWriter, r *http.Request, caller domain.Caller) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	results, err := h.grading.CourseResults(r.Context(), caller, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}
