// HTTP handlers for the posting service.
//
// All routes expect an x-company-id header forwarded by the Gateway.
//
// Routes:
//
//	GET    /steps                   → wizard step catalog
//	GET    /entitlement             → token balance / quota snapshot
//	GET    /jobs                    → list company postings (?status=)
//	POST   /jobs                    → save a new draft
//	GET    /jobs/{id}               → one posting
//	PUT    /jobs/{id}               → update content (editing lock applies)
//	DELETE /jobs/{id}               → delete a draft
//	POST   /jobs/{id}/publish|pause|resume|archive
//	POST   /jobs/validate           → step or full validation (?step=)
//	POST   /jobs/preview            → candidate preview of a draft
//	POST   /jobs/assist             → merge AI suggestions into a draft
package posting

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/moogar0880/problems"

	"jobmate/posting-service/internal/entitlement"
)

// Handler holds shared dependencies.
type Handler struct {
	svc       *Service
	assistant Assistant
}

// NewHandler returns a configured Handler. assistant may be nil.
func NewHandler(svc *Service, assistant Assistant) *Handler {
	return &Handler{svc: svc, assistant: assistant}
}

// RegisterRoutes mounts all posting routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/steps", h.handleSteps)
	mux.HandleFunc("/entitlement", h.handleEntitlement)
	mux.HandleFunc("/jobs", h.handleJobs)
	mux.HandleFunc("/jobs/", h.handleJob)
}

// ─── Route dispatch ───────────────────────────────────────────────────────────

func (h *Handler) handleSteps(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeProblem(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	jsonOK(w, http.StatusOK, Steps())
}

// handleJobs handles GET|POST /jobs
func (h *Handler) handleJobs(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		list, err := h.svc.List(r.Context(), companyID, r.URL.Query().Get("status"))
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		jsonOK(w, http.StatusOK, list)
	case http.MethodPost:
		var d JobDraft
		if !decodeBody(w, r, &d) {
			return
		}
		p, err := h.svc.SaveDraft(r.Context(), companyID, "", d)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		jsonOK(w, http.StatusCreated, p)
	default:
		writeProblem(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	}
}

// handleJob handles /jobs/{id}, /jobs/{id}/{action} and the draft tools.
func (h *Handler) handleJob(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 || len(parts) > 3 || parts[1] == "" {
		writeProblem(w, r, http.StatusNotFound, "not_found", "invalid path")
		return
	}

	if len(parts) == 2 && r.Method == http.MethodPost {
		switch parts[1] {
		case "validate":
			h.validate(w, r)
			return
		case "preview":
			h.preview(w, r)
			return
		case "assist":
			h.assist(w, r)
			return
		}
	}

	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}
	id := parts[1]

	if len(parts) == 3 {
		if r.Method != http.MethodPost {
			writeProblem(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
			return
		}
		action, err := ParseAction(parts[2])
		if err != nil || action == ActionDelete {
			writeProblem(w, r, http.StatusNotFound, "not_found", fmt.Sprintf("unknown action %q", parts[2]))
			return
		}
		h.apply(w, r, companyID, id, action)
		return
	}

	switch r.Method {
	case http.MethodGet:
		p, err := h.svc.Get(r.Context(), companyID, id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		jsonOK(w, http.StatusOK, jobResponse{Posting: p, Actions: AvailableActions(p.Status)})
	case http.MethodPut:
		var d JobDraft
		if !decodeBody(w, r, &d) {
			return
		}
		p, err := h.svc.Update(r.Context(), companyID, id, d)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		jsonOK(w, http.StatusOK, p)
	case http.MethodDelete:
		h.apply(w, r, companyID, id, ActionDelete)
	default:
		writeProblem(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	}
}

// ─── Individual handlers ──────────────────────────────────────────────────────

type jobResponse struct {
	*Posting
	Actions []Action `json:"actions"`
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request, companyID, id string, action Action) {
	p, err := h.svc.Apply(r.Context(), companyID, id, action)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	jsonOK(w, http.StatusOK, jobResponse{Posting: p, Actions: AvailableActions(p.Status)})
}

func (h *Handler) handleEntitlement(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeProblem(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	companyID, ok := companyFromRequest(w, r)
	if !ok {
		return
	}
	snap, err := h.svc.Entitlement(r.Context(), companyID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	resp := struct {
		entitlement.Snapshot
		CanPost bool   `json:"canPost"`
		Reason  string `json:"reason,omitempty"`
	}{Snapshot: snap, CanPost: snap.CanPost()}
	if err := snap.Denial(); err != nil {
		resp.Reason = err.Error()
	}
	jsonOK(w, http.StatusOK, resp)
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	var d JobDraft
	if !decodeBody(w, r, &d) {
		return
	}
	resp := struct {
		Step   StepID   `json:"step,omitempty"`
		Valid  bool     `json:"valid"`
		Errors []string `json:"errors"`
	}{Errors: []string{}}

	if raw := r.URL.Query().Get("step"); raw != "" {
		step, err := ParseStep(raw)
		if err != nil {
			writeProblem(w, r, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
		resp.Step = step
		resp.Errors = append(resp.Errors, Validate(d, step)...)
	} else {
		resp.Errors = append(resp.Errors, ValidateAll(d)...)
		var ve *ValidationError
		if err := CheckConstraints(d); errors.As(err, &ve) {
			resp.Errors = append(resp.Errors, ve.Details...)
		}
	}
	resp.Valid = len(resp.Errors) == 0
	jsonOK(w, http.StatusOK, resp)
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Draft   JobDraft `json:"draft"`
		Company Company  `json:"company"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	jsonOK(w, http.StatusOK, Render(body.Draft, body.Company))
}

func (h *Handler) assist(w http.ResponseWriter, r *http.Request) {
	if h.assistant == nil {
		writeProblem(w, r, http.StatusServiceUnavailable, "assist_unavailable", ErrAssistUnavailable.Error())
		return
	}
	var body struct {
		Draft     JobDraft `json:"draft"`
		Company   Company  `json:"company"`
		Overwrite bool     `json:"overwrite"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	sug, err := h.assistant.Suggest(r.Context(), assistRequest(body.Draft, body.Company))
	if err != nil {
		slog.Warn("content assist failed", "err", err)
		writeProblem(w, r, http.StatusBadGateway, "assist_failed", "content assistant failed, draft left unchanged")
		return
	}
	jsonOK(w, http.StatusOK, ApplySuggestion(body.Draft, sug, body.Overwrite))
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func companyFromRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	companyID := r.Header.Get("x-company-id")
	if companyID == "" {
		writeProblem(w, r, http.StatusUnauthorized, "unauthorized", "missing x-company-id header")
		return "", false
	}
	return companyID, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "invalid_body", "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// handleServiceError maps domain errors to problem responses.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		writeProblem(w, r, http.StatusBadRequest, "validation_error", ve.Msg, ve.Details...)
	case errors.Is(err, ErrNotFound):
		writeProblem(w, r, http.StatusNotFound, "job_not_found", ErrNotFound.Error())
	case errors.Is(err, entitlement.ErrUnknownCompany):
		writeProblem(w, r, http.StatusNotFound, "company_not_found", entitlement.ErrUnknownCompany.Error())
	case errors.Is(err, entitlement.ErrInsufficientTokens):
		writeProblem(w, r, http.StatusPaymentRequired, "insufficient_tokens", err.Error())
	case errors.Is(err, entitlement.ErrJobPostLimitReached):
		writeProblem(w, r, http.StatusForbidden, "job_post_limit_reached", err.Error())
	case errors.Is(err, ErrFieldLocked):
		writeProblem(w, r, http.StatusConflict, "field_locked", err.Error())
	case IsConflictError(err):
		writeProblem(w, r, http.StatusConflict, "conflict", err.Error())
	default:
		slog.Error("request failed", "path", r.URL.Path, "err", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

type problemBody struct {
	*problems.Problem
	Errors []string `json:"errors,omitempty"`
}

func writeProblem(w http.ResponseWriter, r *http.Request, code int, typ, detail string, errs ...string) {
	p := problems.NewStatusProblem(code).
		WithInstance(r.URL.Path).
		WithType(typ).
		WithDetail(detail)
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(problemBody{Problem: p, Errors: errs})
}

func jsonOK(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
