package posting_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/posting-service/internal/entitlement"
	"jobmate/posting-service/internal/posting"
	"jobmate/posting-service/internal/store"
)

type problem struct {
	Type   string   `json:"type"`
	Status int      `json:"status"`
	Detail string   `json:"detail"`
	Errors []string `json:"errors"`
}

type api struct {
	t   *testing.T
	mux *http.ServeMux
	mem *store.Memory
}

func newAPI(t *testing.T, tokens, quota int, assistant posting.Assistant) *api {
	mem := store.NewMemory(1)
	mem.SetCompany(company, tokens, quota)
	mux := http.NewServeMux()
	posting.NewHandler(posting.NewService(mem, mem), assistant).RegisterRoutes(mux)
	return &api{t: t, mux: mux, mem: mem}
}

func (a *api) do(method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("x-company-id", company)
	rec := httptest.NewRecorder()
	a.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (a *api) create(d posting.JobDraft) string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/jobs", d)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[posting.Posting](a.t, rec).ID
}

func TestHandlerRequiresCompany(t *testing.T) {
	a := newAPI(t, 5, 5, nil)
	req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
	rec := httptest.NewRecorder()
	a.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "unauthorized", decode[problem](t, rec).Type)
}

func TestHandlerSteps(t *testing.T) {
	a := newAPI(t, 5, 5, nil)
	rec := a.do(http.MethodGet, "/steps", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	steps := decode[[]posting.StepDefinition](t, rec)
	assert.Equal(t, posting.Steps(), steps)
}

func TestHandlerLifecycle(t *testing.T) {
	a := newAPI(t, 5, 5, nil)
	id := a.create(completeDraft())

	rec := a.do(http.MethodPost, "/jobs/"+id+"/publish", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[struct {
		Status  posting.Status   `json:"status"`
		Actions []posting.Action `json:"actions"`
	}](t, rec)
	assert.Equal(t, posting.StatusPublished, body.Status)
	assert.Equal(t, []posting.Action{posting.ActionPause, posting.ActionArchive}, body.Actions)
	assert.Equal(t, 4, a.mem.Balance(company))

	rec = a.do(http.MethodPost, "/jobs/"+id+"/resume", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", decode[problem](t, rec).Type)

	d := completeDraft()
	d.Basics.Title = "Something else"
	rec = a.do(http.MethodPut, "/jobs/"+id, d)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "field_locked", decode[problem](t, rec).Type)

	rec = a.do(http.MethodPost, "/jobs/"+id+"/explode", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerPublishIncomplete(t *testing.T) {
	a := newAPI(t, 5, 5, nil)
	id := a.create(posting.NewDraft())

	rec := a.do(http.MethodPost, "/jobs/"+id+"/publish", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	p := decode[problem](t, rec)
	assert.Equal(t, "validation_error", p.Type)
	assert.Equal(t, http.StatusBadRequest, p.Status)
	assert.Equal(t, "job posting is incomplete", p.Detail)
	assert.Contains(t, p.Errors, "title is required")
}

func TestHandlerDenials(t *testing.T) {
	a := newAPI(t, 0, 5, nil)
	id := a.create(completeDraft())
	rec := a.do(http.MethodPost, "/jobs/"+id+"/publish", nil)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, "insufficient_tokens", decode[problem](t, rec).Type)

	a = newAPI(t, 5, 0, nil)
	id = a.create(completeDraft())
	rec = a.do(http.MethodPost, "/jobs/"+id+"/publish", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "job_post_limit_reached", decode[problem](t, rec).Type)

	rec = a.do(http.MethodGet, "/entitlement", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ent := decode[struct {
		RemainingTokens int    `json:"remainingTokens"`
		CanPost         bool   `json:"canPost"`
		Reason          string `json:"reason"`
	}](t, rec)
	assert.Equal(t, 5, ent.RemainingTokens)
	assert.False(t, ent.CanPost)
	assert.NotEmpty(t, ent.Reason)
}

type unknownCompanyGate struct{}

func (unknownCompanyGate) Snapshot(context.Context, string) (entitlement.Snapshot, error) {
	return entitlement.Snapshot{}, entitlement.ErrUnknownCompany
}

func TestHandlerUnknownCompany(t *testing.T) {
	mux := http.NewServeMux()
	posting.NewHandler(posting.NewService(store.NewMemory(1), unknownCompanyGate{}), nil).RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/entitlement", nil)
	req.Header.Set("x-company-id", "ghost")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "company_not_found", decode[problem](t, rec).Type)
}

func TestHandlerDeleteThenNotFound(t *testing.T) {
	a := newAPI(t, 5, 5, nil)
	id := a.create(posting.NewDraft())

	rec := a.do(http.MethodDelete, "/jobs/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodGet, "/jobs/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "job_not_found", decode[problem](t, rec).Type)
}

func TestHandlerValidate(t *testing.T) {
	a := newAPI(t, 5, 5, nil)

	rec := a.do(http.MethodPost, "/jobs/validate?step=basics", posting.NewDraft())
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[struct {
		Step   posting.StepID `json:"step"`
		Valid  bool           `json:"valid"`
		Errors []string       `json:"errors"`
	}](t, rec)
	assert.Equal(t, posting.StepBasics, res.Step)
	assert.False(t, res.Valid)
	assert.Len(t, res.Errors, 4)

	rec = a.do(http.MethodPost, "/jobs/validate", completeDraft())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"valid":true,"errors":[]}`, rec.Body.String())

	rec = a.do(http.MethodPost, "/jobs/validate?step=nope", posting.NewDraft())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerPreview(t *testing.T) {
	a := newAPI(t, 5, 5, nil)
	rec := a.do(http.MethodPost, "/jobs/preview", map[string]any{
		"draft":   completeDraft(),
		"company": posting.Company{Name: "Acme GmbH"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	vm := decode[posting.ViewModel](t, rec)
	assert.Equal(t, "Acme GmbH", vm.CompanyName)
	assert.Equal(t, "2.500 € - 3.500 € pro Monat", vm.Salary)
}

func TestHandlerAssist(t *testing.T) {
	rec := newAPI(t, 5, 5, nil).do(http.MethodPost, "/jobs/assist", map[string]any{"draft": posting.NewDraft()})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	failing := &fakeAssistant{err: errors.New("quota exceeded")}
	rec = newAPI(t, 5, 5, failing).do(http.MethodPost, "/jobs/assist", map[string]any{"draft": posting.NewDraft()})
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	ok := &fakeAssistant{sug: posting.Suggestion{Description: "Vorschlag"}}
	rec = newAPI(t, 5, 5, ok).do(http.MethodPost, "/jobs/assist", map[string]any{"draft": posting.NewDraft()})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Vorschlag", decode[posting.JobDraft](t, rec).Basics.Description)
}

func TestHandlerBadBody(t *testing.T) {
	a := newAPI(t, 5, 5, nil)
	req := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewBufferString("{"))
	req.Header.Set("x-company-id", company)
	rec := httptest.NewRecorder()
	a.mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_body", decode[problem](t, rec).Type)
}
