package patient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/pkg/pagination"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc := newTestService()
	h := NewHandler(svc)
	e := echo.New()
	return h, e
}

func newOwnerContext(e *echo.Echo, owner uuid.UUID, method, body string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, "/", nil)
	}
	req = req.WithContext(auth.WithOwnerID(req.Context(), owner))
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_CreatePatient(t *testing.T) {
	h, e := newTestHandler()
	owner := uuid.New()
	c, rec := newOwnerContext(e, owner, http.MethodPost, `{"name":"Beatriz Alves","birth_date":"1985-02-20","email":""}`)

	if err := h.CreatePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var p Patient
	json.Unmarshal(rec.Body.Bytes(), &p)
	if p.OwnerID != owner {
		t.Errorf("expected owner %s, got %s", owner, p.OwnerID)
	}
	if p.BirthDate.String() != "1985-02-20" {
		t.Errorf("expected birth date 1985-02-20, got %s", p.BirthDate)
	}
}

func TestHandler_CreatePatient_IgnoresOwnerInBody(t *testing.T) {
	h, e := newTestHandler()
	owner := uuid.New()
	body := `{"name":"Bruno","owner_id":"` + uuid.New().String() + `"}`
	c, rec := newOwnerContext(e, owner, http.MethodPost, body)

	if err := h.CreatePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var p Patient
	json.Unmarshal(rec.Body.Bytes(), &p)
	if p.OwnerID != owner {
		t.Errorf("expected owner from token, got %s", p.OwnerID)
	}
}

func TestHandler_CreatePatient_BadRequest(t *testing.T) {
	h, e := newTestHandler()
	c, _ := newOwnerContext(e, uuid.New(), http.MethodPost, `{"email":"x@example.com"}`)

	err := h.CreatePatient(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_CreatePatient_Unauthenticated(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	err := h.CreatePatient(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestHandler_GetPatient_OtherOwner(t *testing.T) {
	h, e := newTestHandler()
	p := &Patient{OwnerID: uuid.New(), Name: "Clara"}
	h.svc.Create(context.Background(), p)

	c, _ := newOwnerContext(e, uuid.New(), http.MethodGet, "")
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	err := h.GetPatient(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandler_GetPatient_InvalidID(t *testing.T) {
	h, e := newTestHandler()
	c, _ := newOwnerContext(e, uuid.New(), http.MethodGet, "")
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	if err := h.GetPatient(c); err == nil {
		t.Error("expected error for invalid id")
	}
}

func TestHandler_UpdatePatient(t *testing.T) {
	h, e := newTestHandler()
	owner := uuid.New()
	p := &Patient{OwnerID: owner, Name: "Davi"}
	h.svc.Create(context.Background(), p)

	c, rec := newOwnerContext(e, owner, http.MethodPut, `{"name":"Davi Rocha","city":"Recife"}`)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	if err := h.UpdatePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	got, _ := h.svc.Get(context.Background(), owner, p.ID)
	if got.Name != "Davi Rocha" || got.City != "Recife" {
		t.Errorf("expected full-record update, got %+v", got)
	}
}

func TestHandler_DeletePatient(t *testing.T) {
	h, e := newTestHandler()
	owner := uuid.New()
	p := &Patient{OwnerID: owner, Name: "Eva"}
	h.svc.Create(context.Background(), p)

	c, rec := newOwnerContext(e, owner, http.MethodDelete, "")
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	if err := h.DeletePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

func TestHandler_ListPatients(t *testing.T) {
	h, e := newTestHandler()
	owner := uuid.New()
	for _, name := range []string{"Fábio", "Fernanda", "Gustavo"} {
		h.svc.Create(context.Background(), &Patient{OwnerID: owner, Name: name})
	}
	h.svc.Create(context.Background(), &Patient{OwnerID: uuid.New(), Name: "Felipe"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients?search=f&limit=1", nil)
	req = req.WithContext(auth.WithOwnerID(req.Context(), owner))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListPatients(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp pagination.Response
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Total != 2 {
		t.Errorf("expected total 2, got %d", resp.Total)
	}
	if !resp.HasMore {
		t.Error("expected has_more with limit 1")
	}
	data, _ := resp.Data.([]interface{})
	if len(data) != 1 {
		t.Errorf("expected 1 item in page, got %d", len(data))
	}
}

func TestHandler_ListPatients_NextLinkKeepsSearch(t *testing.T) {
	h, e := newTestHandler()
	owner := uuid.New()
	for _, name := range []string{"Ana Lima", "Mariana Rocha", "Luana Dias", "Bruno Sá", "Carlos Melo"} {
		h.svc.Create(context.Background(), &Patient{OwnerID: owner, Name: name})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients?search=ana&limit=2", nil)
	req = req.WithContext(auth.WithOwnerID(req.Context(), owner))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListPatients(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp pagination.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 3 {
		t.Fatalf("expected 3 matches, got %d", resp.Total)
	}

	var next string
	for _, l := range resp.Links {
		if l.Relation == "next" {
			next = l.URL
		}
	}
	if next == "" {
		t.Fatalf("expected a next link, got %+v", resp.Links)
	}
	u, err := url.Parse(next)
	if err != nil {
		t.Fatalf("parse next link: %v", err)
	}
	if u.Query().Get("search") != "ana" {
		t.Errorf("expected next link to keep search, got %s", next)
	}
	if u.Query().Get("offset") != "2" || u.Query().Get("limit") != "2" {
		t.Errorf("unexpected paging in next link %s", next)
	}
}
