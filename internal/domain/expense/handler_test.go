package expense

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/pkg/dateonly"
	"github.com/clinicdesk/clinicdesk/pkg/pagination"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc := newTestService()
	h := NewHandler(svc)
	e := echo.New()
	return h, e
}

func ownerRequest(e *echo.Echo, owner uuid.UUID, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req = req.WithContext(auth.WithOwnerID(req.Context(), owner))
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_CreateExpense(t *testing.T) {
	h, e := newTestHandler()
	owner := uuid.New()
	c, rec := ownerRequest(e, owner, http.MethodPost, "/",
		`{"description":"Printer paper","amount":32.5,"date":"2024-03-04","category":"Supplies","payment_method":"pix"}`)

	if err := h.CreateExpense(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var got Expense
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.OwnerID != owner || got.Amount != 32.5 {
		t.Errorf("unexpected expense: %+v", got)
	}
}

func TestHandler_CreateExpense_BadRequest(t *testing.T) {
	h, e := newTestHandler()
	c, _ := ownerRequest(e, uuid.New(), http.MethodPost, "/", `{"description":"x","amount":0,"date":"2024-03-04","category":"Rent"}`)

	err := h.CreateExpense(c)
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_ListExpenses_CategoryFilter(t *testing.T) {
	h, e := newTestHandler()
	owner := uuid.New()
	h.svc.CreateExpense(context.Background(), newExpense(owner, "Rent", 1000, dateonly.New(2024, 3, 1), "Rent"))
	h.svc.CreateExpense(context.Background(), newExpense(owner, "Wifi", 100, dateonly.New(2024, 3, 2), "Internet"))

	c, rec := ownerRequest(e, owner, http.MethodGet, "/api/v1/expenses?category=internet", "")
	if err := h.ListExpenses(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp pagination.Response
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Total != 1 {
		t.Errorf("expected 1 expense, got %d", resp.Total)
	}
}

func TestHandler_GetExpense_OtherOwner(t *testing.T) {
	h, e := newTestHandler()
	exp := newExpense(uuid.New(), "Rent", 1000, dateonly.New(2024, 3, 1), "Rent")
	h.svc.CreateExpense(context.Background(), exp)

	c, _ := ownerRequest(e, uuid.New(), http.MethodGet, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(exp.ID.String())
	err := h.GetExpense(c)
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandler_DeleteExpense(t *testing.T) {
	h, e := newTestHandler()
	owner := uuid.New()
	exp := newExpense(owner, "Rent", 1000, dateonly.New(2024, 3, 1), "Rent")
	h.svc.CreateExpense(context.Background(), exp)

	c, rec := ownerRequest(e, owner, http.MethodDelete, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(exp.ID.String())
	if err := h.DeleteExpense(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

func TestHandler_Categories(t *testing.T) {
	h, e := newTestHandler()
	owner := uuid.New()

	c, rec := ownerRequest(e, owner, http.MethodPost, "/", `{"name":"Courses","default":true}`)
	if err := h.CreateCategory(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var created Category
	json.Unmarshal(rec.Body.Bytes(), &created)
	if created.Default {
		t.Error("custom category must not be marked default")
	}

	c, rec = ownerRequest(e, owner, http.MethodGet, "/", "")
	if err := h.ListCategories(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var items []Category
	json.Unmarshal(rec.Body.Bytes(), &items)
	if len(items) != len(DefaultCategories)+1 {
		t.Errorf("expected %d categories, got %d", len(DefaultCategories)+1, len(items))
	}
	if items[0].Name != "Taxes" {
		t.Errorf("expected defaults first, got %s", items[0].Name)
	}
}
