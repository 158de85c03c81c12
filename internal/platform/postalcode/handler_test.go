package postalcode

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

type stubLookup struct {
	addr *Address
	err  error
}

func (s stubLookup) Lookup(context.Context, string) (*Address, error) {
	return s.addr, s.err
}

func TestHandler_Lookup(t *testing.T) {
	tests := []struct {
		name string
		stub stubLookup
		want int
	}{
		{"found", stubLookup{addr: &Address{PostalCode: "01001000", City: "São Paulo"}}, http.StatusOK},
		{"invalid", stubLookup{err: ErrInvalidCode}, http.StatusBadRequest},
		{"not found", stubLookup{err: ErrNotFound}, http.StatusNotFound},
		{"breaker open", stubLookup{err: fmt.Errorf("%w: circuit open", ErrUnavailable)}, http.StatusServiceUnavailable},
		{"other", stubLookup{err: fmt.Errorf("boom")}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			c.SetParamNames("code")
			c.SetParamValues("01001000")

			err := NewHandler(tt.stub, nil).handleLookup(c)
			if tt.want == http.StatusOK {
				assert.NoError(t, err)
				assert.Equal(t, http.StatusOK, rec.Code)
				assert.Contains(t, rec.Body.String(), `"city":"São Paulo"`)
				return
			}
			he, ok := err.(*echo.HTTPError)
			if assert.True(t, ok) {
				assert.Equal(t, tt.want, he.Code)
			}
		})
	}
}
