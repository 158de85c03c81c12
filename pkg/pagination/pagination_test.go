package pagination

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(query string) Params {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/"+query, nil)
	return FromContext(e.NewContext(req, httptest.NewRecorder()))
}

func TestFromContext_Defaults(t *testing.T) {
	p := paramsFor("")
	if p.Limit != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, p.Limit)
	}
	if p.Offset != 0 {
		t.Errorf("expected default offset 0, got %d", p.Offset)
	}
}

func TestFromContext_Clamping(t *testing.T) {
	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"?limit=10&offset=20", 10, 20},
		{"?limit=100000", MaxLimit, 0},
		{"?limit=-1&offset=-5", DefaultLimit, 0},
		{"?limit=abc", DefaultLimit, 0},
	}
	for _, tt := range tests {
		p := paramsFor(tt.query)
		if p.Limit != tt.wantLimit || p.Offset != tt.wantOffset {
			t.Errorf("%s: got %+v, want limit=%d offset=%d", tt.query, p, tt.wantLimit, tt.wantOffset)
		}
	}
}

func TestPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	if got := Page(items, Params{Limit: 2, Offset: 0}); len(got) != 2 || got[0] != 1 {
		t.Errorf("first page: %v", got)
	}
	if got := Page(items, Params{Limit: 2, Offset: 4}); len(got) != 1 || got[0] != 5 {
		t.Errorf("last page: %v", got)
	}
	if got := Page(items, Params{Limit: 2, Offset: 10}); got == nil || len(got) != 0 {
		t.Errorf("past the end must be empty non-nil, got %#v", got)
	}
	if got := Page([]int(nil), Params{Limit: 2}); got == nil {
		t.Error("nil input must produce an empty non-nil page")
	}
}

func TestPaginate(t *testing.T) {
	resp := Paginate([]string{"a", "b", "c"}, Params{Limit: 2, Offset: 0}, "/api/v1/patients", nil)
	if resp.Total != 3 || !resp.HasMore {
		t.Errorf("unexpected response: %+v", resp)
	}
	if len(resp.Links) != 2 || resp.Links[1].Relation != "next" {
		t.Errorf("unexpected links: %+v", resp.Links)
	}
	if resp.Links[1].URL != "/api/v1/patients?limit=2&offset=2" {
		t.Errorf("unexpected next url: %s", resp.Links[1].URL)
	}
}

func TestParams_Navigation(t *testing.T) {
	p := Params{Limit: 10, Offset: 5}
	if !p.HasPrevious() || p.PreviousOffset() != 0 {
		t.Errorf("unexpected previous: %v %d", p.HasPrevious(), p.PreviousOffset())
	}
	if p.NextOffset() != 15 || !p.HasNext(16) || p.HasNext(15) {
		t.Error("unexpected next navigation")
	}
}

func TestLinks_KeepFilters(t *testing.T) {
	query := url.Values{
		"search":   {"ana"},
		"category": {"Rent"},
		"offset":   {"2"},
		"limit":    {"2"},
	}
	links := Params{Limit: 2, Offset: 2}.Links("/api/v1/expenses", query, 7)
	if len(links) != 3 {
		t.Fatalf("expected self, next and previous, got %+v", links)
	}

	want := map[string]string{"self": "2", "next": "4", "previous": "0"}
	for _, l := range links {
		u, err := url.Parse(l.URL)
		if err != nil {
			t.Fatalf("%s: %v", l.Relation, err)
		}
		q := u.Query()
		if u.Path != "/api/v1/expenses" {
			t.Errorf("%s: unexpected path %s", l.Relation, u.Path)
		}
		if q.Get("search") != "ana" || q.Get("category") != "Rent" {
			t.Errorf("%s: filters dropped from %s", l.Relation, l.URL)
		}
		if q.Get("offset") != want[l.Relation] || q.Get("limit") != "2" {
			t.Errorf("%s: unexpected paging in %s", l.Relation, l.URL)
		}
	}
	if query.Get("offset") != "2" {
		t.Error("request query must not be modified")
	}
}
