package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

type fakeSource struct {
	comments, likes []time.Time
	totals          Totals
	since           time.Time
	err             error
}

func (f *fakeSource) EngagementEvents(_ context.Context, since time.Time) ([]time.Time, []time.Time, error) {
	f.since = since
	return f.comments, f.likes, f.err
}

func (f *fakeSource) EngagementTotals(context.Context) (Totals, error) {
	return f.totals, f.err
}

func newTestHandler(src Source) *Handler {
	h := NewHandler(src, time.UTC, func(_ echo.Context, r Report) templ.Component {
		return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
			_, err := io.WriteString(w, "days="+strings.Repeat("x", r.Days))
			return err
		})
	})
	h.now = func() time.Time { return time.Date(2024, time.May, 20, 9, 30, 0, 0, time.UTC) }
	return h
}

func TestParseWindow(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"7", 7},
		{"30", 30},
		{"90", 90},
		{"", 30},
		{"14", 30},
		{"abc", 30},
		{"week", 7},
		{"quarter", 90},
	}
	for _, tt := range tests {
		if got := parseWindow(tt.input); got != tt.expected {
			t.Errorf("parseWindow(%q) = %d, want %d", tt.input, got, tt.expected)
		}
	}
}

func TestGetEngagement(t *testing.T) {
	src := &fakeSource{
		comments: []time.Time{time.Date(2024, time.May, 20, 8, 0, 0, 0, time.UTC)},
		likes: []time.Time{
			time.Date(2024, time.May, 19, 8, 0, 0, 0, time.UTC),
			time.Date(2024, time.May, 20, 1, 0, 0, 0, time.UTC),
		},
		totals: Totals{Posts: 2, Likes: 2, Comments: 1, Pending: 1},
	}
	h := newTestHandler(src)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/dashboard/analytics/api/engagement?days=7", nil)
	rec := httptest.NewRecorder()
	if err := h.GetEngagement(e.NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var report Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if report.Days != 7 || len(report.Series) != 7 {
		t.Fatalf("report days=%d series=%d, want 7", report.Days, len(report.Series))
	}
	last := report.Series[6]
	if last.Date != "2024-05-20" || last.Comments != 1 || last.Likes != 1 {
		t.Errorf("last day = %+v", last)
	}
	if report.Series[5].Likes != 1 {
		t.Errorf("previous day = %+v", report.Series[5])
	}
	if report.Totals.Posts != 2 {
		t.Errorf("totals = %+v", report.Totals)
	}
	if want := time.Date(2024, time.May, 14, 0, 0, 0, 0, time.UTC); !src.since.Equal(want) {
		t.Errorf("since = %s, want %s", src.since, want)
	}
}

func TestGetEngagementSourceError(t *testing.T) {
	h := newTestHandler(&fakeSource{err: errors.New("db down")})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/dashboard/analytics/api/engagement", nil)
	rec := httptest.NewRecorder()
	if err := h.GetEngagement(e.NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestDashboardHTML(t *testing.T) {
	h := newTestHandler(&fakeSource{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/dashboard/analytics/?days=90", nil)
	rec := httptest.NewRecorder()
	if err := h.DashboardHTML(e.NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}
	if got := rec.Body.String(); got != "days="+strings.Repeat("x", 90) {
		t.Errorf("body = %q", got)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
}
