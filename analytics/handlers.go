package analytics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// Windows are the selectable dashboard windows, in days.
var Windows = []int{7, 30, 90}

const defaultWindow = 30

// Report is everything the dashboard shows for one window.
type Report struct {
	Days   int             `json:"days"`
	Series []EngagementDay `json:"series"`
	Totals Totals          `json:"totals"`
}

// DashboardView renders the HTML dashboard for a report.
type DashboardView func(c echo.Context, r Report) templ.Component

// Handler handles analytics HTTP requests.
type Handler struct {
	source Source
	loc    *time.Location
	view   DashboardView
	now    func() time.Time
}

// NewHandler creates a new analytics handler. Day boundaries are computed in
// loc (UTC when nil).
func NewHandler(source Source, loc *time.Location, view DashboardView) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{source: source, loc: loc, view: view, now: time.Now}
}

// Build assembles the report for a window of days ending today.
func (h *Handler) Build(ctx context.Context, days int) (Report, error) {
	today := h.now().In(h.loc)
	comments, likes, err := h.source.EngagementEvents(ctx, windowStart(today, days))
	if err != nil {
		return Report{}, err
	}
	totals, err := h.source.EngagementTotals(ctx)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Days: days,
		Series: MergeSeries(
			BucketByDay(comments, today, days),
			BucketByDay(likes, today, days),
		),
		Totals: totals,
	}, nil
}

// GetEngagement returns the engagement report as JSON.
func (h *Handler) GetEngagement(c echo.Context) error {
	days := parseWindow(c.QueryParam("days"))
	report, err := h.Build(c.Request().Context(), days)
	if err != nil {
		c.Logger().Errorf("Failed to build engagement report: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	return c.JSON(http.StatusOK, report)
}

// DashboardHTML renders the analytics dashboard page.
func (h *Handler) DashboardHTML(c echo.Context) error {
	days := parseWindow(c.QueryParam("days"))
	report, err := h.Build(c.Request().Context(), days)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	return h.view(c, report).Render(c.Request().Context(), c.Response().Writer)
}

// parseWindow maps the days query parameter to one of Windows. Period names
// are accepted too.
func parseWindow(v string) int {
	switch v {
	case "week":
		return 7
	case "month":
		return 30
	case "quarter":
		return 90
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultWindow
	}
	for _, w := range Windows {
		if n == w {
			return n
		}
	}
	return defaultWindow
}

// RegisterRoutes registers analytics routes on an admin-gated group mounted
// at /dashboard/analytics.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/", h.DashboardHTML)
	g.GET("/api/engagement", h.GetEngagement)
}
