package duosite

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "duosite"

// Metrics holds the engagement counters of one App. Each App owns its own
// registry so several Apps can live in one process.
type Metrics struct {
	Registry *prometheus.Registry

	Likes      *prometheus.CounterVec
	Comments   *prometheus.CounterVec
	Moderation *prometheus.CounterVec
	SignIns    *prometheus.CounterVec
}

// NewMetrics registers the engagement counters on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		Likes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "like_toggles_total",
			Help:      "Like toggles by content kind and resulting state",
		}, []string{"kind", "state"}),
		Comments: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "comments_submitted_total",
			Help:      "Comments submitted by content kind and author type",
		}, []string{"kind", "author"}),
		Moderation: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "moderation_decisions_total",
			Help:      "Moderation decisions by resulting state",
		}, []string{"state"}),
		SignIns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sign_ins_total",
			Help:      "Sign-in attempts by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) likeToggled(kind ContentKind, res LikeResult) {
	state := "unliked"
	if res.Liked {
		state = "liked"
	}
	m.Likes.WithLabelValues(string(kind), state).Inc()
}

func (m *Metrics) commentSubmitted(cm Comment) {
	author := "account"
	if cm.Guest() {
		author = "guest"
	}
	m.Comments.WithLabelValues(string(cm.Parent.Kind), author).Inc()
}

func (m *Metrics) moderated(state ModerationState) {
	m.Moderation.WithLabelValues(string(state)).Inc()
}

func (m *Metrics) signIn(outcome string) {
	m.SignIns.WithLabelValues(outcome).Inc()
}

// requestMiddleware records request counts and latencies on the registry.
func (m *Metrics) requestMiddleware() echo.MiddlewareFunc {
	return echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  metricsNamespace,
		Subsystem:  "http",
		Registerer: m.Registry,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	})
}

// handler serves the registry in the Prometheus text format.
func (m *Metrics) handler() echo.HandlerFunc {
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: m.Registry})
}
