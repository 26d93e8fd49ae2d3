package services

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/chat"
)

// Call sites of the reasoning collaborator.
const (
	CallSiteClassifier  = "classifier"
	CallSiteResolver    = "resolver"
	CallSiteCharacter   = "character"
	CallSiteDirector    = "director"
	CallSiteSynthesizer = "synthesizer"
)

// Metrics holds the collaborator request metrics.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the collaborator metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		requests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "keeper_collaborator_requests_total",
				Help: "Total collaborator requests, partitioned by call site and status.",
			},
			[]string{"call_site", "status"},
		),
		duration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "keeper_collaborator_request_duration_seconds",
				Help:    "Collaborator request latency.",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
			},
			[]string{"call_site"},
		),
	}
}

// Instrument wraps a collaborator so every call is counted and timed under
// callSite. A nil Metrics returns next unchanged.
func (m *Metrics) Instrument(next chat.Collaborator, callSite string) chat.Collaborator {
	if m == nil || next == nil {
		return next
	}
	return &instrumented{next: next, callSite: callSite, metrics: m}
}

type instrumented struct {
	next     chat.Collaborator
	callSite string
	metrics  *Metrics
}

func (i *instrumented) Complete(ctx context.Context, messages []chat.ChatMessage) (string, error) {
	start := time.Now()
	out, err := i.next.Complete(ctx, messages)
	i.metrics.duration.WithLabelValues(i.callSite).Observe(time.Since(start).Seconds())

	status := "ok"
	if err != nil {
		status = "error"
	}
	i.metrics.requests.WithLabelValues(i.callSite, status).Inc()
	return out, err
}
