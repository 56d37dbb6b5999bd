package telemetry

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/victornm/etrivia/internal/domain"
	"github.com/victornm/etrivia/internal/event"
)

const namespace = "trivia"

var (
	SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_started_total",
		Help:      "Number of quiz sessions started.",
	})

	SessionsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_finished_total",
		Help:      "Number of quiz sessions finished, by result tier.",
	}, []string{"tier"})

	Answers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "answers_total",
		Help:      "Number of resolved questions, by outcome.",
	}, []string{"outcome"})

	ProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_requests_total",
		Help:      "Number of requests sent to the trivia provider.",
	}, []string{"endpoint", "status"})
)

// RegisterMetrics feeds the session counters from the event bus.
func RegisterMetrics(eb *event.Bus) {
	eb.Subscribe(domain.EventNameSessionStarted, func(ctx context.Context, e event.Event) error {
		SessionsStarted.Inc()
		return nil
	})

	eb.Subscribe(domain.EventNameAnswerRecorded, func(ctx context.Context, e event.Event) error {
		Answers.WithLabelValues(string(e.(domain.EventAnswerRecorded).Outcome)).Inc()
		return nil
	})

	eb.Subscribe(domain.EventNameSessionFinished, func(ctx context.Context, e event.Event) error {
		SessionsFinished.WithLabelValues(string(e.(domain.EventSessionFinished).Result.Tier)).Inc()
		return nil
	})
}
