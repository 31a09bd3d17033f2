package generator

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts oracle calls per task.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the oracle collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ailo_oracle_calls_total",
			Help: "Text-completion oracle calls by task and outcome.",
		}, []string{"task", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ailo_oracle_call_duration_seconds",
			Help:    "Latency of text-completion oracle calls.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"task"}),
	}
	reg.MustRegister(m.calls, m.duration)
	return m
}

// Instrument wraps llm so every Complete call is counted and timed.
func (m *Metrics) Instrument(llm LLMClient) LLMClient {
	return &instrumentedLLM{next: llm, m: m}
}

type instrumentedLLM struct {
	next LLMClient
	m    *Metrics
}

func (i *instrumentedLLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	start := time.Now()
	raw, err := i.next.Complete(ctx, prompt)
	i.m.duration.WithLabelValues(prompt.Task).Observe(time.Since(start).Seconds())
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	i.m.calls.WithLabelValues(prompt.Task, outcome).Inc()
	return raw, err
}
