package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusRecorder counts events by type.
type PrometheusRecorder struct {
	events *prometheus.CounterVec
}

func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	return &PrometheusRecorder{
		events: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hometasks",
				Name:      "events_total",
				Help:      "Domain events by type.",
			},
			[]string{"type"},
		),
	}
}

func (p *PrometheusRecorder) RecordEvent(eventType EventType, _ EventMetadata) error {
	p.events.WithLabelValues(string(eventType)).Inc()
	return nil
}
