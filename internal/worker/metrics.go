package worker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeCompleted = "completed"
	outcomeSkipped   = "skipped"
	outcomeErrored   = "error"
)

// Metrics counts consumed deliveries by terminal outcome and tracks handling
// latency. A nil *Metrics disables collection.
type Metrics struct {
	tasksTotal *prometheus.CounterVec
	duration   prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		tasksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tabq",
			Subsystem: "worker",
			Name:      "tasks_total",
			Help:      "Deliveries consumed from the tasks queue by terminal outcome.",
		}, []string{"outcome"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tabq",
			Subsystem: "worker",
			Name:      "task_duration_seconds",
			Help:      "Wall time spent handling one delivery.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) observe(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.tasksTotal.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}
