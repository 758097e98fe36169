package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the complaint module.
// Tracks intake outcomes and critical path durations.
type Metrics struct {
	ComplaintsCreated prometheus.Counter
	ComplaintsMerged  prometheus.Counter
	SubmitDuration    prometheus.Histogram
	ListDuration      prometheus.Histogram
}

// New creates a new Metrics instance with all complaint module metrics registered.
func New() *Metrics {
	return &Metrics{
		ComplaintsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "complaintdesk_complaints_created_total",
			Help: "Total number of complaints created on first submission",
		}),
		ComplaintsMerged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "complaintdesk_complaints_merged_total",
			Help: "Total number of duplicate submissions merged into an existing complaint",
		}),
		SubmitDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "complaintdesk_submit_duration_seconds",
			Help:    "Duration of Submit operations including country resolution",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		ListDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "complaintdesk_list_duration_seconds",
			Help:    "Duration of List operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementCreated records a first-submission complaint.
func (m *Metrics) IncrementCreated() {
	m.ComplaintsCreated.Inc()
}

// IncrementMerged records a duplicate submission merged into an existing record.
func (m *Metrics) IncrementMerged() {
	m.ComplaintsMerged.Inc()
}

// ObserveSubmit records the duration of a Submit operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSubmit(start time.Time) {
	m.SubmitDuration.Observe(time.Since(start).Seconds())
}

// ObserveList records the duration of a List operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveList(start time.Time) {
	m.ListDuration.Observe(time.Since(start).Seconds())
}
