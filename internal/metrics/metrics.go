package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the application.
// It counts bot traffic and new registrations and times the row-store
// queries and report generation.
type Metrics struct {
	CommandReceived  *prometheus.CounterVec   // Counter for received commands and buttons
	SentMessages     *prometheus.CounterVec   // Counter for sent messages
	NewEmployees     prometheus.Counter       // Counter for first-contact registrations
	OperationsLogged *prometheus.CounterVec   // Counter for committed operations
	StoreDuration    *prometheus.HistogramVec // Histogram for row-store call durations
	ReportGeneration prometheus.Histogram     // Histogram for XLSX report generation
}

// NewMetrics creates a new Metrics instance with the provided Prometheus Registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		CommandReceived: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "skladbot_commands_received_total",
			Help: "Total number of used commands",
		}, []string{"command"}), // command: start, shift_start, shift_end, add_operation, summary, report
		SentMessages: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "skladbot_messages_sent_total",
			Help: "Output bot activity",
		}, []string{"type"}), // type: text, document, error
		NewEmployees: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "skladbot_new_employees_total",
			Help: "Total number of employees registered via /start",
		}),
		OperationsLogged: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "skladbot_operations_logged_total",
			Help: "Total number of recorded piecework operations",
		}, []string{"path"}), // path: dialog, freeform
		StoreDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "skladbot_store_query_duration_seconds",
			Help:    "Duration of row store calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"query_type"}), // query_type: 'open_shift', 'close_shift', 'append_operation'
		ReportGeneration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name: "skladbot_report_generation_duration_seconds",
			Help: "Duration of day report excel generation.",
		}),
	}
}
