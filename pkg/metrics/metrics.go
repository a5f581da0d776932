package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors shared by the service. Dispatch
// outcomes are labeled by status so the degraded (simulated) path stays
// visible even though it never surfaces as an error.
type Metrics struct {
	SearchQueries      prometheus.Counter
	DispatchesTotal    *prometheus.CounterVec
	RecipientsMatched  prometheus.Counter
	ScanEventsSelected prometheus.Counter
}

// New registers the collectors with reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SearchQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventradar",
			Name:      "search_queries_total",
			Help:      "Location search queries served",
		}),
		DispatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventradar",
			Name:      "notification_dispatches_total",
			Help:      "Notification dispatches by outcome status",
		}, []string{"status"}),
		RecipientsMatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventradar",
			Name:      "notification_recipients_total",
			Help:      "Recipients matched across all dispatches",
		}),
		ScanEventsSelected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventradar",
			Name:      "scan_events_selected_total",
			Help:      "Events selected by upcoming-event scans",
		}),
	}

	reg.MustRegister(m.SearchQueries, m.DispatchesTotal, m.RecipientsMatched, m.ScanEventsSelected)
	return m
}

// NewUnregistered returns collectors bound to a private registry, for tests.
func NewUnregistered() *Metrics {
	return New(prometheus.NewRegistry())
}
