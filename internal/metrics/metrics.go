package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "occupancy_events_ingested_total",
		Help: "Total events durably stored, labelled by event type.",
	}, []string{"event_type"})

	IngestRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "occupancy_ingest_rejected_total",
		Help: "Total ingestion attempts rejected before storage, labelled by reason.",
	}, []string{"reason"})

	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "occupancy_store_errors_total",
		Help: "Total storage failures, labelled by error kind.",
	}, []string{"kind"})

	AppendDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "occupancy_store_append_duration_ms",
		Help:    "Event append latency in milliseconds.",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
)
