package service

import "github.com/prometheus/client_golang/prometheus"

// Result labels for upload_ingest_total.
const (
	resultCompleted          = "completed"
	resultStorageUnavailable = "storage_unavailable"
	resultCopyFailed         = "copy_failed"
)

// Metrics holds the Prometheus collectors for the ingest pipeline.
type Metrics struct {
	ingests *prometheus.CounterVec
	bytes   prometheus.Counter
}

// NewMetrics creates the ingest collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		ingests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upload_ingest_total",
				Help: "Total number of upload ingests by result.",
			},
			[]string{"result"},
		),
		bytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "upload_ingest_bytes_total",
				Help: "Total number of bytes copied into the upload directory.",
			},
		),
	}

	if err := reg.Register(m.ingests); err != nil {
		return nil, err
	}
	if err := reg.Register(m.bytes); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) observe(result string, copied int64) {
	if m == nil {
		return
	}
	m.ingests.WithLabelValues(result).Inc()
	if copied > 0 {
		m.bytes.Add(float64(copied))
	}
}
