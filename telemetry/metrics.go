package telemetry

import (
	"github.com/IvanTurko/httpmediator/event"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics turns transfer events into Prometheus metrics. It implements
// event.Listener.
type Metrics struct {
	EventsTotal       *prometheus.CounterVec
	BytesReadTotal    prometheus.Counter
	BytesWrittenTotal prometheus.Counter
	DownloadRatio     prometheus.Gauge
	UploadRatio       prometheus.Gauge
	Uploaded          prometheus.Gauge
	Downloaded        prometheus.Gauge
}

// NewMetrics creates the metrics and registers them with reg.
// A nil reg registers with the default registry.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		EventsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfer_events_total",
			Help:      "Total number of transfer events dispatched.",
		}, []string{"event"}),

		BytesReadTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfer_request_body_bytes_total",
			Help:      "Request body bytes handed to the transfer engine.",
		}),

		BytesWrittenTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfer_response_body_bytes_total",
			Help:      "Response body bytes received from the transfer engine.",
		}),

		DownloadRatio: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "transfer_download_ratio",
			Help:      "Download completion of the last progress tick, 0 when the size is unknown.",
		}),

		UploadRatio: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "transfer_upload_ratio",
			Help:      "Upload completion of the last progress tick, 0 when the size is unknown.",
		}),

		Uploaded: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "transfer_uploaded_bytes",
			Help:      "Bytes uploaded as of the last progress tick.",
		}),

		Downloaded: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "transfer_downloaded_bytes",
			Help:      "Bytes downloaded as of the last progress tick.",
		}),
	}
}

// Listen records one event.
func (m *Metrics) Listen(name string, payload event.Payload) {
	m.EventsTotal.WithLabelValues(name).Inc()

	switch name {
	case event.Read:
		if chunk, ok := payload[event.KeyRead].([]byte); ok {
			m.BytesReadTotal.Add(float64(len(chunk)))
		}
	case event.Write:
		if chunk, ok := payload[event.KeyWrite].([]byte); ok {
			m.BytesWrittenTotal.Add(float64(len(chunk)))
		}
	case event.Progress:
		if info, ok := event.ProgressFrom(payload); ok {
			m.DownloadRatio.Set(info.DownloadRatio().InexactFloat64())
			m.UploadRatio.Set(info.UploadRatio().InexactFloat64())
			m.Uploaded.Set(float64(info.Uploaded))
			m.Downloaded.Set(float64(info.Downloaded))
		}
	}
}

// Snapshot holds the current byte totals. BytesRead and BytesWritten only
// grow from read and write events; Uploaded and Downloaded come from progress
// ticks and are always set.
type Snapshot struct {
	BytesRead    float64
	BytesWritten float64
	Uploaded     float64
	Downloaded   float64
}

// Snapshot reads the current byte totals.
func (m *Metrics) Snapshot() (Snapshot, error) {
	read, err := counterValue(m.BytesReadTotal)
	if err != nil {
		return Snapshot{}, err
	}
	written, err := counterValue(m.BytesWrittenTotal)
	if err != nil {
		return Snapshot{}, err
	}
	uploaded, err := gaugeValue(m.Uploaded)
	if err != nil {
		return Snapshot{}, err
	}
	downloaded, err := gaugeValue(m.Downloaded)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		BytesRead:    read,
		BytesWritten: written,
		Uploaded:     uploaded,
		Downloaded:   downloaded,
	}, nil
}

func counterValue(c prometheus.Counter) (float64, error) {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0, err
	}
	return m.GetCounter().GetValue(), nil
}

func gaugeValue(g prometheus.Gauge) (float64, error) {
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		return 0, err
	}
	return m.GetGauge().GetValue(), nil
}

var _ event.Listener = (*Metrics)(nil)
