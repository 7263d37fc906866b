package texload

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/am-sokolov/go-basisu/basisu"
)

// Metrics holds the decode collectors. A nil *Metrics records nothing.
type Metrics struct {
	decodesTotal   *prometheus.CounterVec
	decodeDuration *prometheus.HistogramVec
	outputBytes    prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		decodesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "basisu_decodes_total",
			Help: "Total texture decodes by container and final status.",
		}, []string{"container", "status"}),
		decodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "basisu_decode_duration_seconds",
			Help:    "Time spent parsing and transcoding one texture.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 9),
		}, []string{"container"}),
		outputBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "basisu_output_bytes_total",
			Help: "Total bytes of transcoded pixel data produced.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.decodesTotal, m.decodeDuration, m.outputBytes)
	}
	return m
}

func (m *Metrics) observe(c Container, err error, d time.Duration, img *basisu.Image) {
	if m == nil {
		return
	}
	m.decodesTotal.WithLabelValues(string(c), statusLabel(err)).Inc()
	m.decodeDuration.WithLabelValues(string(c)).Observe(d.Seconds())
	if err == nil && img != nil {
		m.outputBytes.Add(float64(len(img.Data)))
	}
}

// statusLabel returns "ok" or the error code name, e.g. "bad_container".
func statusLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return strings.ToLower(strings.TrimPrefix(basisu.ErrorString(basisu.ErrorCodeOf(err)), "ERR_"))
}
