package metric

import "github.com/prometheus/client_golang/prometheus"

// StateSource reports bridge state read at scrape time.
type StateSource interface {
	Generation() int64
	QueueDepth() int
	Busy() bool
}

// StateCollector exports session and host state without polling.
type StateCollector struct {
	src StateSource

	generation *prometheus.Desc
	queueDepth *prometheus.Desc
	hostBusy   *prometheus.Desc
}

// NewStateCollector creates a collector reading from src.
func NewStateCollector(src StateSource) *StateCollector {
	return &StateCollector{
		src: src,
		generation: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "session", "generation"),
			"Current session generation.", nil, nil),
		queueDepth: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "queue", "depth"),
			"Commands waiting for the host tick.", nil, nil),
		hostBusy: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "host", "busy"),
			"1 while the host is applying commands.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *StateCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.generation
	ch <- c.queueDepth
	ch <- c.hostBusy
}

// Collect implements prometheus.Collector.
func (c *StateCollector) Collect(ch chan<- prometheus.Metric) {
	busy := 0.0
	if c.src.Busy() {
		busy = 1
	}
	ch <- prometheus.MustNewConstMetric(c.generation, prometheus.GaugeValue, float64(c.src.Generation()))
	ch <- prometheus.MustNewConstMetric(c.queueDepth, prometheus.GaugeValue, float64(c.src.QueueDepth()))
	ch <- prometheus.MustNewConstMetric(c.hostBusy, prometheus.GaugeValue, busy)
}
