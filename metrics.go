package centrifuge

import (
	"time"

	"github.com/FZambia/eagle"
	"github.com/prometheus/client_golang/prometheus"
)

// clientMetrics are the prometheus collectors exposed by a Client, named
// under the configured MetricsNamespace so multiple clients in one process
// don't collide (spec.md §9, "observability").
type clientMetrics struct {
	reconnects   prometheus.Counter
	commandsSent *prometheus.CounterVec
	commandErr   *prometheus.CounterVec
	pingRTT      prometheus.Histogram
}

func newClientMetrics(registry prometheus.Registerer, namespace string) *clientMetrics {
	m := &clientMetrics{
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnects_total",
			Help:      "Number of reconnect attempts scheduled by the client.",
		}),
		commandsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_sent_total",
			Help:      "Number of commands sent by method.",
		}, []string{"method"}),
		commandErr: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "command_errors_total",
			Help:      "Number of command replies carrying a server error, by code.",
		}, []string{"code"}),
		pingRTT: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ping_rtt_seconds",
			Help:      "Round-trip time of client-driven pings.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if registry != nil {
		registry.MustRegister(m.reconnects, m.commandsSent, m.commandErr, m.pingRTT)
	}
	return m
}

// metricsSnapshotter periodically pushes a point-in-time rendering of the
// registry to a log sink, grounded in the teacher's own use of eagle for
// node-level metrics export (node.go) rather than relying on a pull-only
// /metrics endpoint.
type metricsSnapshotter struct {
	exporter *eagle.Eagle
	stopCh   chan struct{}
}

func newMetricsSnapshotter(gatherer prometheus.Gatherer, log *logger, interval time.Duration) *metricsSnapshotter {
	exporter := eagle.New(eagle.Config{
		Gatherer: gatherer,
	})
	s := &metricsSnapshotter{exporter: exporter, stopCh: make(chan struct{})}
	go s.run(log, interval)
	return s
}

func (s *metricsSnapshotter) run(log *logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			data, err := s.exporter.Export()
			if err != nil {
				log.log(newLogEntry(LogLevelWarn, "metrics export failed", map[string]any{"error": err.Error()}))
				continue
			}
			log.log(newLogEntry(LogLevelInfo, "metrics snapshot", map[string]any{"metrics": data}))
		case <-s.stopCh:
			return
		}
	}
}

func (s *metricsSnapshotter) Stop() {
	close(s.stopCh)
}
