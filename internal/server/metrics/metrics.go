// Package metrics exposes Prometheus counters for the gRPC surface and a
// small HTTP side server for scraping and health checks.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"google.golang.org/grpc/codes"
)

const namespace = "simpleshare"

type Metrics struct {
	registry    *prometheus.Registry
	rpcTotal    *prometheus.CounterVec
	rpcDuration *prometheus.HistogramVec
	signIns     *prometheus.CounterVec
	dropped     prometheus.Counter
}

// New registers all collectors on a private registry. listeners reports the
// number of live change feed subscriptions at scrape time; nil disables
// that gauge.
func New(listeners func() int) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		rpcTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "gRPC requests by method and status code",
		}, []string{"method", "code"}),
		rpcDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "Unary gRPC handling time",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		signIns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sign_ins_total",
			Help:      "Successful sign-ins, split by first-time registration",
		}, []string{"created"}),
		dropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listen_streams_closed_total",
			Help:      "Listen streams ended by the server",
		}),
	}

	if listeners != nil {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_listeners",
			Help:      "Live change feed subscriptions",
		}, func() float64 { return float64(listeners()) })
	}

	return m
}

func (m *Metrics) ObserveRPC(method string, code codes.Code, d time.Duration) {
	m.rpcTotal.WithLabelValues(method, code.String()).Inc()
	if d > 0 {
		m.rpcDuration.WithLabelValues(method).Observe(d.Seconds())
	}
}

func (m *Metrics) SignIn(created bool) {
	label := "false"
	if created {
		label = "true"
	}
	m.signIns.WithLabelValues(label).Inc()
}

func (m *Metrics) StreamClosed() {
	m.dropped.Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
