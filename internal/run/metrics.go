package run

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/sirupsen/logrus"
)

type metrics struct {
	reg      *prometheus.Registry
	messages prometheus.Counter
	flagged  prometheus.Counter
	reloads  prometheus.Counter
	hooks    *prometheus.CounterVec
	aliases  prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		reg: prometheus.NewRegistry(),
		messages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aka",
			Name:      "messages_total",
			Help:      "Chat messages checked against the alias list",
		}),
		flagged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aka",
			Name:      "flagged_total",
			Help:      "Chat messages flagged as mentioning an alias",
		}),
		reloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aka",
			Name:      "alias_reloads_total",
			Help:      "Alias list rebuilds after a preference change",
		}),
		hooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aka",
			Subsystem: "hook",
			Name:      "jobs_total",
			Help:      "Hook jobs by outcome",
		}, []string{"result"}),
		aliases: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "aka",
			Name:      "aliases",
			Help:      "Aliases in the active list",
		}),
	}
	m.reg.MustRegister(m.messages, m.flagged, m.reloads, m.hooks, m.aliases)
	return m
}

func (m *metrics) incHeard()   { m.messages.Inc() }
func (m *metrics) incFlagged() { m.flagged.Inc() }
func (m *metrics) incReload()  { m.reloads.Inc() }
func (m *metrics) incSent()    { m.hooks.WithLabelValues("sent").Inc() }
func (m *metrics) incFailed()  { m.hooks.WithLabelValues("failed").Inc() }
func (m *metrics) incSkipped() { m.hooks.WithLabelValues("skipped").Inc() }
func (m *metrics) incDropped() { m.hooks.WithLabelValues("dropped").Inc() }

func (m *metrics) setAliases(n int) { m.aliases.Set(float64(n)) }

func counterValue(c prometheus.Counter) int64 {
	var pb dto.Metric
	if err := c.Write(&pb); err != nil {
		return 0
	}
	return int64(pb.GetCounter().GetValue())
}

func (s *Server) metricsServe(ctxDone <-chan struct{}, addr string, logger *logrus.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.reg, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	go func() {
		<-ctxDone
		_ = server.Close()
	}()
	logger.Infof("metrics listening on http://%s/metrics", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warnf("metrics server: %v", err)
	}
}
