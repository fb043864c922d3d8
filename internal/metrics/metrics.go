package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gridarena.ai/internal/sim/world"
)

// Sim owns its own registry so tests and multiple runs never collide on the
// global default. Labels are bounded: collision kinds and rejection reasons
// only, never agent names.
type Sim struct {
	reg *prometheus.Registry

	tickDuration  prometheus.Histogram
	ticks         prometheus.Counter
	frags         prometheus.Counter
	collisions    *prometheus.CounterVec
	missilesFired prometheus.Counter
	missilesLive  prometheus.Gauge
	agentsLive    prometheus.Gauge

	wsActive   prometheus.Gauge
	wsRejected *prometheus.CounterVec
}

func New() *Sim {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	f := promauto.With(reg)
	return &Sim{
		reg: reg,
		tickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "gridarena_tick_duration_seconds",
			Help:    "Time spent stepping one tick.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
		ticks: f.NewCounter(prometheus.CounterOpts{
			Name: "gridarena_ticks_total",
			Help: "Ticks stepped.",
		}),
		frags: f.NewCounter(prometheus.CounterOpts{
			Name: "gridarena_frags_total",
			Help: "Agents destroyed.",
		}),
		collisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gridarena_collisions_total",
			Help: "Collision groups resolved, by kind.",
		}, []string{"kind"}), // wall|cross|chain
		missilesFired: f.NewCounter(prometheus.CounterOpts{
			Name: "gridarena_missiles_fired_total",
			Help: "Missiles spawned.",
		}),
		missilesLive: f.NewGauge(prometheus.GaugeOpts{
			Name: "gridarena_missiles_live",
			Help: "Missiles in flight after the last tick.",
		}),
		agentsLive: f.NewGauge(prometheus.GaugeOpts{
			Name: "gridarena_agents_live",
			Help: "Agents alive after the last tick.",
		}),
		wsActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "gridarena_ws_connections_active",
			Help: "Connected websocket agents.",
		}),
		wsRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gridarena_ws_rejected_total",
			Help: "Websocket frames or connections rejected.",
		}, []string{"reason"}), // rate_limit|schema|handshake|seat
	}
}

// ObserveTick implements world.Observer.
func (s *Sim) ObserveTick(t world.TickStats) {
	if s == nil {
		return
	}
	s.tickDuration.Observe(t.Duration.Seconds())
	s.ticks.Inc()
	s.frags.Add(float64(t.Frags))
	for kind, n := range t.Collisions {
		s.collisions.WithLabelValues(kind).Add(float64(n))
	}
	s.missilesFired.Add(float64(t.MissilesFired))
	s.missilesLive.Set(float64(t.MissilesLive))
	s.agentsLive.Set(float64(t.AgentsLive))
}

func (s *Sim) ConnOpened() {
	if s != nil {
		s.wsActive.Inc()
	}
}

func (s *Sim) ConnClosed() {
	if s != nil {
		s.wsActive.Dec()
	}
}

func (s *Sim) Rejected(reason string) {
	if s != nil {
		s.wsRejected.WithLabelValues(reason).Inc()
	}
}

// GaugeFunc registers a gauge read on every scrape, e.g. index queue depth.
func (s *Sim) GaugeFunc(name, help string, fn func() float64) {
	s.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, fn))
}

func (s *Sim) Registry() *prometheus.Registry { return s.reg }

func (s *Sim) Handler() http.Handler {
	return promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{})
}
