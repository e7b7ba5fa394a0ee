package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the Prometheus collectors for directory lookups. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	Resolutions   *prometheus.CounterVec
	FetchFailures *prometheus.CounterVec
	Refreshes     *prometheus.CounterVec
}

// NewMetrics registers the lookup metrics against reg, defaulting to the
// global Prometheus registry when nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	resolutions, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "jobsites_resolutions_total",
		Help: "Resolved lookups, labeled by the tier that answered and the display status.",
	}, []string{"source", "status"}), "jobsites_resolutions_total")
	if err != nil {
		return nil, err
	}

	failures, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "jobsites_fetch_failures_total",
		Help: "Failed backend fetches, labeled by path (sync or background) and failure kind.",
	}, []string{"path", "kind"}), "jobsites_fetch_failures_total")
	if err != nil {
		return nil, err
	}

	refreshes, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "jobsites_background_refreshes_total",
		Help: "Background revalidations, labeled by outcome.",
	}, []string{"outcome"}), "jobsites_background_refreshes_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		gatherer:      gatherer,
		Resolutions:   resolutions,
		FetchFailures: failures,
		Refreshes:     refreshes,
	}, nil
}

func (m *Metrics) ObserveResolution(source, status string) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(source, status).Inc()
}

func (m *Metrics) ObserveFetchFailure(path, kind string) {
	if m == nil {
		return
	}
	m.FetchFailures.WithLabelValues(path, kind).Inc()
}

func (m *Metrics) ObserveRefresh(outcome string) {
	if m == nil {
		return
	}
	m.Refreshes.WithLabelValues(outcome).Inc()
}

// Handler exposes a ready-to-use /metrics handler.
func (m *Metrics) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if m != nil && m.gatherer != nil {
		gatherer = m.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
