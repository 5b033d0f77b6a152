// Package observability wires Prometheus metrics and OpenTelemetry tracing
// for the HTTP surface.
package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SimulationCollector bundles Prometheus metrics for the API and the
// simulations it runs.
type SimulationCollector struct {
	gatherer prometheus.Gatherer

	Requests         *prometheus.CounterVec
	RequestDurations *prometheus.HistogramVec
	Simulations      *prometheus.CounterVec
	MonteCarloRuns   prometheus.Counter
	LastSuccessRate  prometheus.Gauge
}

// NewSimulationCollector registers metrics against reg, defaulting to the
// global Prometheus registry when nil.
func NewSimulationCollector(reg prometheus.Registerer) (*SimulationCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lifesim_http_requests_total",
		Help: "Total number of handled API requests, labeled by endpoint and HTTP status code.",
	}, []string{"endpoint", "code"}), "lifesim_http_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lifesim_http_request_duration_seconds",
		Help:    "API request latency in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"endpoint"}), "lifesim_http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	simulations, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lifesim_simulations_total",
		Help: "Total number of projections, labeled by mode and outcome.",
	}, []string{"mode", "outcome"}), "lifesim_simulations_total")
	if err != nil {
		return nil, err
	}

	runs, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lifesim_montecarlo_runs_total",
		Help: "Total number of Monte Carlo paths simulated.",
	}), "lifesim_montecarlo_runs_total")
	if err != nil {
		return nil, err
	}

	successRate, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lifesim_montecarlo_last_success_rate",
		Help: "Success rate percentage of the most recent Monte Carlo request.",
	}), "lifesim_montecarlo_last_success_rate")
	if err != nil {
		return nil, err
	}

	return &SimulationCollector{
		gatherer:         gatherer,
		Requests:         requests,
		RequestDurations: durations,
		Simulations:      simulations,
		MonteCarloRuns:   runs,
		LastSuccessRate:  successRate,
	}, nil
}

// Middleware records request counts and durations for one endpoint.
func (c *SimulationCollector) Middleware(endpoint string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if c == nil {
			return
		}
		if c.Requests != nil {
			c.Requests.WithLabelValues(endpoint, strconv.Itoa(rec.status)).Inc()
		}
		if c.RequestDurations != nil {
			c.RequestDurations.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		}
	})
}

// ObserveSimulation counts one projection attempt.
func (c *SimulationCollector) ObserveSimulation(mode string, err error) {
	if c == nil || c.Simulations == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.Simulations.WithLabelValues(mode, outcome).Inc()
}

// ObserveMonteCarlo records the paths simulated by one request.
func (c *SimulationCollector) ObserveMonteCarlo(runs int, successRate float64) {
	if c == nil {
		return
	}
	if c.MonteCarloRuns != nil {
		c.MonteCarloRuns.Add(float64(runs))
	}
	if c.LastSuccessRate != nil {
		c.LastSuccessRate.Set(successRate)
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SimulationCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
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

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
