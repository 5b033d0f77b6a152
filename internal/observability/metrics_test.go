package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestMiddlewareRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSimulationCollector(reg)
	if err != nil {
		t.Fatalf("NewSimulationCollector: %v", err)
	}

	handler := collector.Middleware("simulate", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/simulate", nil))

	if got := testutil.ToFloat64(collector.Requests.WithLabelValues("simulate", "400")); got != 1 {
		t.Fatalf("lifesim_http_requests_total = %v, want 1", got)
	}
	if count := histogramSampleCount(t, reg, "lifesim_http_request_duration_seconds", map[string]string{
		"endpoint": "simulate",
	}); count != 1 {
		t.Fatalf("lifesim_http_request_duration_seconds sample_count = %d, want 1", count)
	}
}

func TestMiddlewareDefaultsToOK(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSimulationCollector(reg)
	if err != nil {
		t.Fatalf("NewSimulationCollector: %v", err)
	}

	handler := collector.Middleware("version", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/version", nil))

	if got := testutil.ToFloat64(collector.Requests.WithLabelValues("version", "200")); got != 1 {
		t.Fatalf("lifesim_http_requests_total = %v, want 1", got)
	}
}

func TestObserveSimulationAndMonteCarlo(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSimulationCollector(reg)
	if err != nil {
		t.Fatalf("NewSimulationCollector: %v", err)
	}

	collector.ObserveSimulation("deterministic", nil)
	collector.ObserveSimulation("montecarlo", errors.New("boom"))
	collector.ObserveMonteCarlo(500, 87.5)
	collector.ObserveMonteCarlo(250, 60)

	if got := testutil.ToFloat64(collector.Simulations.WithLabelValues("deterministic", "ok")); got != 1 {
		t.Errorf("deterministic ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.Simulations.WithLabelValues("montecarlo", "error")); got != 1 {
		t.Errorf("montecarlo error = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.MonteCarloRuns); got != 750 {
		t.Errorf("runs = %v, want 750", got)
	}
	if got := testutil.ToFloat64(collector.LastSuccessRate); got != 60 {
		t.Errorf("last success rate = %v, want 60", got)
	}

	var nilCollector *SimulationCollector
	nilCollector.ObserveSimulation("deterministic", nil)
	nilCollector.ObserveMonteCarlo(1, 1)
}

func TestNewSimulationCollectorReusesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewSimulationCollector(reg)
	if err != nil {
		t.Fatalf("NewSimulationCollector: %v", err)
	}
	second, err := NewSimulationCollector(reg)
	if err != nil {
		t.Fatalf("second NewSimulationCollector: %v", err)
	}
	if first.Requests != second.Requests {
		t.Error("expected the existing counter vector to be reused")
	}
}

func TestMetricsHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSimulationCollector(reg)
	if err != nil {
		t.Fatalf("NewSimulationCollector: %v", err)
	}
	collector.Requests.WithLabelValues("simulate", "200").Inc()
	collector.RequestDurations.WithLabelValues("simulate").Observe(0.01)
	collector.ObserveSimulation("deterministic", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"lifesim_http_requests_total",
		"lifesim_http_request_duration_seconds",
		"lifesim_simulations_total",
		"lifesim_montecarlo_runs_total",
		"lifesim_montecarlo_last_success_rate",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
