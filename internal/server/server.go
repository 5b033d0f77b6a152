// Package server exposes the projection engine over HTTP.
package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/tpma1205/lifecycle-index-sim/internal/config"
	"github.com/tpma1205/lifecycle-index-sim/internal/forecast"
	"github.com/tpma1205/lifecycle-index-sim/internal/montecarlo"
	"github.com/tpma1205/lifecycle-index-sim/internal/observability"
	"github.com/tpma1205/lifecycle-index-sim/internal/optimizer"
	"github.com/tpma1205/lifecycle-index-sim/internal/policy"
	"github.com/tpma1205/lifecycle-index-sim/internal/simulation"
	"github.com/tpma1205/lifecycle-index-sim/pkg/constants"
	"github.com/tpma1205/lifecycle-index-sim/pkg/output"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type handler struct {
	logger      *zap.Logger
	maxBodySize int64
	version     string
	metrics     *observability.SimulationCollector
}

// RunMetadata identifies one API computation.
type RunMetadata struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
	DurationMs  float64   `json:"durationMs"`
}

type simulationRequest struct {
	Config  map[string]interface{} `json:"config"`
	Options requestOptions         `json:"options"`
}

type requestOptions struct {
	Runs       int              `json:"runs,omitempty"`
	Seed       *uint64          `json:"seed,omitempty"`
	Calibrate  bool             `json:"calibrate,omitempty"`
	Withdrawal optimizer.Config `json:"withdrawal,omitempty"`
}

type simulationResponse struct {
	Metadata RunMetadata `json:"metadata"`
	output.Report
	Summaries []output.Summary `json:"summaries,omitempty"`
	CSV       string           `json:"csv,omitempty"`
}

// endpoint binds a route to the forecast options it runs.
type endpoint struct {
	name    string
	mode    string
	options func(requestOptions) forecast.Options
}

// NewHandler constructs the HTTP handler that serves the projection API.
// A nil metrics collector disables /metrics and request instrumentation.
func NewHandler(logger *zap.Logger, maxBodySize int64, version string, metrics *observability.SimulationCollector) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodySizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, maxBodySize: maxBodySize, version: trimmedVersion, metrics: metrics}

	mux := http.NewServeMux()
	route := func(pattern, name string, fn http.HandlerFunc) {
		var next http.Handler = fn
		if metrics != nil {
			next = metrics.Middleware(name, next)
		}
		mux.Handle(pattern, next)
	}

	route("/api/simulate", "simulate", h.simulation(endpoint{
		name: "simulate",
		mode: constants.ModeDeterministic,
		options: func(o requestOptions) forecast.Options {
			return forecast.Options{Calibrate: o.Calibrate}
		},
	}))
	route("/api/montecarlo", "montecarlo", h.simulation(endpoint{
		name: "montecarlo",
		mode: constants.ModeMonteCarlo,
		options: func(o requestOptions) forecast.Options {
			return forecast.Options{Runs: o.Runs, Seed: o.Seed, Calibrate: o.Calibrate}
		},
	}))
	route("/api/calibrate", "calibrate", h.simulation(endpoint{
		name: "calibrate",
		mode: constants.ModeDeterministic,
		options: func(requestOptions) forecast.Options {
			return forecast.Options{Calibrate: true}
		},
	}))
	route("/api/withdrawal/max", "withdrawal", h.simulation(endpoint{
		name: "withdrawal",
		mode: constants.ModeDeterministic,
		options: func(o requestOptions) forecast.Options {
			return forecast.Options{Calibrate: o.Calibrate, MaxWithdrawal: true, Withdrawal: o.Withdrawal}
		},
	}))
	route("/api/config/export", "export", h.handleConfigExport)
	route("/api/version", "version", h.handleVersion)

	if metrics != nil {
		mux.Handle("/metrics", metrics.Handler())
	}

	return mux
}

func (h *handler) simulation(ep endpoint) http.HandlerFunc {
	op := "server." + ep.name
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		start := time.Now()
		meta := RunMetadata{ID: uuid.NewString(), StartedAt: start.UTC()}

		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := observability.Tracer().Start(ctx, op)
		defer span.End()
		span.SetAttributes(attribute.String("lifesim.run_id", meta.ID))

		var req simulationRequest
		if status, err := h.decode(w, r, &req); err != nil {
			h.respondError(w, status, err.Error(), op)
			return
		}
		if req.Config == nil {
			h.respondError(w, http.StatusBadRequest, "missing config object", op)
			return
		}

		conf, err := loadConfigMap(req.Config)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, err.Error(), op)
			return
		}

		opts := ep.options(req.Options)
		opts.Mode = ep.mode
		report, err := forecast.GetForecast(ctx, h.logger, *conf, opts)
		h.metrics.ObserveSimulation(ep.mode, err)
		if err != nil {
			h.respondError(w, statusFor(err), err.Error(), op)
			return
		}
		if report.MonteCarlo != nil {
			h.metrics.ObserveMonteCarlo(report.MonteCarlo.RunCount, report.MonteCarlo.SuccessRate)
		}

		var csv bytes.Buffer
		if err := output.CsvFormat(&csv, *report); err != nil {
			h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render csv: %v", err), op)
			return
		}

		meta.CompletedAt = time.Now().UTC()
		elapsed := meta.CompletedAt.Sub(meta.StartedAt)
		meta.DurationMs = float64(elapsed.Microseconds()) / 1000

		h.logger.Info("simulation computed",
			zap.String("op", op),
			zap.String("runId", meta.ID),
			zap.String("mode", report.Mode),
			zap.Duration("duration", elapsed),
		)

		h.writeJSON(w, http.StatusOK, simulationResponse{
			Metadata:  meta,
			Report:    *report,
			Summaries: report.Summaries(),
			CSV:       csv.String(),
		})
	}
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleConfigExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleConfigExport"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var payload map[string]interface{}
	if status, err := h.decode(w, r, &payload); err != nil {
		h.respondError(w, status, err.Error(), op)
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}

	yamlBytes, err := marshalOrderedConfigYAML(payload)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}

	conf, err := config.LoadConfigurationFromReader(bytes.NewReader(yamlBytes))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"configYaml": string(yamlBytes),
		"warnings":   conf.ValidateConfiguration(),
	})
}

// decode reads a size-limited JSON body into v.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) (int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return http.StatusRequestEntityTooLarge, fmt.Errorf("request body exceeds limit of %d bytes", h.maxBodySize)
		}
		return http.StatusBadRequest, fmt.Errorf("failed to read request: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return http.StatusBadRequest, fmt.Errorf("failed to decode request: %v", err)
	}
	return http.StatusOK, nil
}

// loadConfigMap routes a JSON config object through the YAML loader so API
// and file configurations share decoding and defaults.
func loadConfigMap(configMap map[string]interface{}) (*config.Configuration, error) {
	configBytes, err := yaml.Marshal(configMap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %v", err)
	}
	return config.LoadConfigurationFromReader(bytes.NewReader(configBytes))
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, simulation.ErrInvalidInput),
		errors.Is(err, montecarlo.ErrDegenerateMonteCarloConfig),
		errors.Is(err, policy.ErrInvalidSchedule),
		errors.Is(err, policy.ErrIncompleteLeverageCoverage):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func marshalOrderedConfigYAML(payload map[string]interface{}) ([]byte, error) {
	items := make([]orderedItem, 0, len(payload))
	seen := make(map[string]struct{})

	for _, key := range []string{"profile", "leverage", "friction", "monteCarlo", "logging", "output"} {
		if value, ok := payload[key]; ok {
			items = append(items, orderedItem{key: key, value: value})
			seen[key] = struct{}{}
		}
	}

	remainingKeys := make([]string, 0, len(payload))
	for key := range payload {
		if _, already := seen[key]; already {
			continue
		}
		remainingKeys = append(remainingKeys, key)
	}
	sort.Strings(remainingKeys)
	for _, key := range remainingKeys {
		items = append(items, orderedItem{key: key, value: payload[key]})
	}

	return yaml.Marshal(orderedConfig{items: items})
}

type orderedConfig struct {
	items []orderedItem
}

type orderedItem struct {
	key   string
	value interface{}
}

func (o orderedConfig) MarshalYAML() (interface{}, error) {
	mapNode := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
	}

	for _, item := range o.items {
		keyNode := &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!str",
			Value: item.key,
		}
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(item.value); err != nil {
			return nil, err
		}
		mapNode.Content = append(mapNode.Content, keyNode, valueNode)
	}

	return mapNode, nil
}

func (h *handler) respondError(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

// writeJSON encodes the payload before committing the status, so an
// unencodable payload becomes a 500 instead of an empty success.
func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to encode JSON response",
			zap.Int("status", status),
			zap.Error(err),
		)
		status = http.StatusInternalServerError
		body = []byte(`{"error":"failed to encode response"}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
