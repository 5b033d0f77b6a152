package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tpma1205/lifecycle-index-sim/pkg/constants"
)

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Address != constants.DefaultServerAddress {
		t.Fatalf("expected default address, got %q", cfg.Address)
	}
	if cfg.BodySizeBytes() != constants.DefaultMaxBodySizeBytes {
		t.Fatalf("expected default max body size, got %d", cfg.BodySizeBytes())
	}
	if cfg.Tracing.Enabled {
		t.Fatal("expected tracing disabled by default")
	}
	if cfg.Tracing.Exporter != "stdout" {
		t.Fatalf("expected stdout exporter default, got %q", cfg.Tracing.Exporter)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server-config.yaml")

	contents := []byte(`address: 127.0.0.1:9000
maxBodySize: 2M
logging:
  level: debug
  format: console
  outputFile: /tmp/server.log
tracing:
  enabled: true
  exporter: otlp
  endpoint: collector:4317
  sampleRatio: 0.25
`)
	if err := os.WriteFile(path, contents, 0600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Address != "127.0.0.1:9000" {
		t.Fatalf("expected address override, got %s", cfg.Address)
	}
	if cfg.BodySizeBytes() != 2*1024*1024 {
		t.Fatalf("expected max body override, got %d", cfg.BodySizeBytes())
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Fatalf("unexpected logging section: %+v", cfg.Logging)
	}
	if cfg.Logging.OutputFile != "/tmp/server.log" {
		t.Fatalf("expected logging outputFile /tmp/server.log, got %s", cfg.Logging.OutputFile)
	}
	if !cfg.Tracing.Enabled || cfg.Tracing.Exporter != "otlp" || cfg.Tracing.Endpoint != "collector:4317" {
		t.Fatalf("unexpected tracing section: %+v", cfg.Tracing)
	}
	if cfg.Tracing.SampleRatio != 0.25 {
		t.Fatalf("expected sample ratio 0.25, got %v", cfg.Tracing.SampleRatio)
	}
}

func TestLoadConfigInvalidSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")

	if err := os.WriteFile(path, []byte("maxBodySize: invalid"), 0600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for invalid size but got nil")
	}
}

func TestSetBodySizeBytes(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	cfg.SetBodySizeBytes(4096)
	if cfg.BodySizeBytes() != 4096 || cfg.MaxBodySize != "4096" {
		t.Fatalf("unexpected body size after override: %d (%s)", cfg.BodySizeBytes(), cfg.MaxBodySize)
	}
	cfg.SetBodySizeBytes(-1)
	if cfg.BodySizeBytes() != 4096 {
		t.Fatal("non-positive override should be ignored")
	}
}

func TestParseSize(t *testing.T) {
	tests := map[string]int64{
		"":          constants.DefaultMaxBodySizeBytes,
		"1024":      1024,
		"512b":      512,
		"256K":      256 * 1024,
		"1m":        1024 * 1024,
		"3MB":       3 * 1024 * 1024,
		"2G":        2 * 1024 * 1024 * 1024,
		"1gb":       1024 * 1024 * 1024,
		"  4096   ": 4096,
	}

	for input, expected := range tests {
		got, err := ParseSize(input)
		if err != nil {
			t.Fatalf("ParseSize(%q) returned error: %v", input, err)
		}
		if got != expected {
			t.Fatalf("ParseSize(%q) = %d, expected %d", input, got, expected)
		}
	}

	for _, bad := range []string{"1TB", "KB", "abc", "9223372036854775807G"} {
		if _, err := ParseSize(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
