package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tpma1205/lifecycle-index-sim/internal/config"
	"github.com/tpma1205/lifecycle-index-sim/internal/simulation"
	"github.com/tpma1205/lifecycle-index-sim/pkg/constants"
	"github.com/tpma1205/lifecycle-index-sim/pkg/output"
	"go.uber.org/zap"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		expectErr bool
		check     func(t *testing.T, f cliFlags)
	}{
		{
			name: "Defaults",
			args: nil,
			check: func(t *testing.T, f cliFlags) {
				if f.configLocation != constants.DefaultConfigFile {
					t.Errorf("config = %s", f.configLocation)
				}
				if f.options().Seed != nil {
					t.Error("default seed should defer to configuration")
				}
			},
		},
		{
			name: "Overrides",
			args: []string{"-mode", "montecarlo", "-runs", "50", "-seed", "7", "-calibrate", "-max-withdrawal"},
			check: func(t *testing.T, f cliFlags) {
				opts := f.options()
				if opts.Mode != constants.ModeMonteCarlo || opts.Runs != 50 {
					t.Errorf("unexpected options %+v", opts)
				}
				if opts.Seed == nil || *opts.Seed != 7 {
					t.Errorf("seed = %v, expected 7", opts.Seed)
				}
				if !opts.Calibrate || !opts.MaxWithdrawal {
					t.Error("expected calibrate and max-withdrawal")
				}
			},
		},
		{
			name: "Seed above int64 range",
			args: []string{"-seed", "18000000000000000000"},
			check: func(t *testing.T, f cliFlags) {
				opts := f.options()
				if opts.Seed == nil || *opts.Seed != 18000000000000000000 {
					t.Errorf("seed = %v, expected 18000000000000000000", opts.Seed)
				}
			},
		},
		{
			name: "Explicit zero seed",
			args: []string{"-seed", "0"},
			check: func(t *testing.T, f cliFlags) {
				opts := f.options()
				if opts.Seed == nil || *opts.Seed != 0 {
					t.Errorf("seed = %v, expected 0", opts.Seed)
				}
			},
		},
		{name: "Negative seed", args: []string{"-seed", "-1"}, expectErr: true},
		{name: "Invalid mode", args: []string{"-mode", "historical"}, expectErr: true},
		{name: "Invalid runs", args: []string{"-runs", "-3"}, expectErr: true},
		{name: "Unknown flag", args: []string{"-bogus"}, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := parseFlags(tt.args)
			if tt.expectErr {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseFlags() error = %v", err)
			}
			tt.check(t, f)
		})
	}
}

func TestResolveOutput(t *testing.T) {
	tests := []struct {
		name           string
		conf           config.OutputConfig
		flags          cliFlags
		expectedFormat string
		expectedFile   string
		expectErr      bool
	}{
		{name: "Default pretty", expectedFormat: "pretty"},
		{name: "Config format", conf: config.OutputConfig{Format: "csv", File: "out.csv"}, expectedFormat: "csv", expectedFile: "out.csv"},
		{name: "Flag wins", conf: config.OutputConfig{Format: "csv"}, flags: cliFlags{outputFormat: "json"}, expectedFormat: "json"},
		{name: "PDF with file", flags: cliFlags{outputFormat: "pdf", outputFile: "r.pdf"}, expectedFormat: "pdf", expectedFile: "r.pdf"},
		{name: "PDF without file", flags: cliFlags{outputFormat: "pdf"}, expectErr: true},
		{name: "Unknown format", conf: config.OutputConfig{Format: "xml"}, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, file, err := resolveOutput(tt.conf, tt.flags)
			if tt.expectErr {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveOutput() error = %v", err)
			}
			if format != tt.expectedFormat || file != tt.expectedFile {
				t.Errorf("resolveOutput() = (%s, %s), expected (%s, %s)", format, file, tt.expectedFormat, tt.expectedFile)
			}
		})
	}
}

func TestWriteReportToFile(t *testing.T) {
	conf := config.Configuration{Profile: config.Profile{
		CurrentAge:       40,
		CurrentNetWorth:  100,
		AnnualReturnRate: 5,
		TargetNetWorth:   200,
		RetireAge:        65,
		AnnualWithdrawal: 8,
	}}
	conf.ApplyDefaults()

	in := conf.ToInput()
	result, err := simulation.Deterministic(zap.NewNop(), in)
	if err != nil {
		t.Fatalf("Deterministic() error = %v", err)
	}
	report := &output.Report{Mode: constants.ModeDeterministic, Input: in, Deterministic: result}

	path := filepath.Join(t.TempDir(), "report.csv")
	if err := writeReport(constants.OutputFormatCSV, path, report); err != nil {
		t.Fatalf("writeReport() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected CSV output in file")
	}
}

func TestWriteReportMissingDirectory(t *testing.T) {
	report := &output.Report{Mode: constants.ModeDeterministic}
	path := filepath.Join(t.TempDir(), "missing", "report.csv")
	if err := writeReport(constants.OutputFormatCSV, path, report); err == nil {
		t.Fatal("expected error for an uncreatable output file")
	}
}
