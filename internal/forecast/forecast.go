// Package forecast runs a configured projection end to end: optional leverage
// calibration, the deterministic or Monte Carlo simulation, and the optional
// withdrawal search.
package forecast

import (
	"context"
	"fmt"

	"github.com/tpma1205/lifecycle-index-sim/internal/calibration"
	"github.com/tpma1205/lifecycle-index-sim/internal/config"
	"github.com/tpma1205/lifecycle-index-sim/internal/montecarlo"
	"github.com/tpma1205/lifecycle-index-sim/internal/observability"
	"github.com/tpma1205/lifecycle-index-sim/internal/optimizer"
	"github.com/tpma1205/lifecycle-index-sim/internal/simulation"
	"github.com/tpma1205/lifecycle-index-sim/pkg/constants"
	"github.com/tpma1205/lifecycle-index-sim/pkg/output"
	"github.com/tpma1205/lifecycle-index-sim/pkg/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// Options select what a projection computes beyond the base path.
type Options struct {
	// Mode is deterministic or montecarlo; empty follows the configuration.
	Mode string
	// Runs overrides the configured Monte Carlo run count when positive.
	Runs int
	// Seed overrides the configured seed. With neither set a seed is drawn
	// and reported so the run can be replayed.
	Seed *uint64
	// Calibrate replaces the configured schedule with the suggested one.
	Calibrate bool
	// MaxWithdrawal runs the sustainable withdrawal search.
	MaxWithdrawal bool
	Withdrawal    optimizer.Config
}

// ResolveMode picks the mode from opts, falling back to the configuration.
func ResolveMode(conf config.Configuration, opts Options) string {
	if opts.Mode != "" {
		return opts.Mode
	}
	if conf.MonteCarlo.Enabled {
		return constants.ModeMonteCarlo
	}
	return constants.ModeDeterministic
}

// GetForecast computes the report for conf.
func GetForecast(ctx context.Context, logger *zap.Logger, conf config.Configuration, opts Options) (*output.Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mode := ResolveMode(conf, opts)
	if err := validation.ValidateMode(mode); err != nil {
		return nil, fmt.Errorf("%w: %v", simulation.ErrInvalidInput, err)
	}

	ctx, span := observability.Tracer().Start(ctx, "forecast.GetForecast")
	defer span.End()
	span.SetAttributes(
		attribute.String("lifesim.mode", mode),
		attribute.Bool("lifesim.calibrate", opts.Calibrate),
	)

	report, err := getForecast(ctx, logger, conf, mode, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return report, nil
}

func getForecast(ctx context.Context, logger *zap.Logger, conf config.Configuration, mode string, opts Options) (*output.Report, error) {
	in := conf.ToInput()
	report := &output.Report{
		Mode:     mode,
		Warnings: conf.ValidateConfiguration(),
	}

	if opts.Calibrate {
		_, span := observability.Tracer().Start(ctx, "calibration.Calibrate")
		calibrated, err := calibration.Calibrate(logger, in)
		span.End()
		if err != nil {
			return nil, fmt.Errorf("failed to calibrate leverage: %w", err)
		}
		in.Leverage = calibrated.Schedule
		report.Calibration = calibrated
	}
	report.Input = in

	switch mode {
	case constants.ModeMonteCarlo:
		runs := conf.MonteCarlo.Runs
		if opts.Runs > 0 {
			runs = opts.Runs
		}
		seed := opts.Seed
		if seed == nil {
			seed = conf.MonteCarlo.Seed
		}
		if seed == nil {
			drawn := montecarlo.RandomSeed()
			seed = &drawn
		}
		report.Seed = seed

		_, span := observability.Tracer().Start(ctx, "montecarlo.Run")
		span.SetAttributes(attribute.Int("lifesim.runs", runs))
		result, err := montecarlo.Run(logger, in, runs, montecarlo.NewSeededSource(*seed))
		span.End()
		if err != nil {
			return nil, err
		}
		report.MonteCarlo = result
	default:
		_, span := observability.Tracer().Start(ctx, "simulation.Deterministic")
		result, err := simulation.Deterministic(logger, in)
		span.End()
		if err != nil {
			return nil, err
		}
		report.Deterministic = result
	}

	if opts.MaxWithdrawal {
		_, span := observability.Tracer().Start(ctx, "optimizer.MaxSustainableWithdrawal")
		summary, err := optimizer.MaxSustainableWithdrawal(logger, in, opts.Withdrawal)
		span.End()
		if err != nil {
			return nil, fmt.Errorf("withdrawal search failed: %w", err)
		}
		report.Withdrawal = &summary
	}

	logger.Info("forecast computed",
		zap.String("op", "forecast.GetForecast"),
		zap.String("mode", mode),
		zap.Bool("calibrated", report.Calibration != nil),
		zap.Int("warnings", len(report.Warnings)),
	)
	return report, nil
}
