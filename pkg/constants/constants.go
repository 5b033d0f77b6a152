// Package constants provides shared constants for the lifecycle simulator.
package constants

// Age bounds for a simulation horizon.
const (
	// MinStartAge is the youngest supported starting age
	MinStartAge = 20

	// MaxAge is the final simulated age (inclusive)
	MaxAge = 100
)

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// DefaultBorrowingCost is the annual cost of borrowed exposure used by the
	// fixed friction policy.
	DefaultBorrowingCost = 0.012

	// MinCalibratedLeverage and MaxCalibratedLeverage bound the leverage
	// suggested by auto-calibration.
	MinCalibratedLeverage = 1.0
	MaxCalibratedLeverage = 2.0

	// LargeUnitThreshold is the balance at which reports switch to the large
	// display unit.
	LargeUnitThreshold = 10000.0

	// LargeUnitDivisor converts working units into large display units.
	LargeUnitDivisor = 10000.0
)

// Monte Carlo defaults
const (
	// DefaultMonteCarloRuns is the default number of randomized paths
	DefaultMonteCarloRuns = 1000

	// MaxMonteCarloRuns caps a single request
	MaxMonteCarloRuns = 20000
)

// Simulation modes
const (
	ModeDeterministic = "deterministic"
	ModeMonteCarlo    = "montecarlo"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"

	// OutputFormatPDF is the PDF report format (requires an output file)
	OutputFormatPDF = "pdf"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix is the prefix for environment overrides
	EnvPrefix = "LIFESIM"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (256 KB)
	DefaultMaxBodySizeBytes int64 = 256 * 1024
)

// Validation constants
const (
	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// HighLeverageWarning is the multiplier above which configuration
	// validation emits a warning.
	HighLeverageWarning = 3.0
)
