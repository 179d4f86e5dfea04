// Package constants provides shared constants for the mortgage-simulator application.
package constants

import "time"

// Numeric constants
const (
	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// CurrencyDecimals is the number of fractional digits shown for currency
	CurrencyDecimals = 2

	// PercentageDecimals is the number of fractional digits shown for percentages
	PercentageDecimals = 2

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// PercentageMultiplier converts between fractions and percentage points
	PercentageMultiplier = 100.0

	// DefaultPercentageMax is the upper bound applied when parsing percentages
	DefaultPercentageMax = 100.0

	// OutlierIQRFactor is the interquartile-range multiple beyond which a
	// trial is drawn as an outlier
	OutlierIQRFactor = 1.5
)

// Output format constants
const (
	// OutputFormatJSON returns the chart model as JSON
	OutputFormatJSON = "json"

	// OutputFormatPretty is the human-readable summary table
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatPDF renders the box plots to a PDF document
	OutputFormatPDF = "pdf"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// EnvPrefix prefixes every environment variable override
	EnvPrefix = "MORTGAGE"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (256 KB)
	DefaultMaxBodySizeBytes int64 = 256 * 1024

	// DefaultShutdownTimeout bounds graceful shutdown
	DefaultShutdownTimeout = 30 * time.Second
)

// Simulation service defaults
const (
	// DefaultSimulationServiceURL is the endpoint of the external simulation service
	DefaultSimulationServiceURL = "http://localhost:8000/api/simulate"

	// DefaultSimulationTimeout of zero waits indefinitely for the service
	DefaultSimulationTimeout time.Duration = 0
)

// Formatting defaults
const (
	// DefaultLocale is the BCP 47 tag used for display strings
	DefaultLocale = "de-DE"

	// DefaultCurrency is the ISO 4217 code used for currency fields
	DefaultCurrency = "EUR"

	// SymbolPositionPrefix places the currency symbol before the amount
	SymbolPositionPrefix = "prefix"

	// SymbolPositionSuffix places the currency symbol after the amount
	SymbolPositionSuffix = "suffix"
)

// General input defaults
const (
	DefaultPrincipal      = 0.0
	DefaultCurrentEuribor = 0.025
	DefaultYearlyVariance = 0.003
	DefaultYearlyExpenses = 0.0
)

// Condition seed defaults used by AddCondition
const (
	DefaultConditionRate                         = 0.02
	DefaultConditionFixedPeriod                  = 5
	DefaultConditionEuriborDelta                 = 0.01
	DefaultConditionTotalYears                   = 10
	DefaultConditionFixedPeriodBonification      = 1000.0
	DefaultConditionAfterFixedPeriodBonification = 500.0
)

// Session defaults
const (
	// SessionBackendMemory keeps sessions in process memory
	SessionBackendMemory = "memory"

	// SessionBackendRedis keeps sessions in Redis
	SessionBackendRedis = "redis"

	// DefaultSessionTTL is how long an idle session is kept
	DefaultSessionTTL = 2 * time.Hour

	// DefaultSweepSchedule is the cron spec for the idle-session sweeper
	DefaultSweepSchedule = "@every 10m"

	// DefaultRedisPrefix namespaces session keys in Redis
	DefaultRedisPrefix = "mortgage:session:"

	// DefaultSimulationClaimTTL bounds how long a shared pending-simulation
	// flag outlives a crashed instance
	DefaultSimulationClaimTTL = 10 * time.Minute
)
