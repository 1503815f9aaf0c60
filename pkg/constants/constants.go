// Package constants provides shared constants for the cpi-calculator application.
package constants

// MonthLayout is the format used for month keys in config, flags and API
// payloads.
const MonthLayout = "2006-01"

// Numeric constants
const (
	// DecimalPrecision is the precision for display rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// MinYear and MaxYear bound the 4-digit Gregorian years accepted as months
	MinYear = 1000
	MaxYear = 9999
)

// Country codes, in the order the UI presents them.
const (
	CountryEU = "eu"
	CountryUK = "uk"
	CountryUS = "us"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// EnvPrefix prefixes every environment override, e.g. CPI_HTTP_TIMEOUT
	EnvPrefix = "CPI"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the web UI
	DefaultServerAddress = ":8080"

	// DefaultMaxRequestSizeBytes is the default maximum body size for API requests (16 KB)
	DefaultMaxRequestSizeBytes int64 = 16 * 1024

	// DefaultHTTPTimeout bounds one calculation, including every upstream request
	DefaultHTTPTimeout = "30s"

	// DefaultUserAgent is sent with every upstream request
	DefaultUserAgent = "cpi-calculator"
)

// Office for National Statistics (UK, CPIH)
const (
	DefaultONSBaseURL   = "https://api.beta.ons.gov.uk/v1"
	DefaultONSDataset   = "cpih01"
	DefaultONSEdition   = "time-series"
	DefaultONSGeography = "K02000001"
	DefaultONSAggregate = "CP00"
)

// European Central Bank (EU, HICP)
const (
	DefaultECBBaseURL   = "https://data-api.ecb.europa.eu/service/data"
	DefaultECBSeriesKey = "ICP/M.U2.N.000000.4.INX"
)

// Bureau of Labor Statistics (US, CPI-U)
const (
	DefaultBLSURL      = "https://api.bls.gov/publicAPI/v2/timeseries/data/"
	DefaultBLSSeriesID = "CUSR0000SA0"
)
