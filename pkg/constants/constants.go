// Package constants provides shared constants for the studio-forecast application.
package constants

// Calendar constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// ProjectionYears is the number of yearly aggregates in a projection
	ProjectionYears = 3

	// WeeksPerMonth is the average number of weeks in a month used for capacity
	WeeksPerMonth = 4.33
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatXLSX is the spreadsheet report format
	OutputFormatXLSX = "xlsx"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "studio-forecast.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// DefaultReportFile is the default path for xlsx output from the CLI
	DefaultReportFile = "studio-forecast.xlsx"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":3001"

	// DefaultMaxBodySizeBytes is the default maximum request body size (256 KB)
	DefaultMaxBodySizeBytes int64 = 256 * 1024

	// DefaultSQLitePath is the default database file when no Postgres DSN is configured
	DefaultSQLitePath = "studio-forecast.db"

	// DefaultSessionTTLHours is how long an issued dashboard session stays valid
	DefaultSessionTTLHours = 12

	// SessionCookieName is the cookie carrying the dashboard session token
	SessionCookieName = "studio_session"
)

// Storage driver names
const (
	StorageDriverSQLite   = "sqlite"
	StorageDriverPostgres = "postgres"
)

// Comparison constants
const (
	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)
