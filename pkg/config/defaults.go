// Package config loads the repohealth configuration from .repohealth.yaml,
// REPOHEALTH_ environment variables and defaults.
package config

// Repository defaults.
const (
	DefaultRepositoryPath = "."
)

// Report defaults.
const (
	DefaultReportOutputDir = "build/report-health"
	DefaultReportTitle     = "Repository health"
	DefaultReportNumBack   = 5
	DefaultReportJobs      = 1
	DefaultReportTheme     = ThemeLight
)

// Cache defaults.
const (
	DefaultCacheEnabled     = true
	DefaultCacheLeaveFaulty = false
)

// Tools defaults.
const (
	DefaultToolsProfile     = ProfileProduction
	DefaultToolsManifest    = ""
	DefaultToolsScriptsDir  = "utils/health"
	DefaultToolsBuildScript = "build.sh"
)

// Checkout defaults.
const (
	DefaultCheckoutBackend = BackendLibGit
	DefaultCheckoutBranch  = "master"
)

// Logging defaults.
const (
	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = FormatText
)

// Ledger defaults. An empty path places the ledger in the output directory.
const (
	DefaultLedgerEnabled = true
	DefaultLedgerPath    = ""
)

// Telemetry defaults.
const (
	DefaultMetricsTextfile       = ""
	DefaultTelemetryOTLPEndpoint = ""
	DefaultTelemetryOTLPInsecure = false
)
