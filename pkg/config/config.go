package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// Accepted enumerations.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"

	ProfileProduction = "production"
	ProfileTesting    = "testing"

	BackendLibGit = "libgit2"
	BackendShell  = "shell"

	FormatText = "text"
	FormatJSON = "json"
)

// LedgerFileName is the ledger database inside the output directory.
const LedgerFileName = "ledger.db"

// Sentinel validation errors.
var (
	ErrEmptyOutputDir   = errors.New("report output directory must be set")
	ErrInvalidNumBack   = errors.New("report num_back must be positive")
	ErrInvalidJobs      = errors.New("report jobs must be positive")
	ErrInvalidTheme     = errors.New("invalid report theme")
	ErrInvalidProfile   = errors.New("invalid tools profile")
	ErrInvalidBackend   = errors.New("invalid checkout backend")
	ErrEmptyBranch      = errors.New("checkout branch must be set")
	ErrInvalidLogLevel  = errors.New("invalid logging level")
	ErrInvalidLogFormat = errors.New("invalid logging format")
)

var logLevels = []string{"debug", "info", "warn", "warning", "error"}

// Config holds the repohealth configuration.
type Config struct {
	Repository RepositoryConfig `mapstructure:"repository"`
	Report     ReportConfig     `mapstructure:"report"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Tools      ToolsConfig      `mapstructure:"tools"`
	Checkout   CheckoutConfig   `mapstructure:"checkout"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Ledger     LedgerConfig     `mapstructure:"ledger"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// RepositoryConfig locates the analyzed repository.
type RepositoryConfig struct {
	Path string `mapstructure:"path"`
}

// ReportConfig controls the loop and the dashboard.
type ReportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
	Title     string `mapstructure:"title"`
	NumBack   int    `mapstructure:"num_back"`
	Jobs      int    `mapstructure:"jobs"`
	Theme     string `mapstructure:"theme"`
}

// CacheConfig controls result caching.
type CacheConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	LeaveFaulty bool `mapstructure:"leave_faulty"`
}

// ToolsConfig selects the tool set and where tool executables live.
type ToolsConfig struct {
	Profile string `mapstructure:"profile"`
	// Manifest overrides Profile with a YAML tool list.
	Manifest    string `mapstructure:"manifest"`
	ScriptsDir  string `mapstructure:"scripts_dir"`
	BuildScript string `mapstructure:"build_script"`
}

// CheckoutConfig selects how checkouts are made.
type CheckoutConfig struct {
	Backend string `mapstructure:"backend"`
	Branch  string `mapstructure:"branch"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LedgerConfig controls the run ledger.
type LedgerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// MetricsConfig controls metrics export.
type MetricsConfig struct {
	// Textfile receives Prometheus text-format metrics after a run.
	Textfile string `mapstructure:"textfile"`
}

// TelemetryConfig holds OTLP export settings.
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
}

// LedgerPath returns the configured ledger path, or the default one inside
// the output directory.
func (c *Config) LedgerPath() string {
	if c.Ledger.Path != "" {
		return c.Ledger.Path
	}

	return filepath.Join(c.Report.OutputDir, LedgerFileName)
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs []error

	if c.Report.OutputDir == "" {
		errs = append(errs, ErrEmptyOutputDir)
	}

	if c.Report.NumBack <= 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidNumBack, c.Report.NumBack))
	}

	if c.Report.Jobs <= 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidJobs, c.Report.Jobs))
	}

	if c.Report.Theme != ThemeLight && c.Report.Theme != ThemeDark {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidTheme, c.Report.Theme))
	}

	if c.Tools.Manifest == "" && c.Tools.Profile != ProfileProduction && c.Tools.Profile != ProfileTesting {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidProfile, c.Tools.Profile))
	}

	if c.Checkout.Backend != BackendLibGit && c.Checkout.Backend != BackendShell {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidBackend, c.Checkout.Backend))
	}

	if c.Checkout.Branch == "" {
		errs = append(errs, ErrEmptyBranch)
	}

	if !slices.Contains(logLevels, strings.ToLower(c.Logging.Level)) {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level))
	}

	if c.Logging.Format != FormatText && c.Logging.Format != FormatJSON {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format))
	}

	return errors.Join(errs...)
}
