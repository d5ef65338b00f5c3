package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	configName      = ".repohealth"
	configType      = "yaml"
	envPrefix       = "REPOHEALTH"
	envKeySeparator = "_"
)

// LoadConfig loads configuration from file, env vars and defaults.
// If configPath is non-empty it is used as the explicit config file path.
// Otherwise the config file is searched in CWD and $HOME.
// A missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	v, err := NewViper(configPath)
	if err != nil {
		return nil, err
	}

	return Decode(v)
}

// NewViper prepares a viper instance with defaults, the environment and the
// config file, so that callers can bind flags before decoding.
func NewViper(configPath string) (*viper.Viper, error) {
	v := viper.New()

	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
	}

	readErr := v.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	return v, nil
}

// Decode unmarshals and validates the configuration held by v.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config

	err := v.Unmarshal(&cfg)
	if err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("repository.path", DefaultRepositoryPath)

	v.SetDefault("report.output_dir", DefaultReportOutputDir)
	v.SetDefault("report.title", DefaultReportTitle)
	v.SetDefault("report.num_back", DefaultReportNumBack)
	v.SetDefault("report.jobs", DefaultReportJobs)
	v.SetDefault("report.theme", DefaultReportTheme)

	v.SetDefault("cache.enabled", DefaultCacheEnabled)
	v.SetDefault("cache.leave_faulty", DefaultCacheLeaveFaulty)

	v.SetDefault("tools.profile", DefaultToolsProfile)
	v.SetDefault("tools.manifest", DefaultToolsManifest)
	v.SetDefault("tools.scripts_dir", DefaultToolsScriptsDir)
	v.SetDefault("tools.build_script", DefaultToolsBuildScript)

	v.SetDefault("checkout.backend", DefaultCheckoutBackend)
	v.SetDefault("checkout.branch", DefaultCheckoutBranch)

	v.SetDefault("logging.level", DefaultLoggingLevel)
	v.SetDefault("logging.format", DefaultLoggingFormat)

	v.SetDefault("ledger.enabled", DefaultLedgerEnabled)
	v.SetDefault("ledger.path", DefaultLedgerPath)

	v.SetDefault("metrics.textfile", DefaultMetricsTextfile)

	v.SetDefault("telemetry.otlp_endpoint", DefaultTelemetryOTLPEndpoint)
	v.SetDefault("telemetry.otlp_insecure", DefaultTelemetryOTLPInsecure)
}
