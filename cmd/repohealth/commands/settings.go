// Package commands implements CLI command handlers for repohealth.
package commands

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/repohealth/pkg/config"
	"github.com/Sumatoshi-tech/repohealth/pkg/observability"
	"github.com/Sumatoshi-tech/repohealth/pkg/version"
)

const (
	configFlag      = "config"
	configFlagUsage = "config file (default: .repohealth.yaml in the working directory or $HOME)"
)

// flagBinding maps a command-line flag onto a configuration key.
type flagBinding struct {
	flag string
	key  string
}

func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String(configFlag, "", configFlagUsage)
}

// loadConfig reads the configuration and lets every changed flag in
// bindings override its key. adjust runs before decoding for flags that do
// not map one to one.
func loadConfig(cmd *cobra.Command, bindings []flagBinding, adjust func(v *viper.Viper)) (*config.Config, error) {
	path, _ := cmd.Flags().GetString(configFlag)

	v, err := config.NewViper(path)
	if err != nil {
		return nil, err
	}

	for _, b := range bindings {
		f := cmd.Flags().Lookup(b.flag)
		if f == nil || !f.Changed {
			continue
		}

		bindErr := v.BindPFlag(b.key, f)
		if bindErr != nil {
			return nil, fmt.Errorf("bind --%s: %w", b.flag, bindErr)
		}
	}

	if adjust != nil {
		adjust(v)
	}

	return config.Decode(v)
}

// observabilityConfig translates the loaded configuration.
func observabilityConfig(cfg *config.Config, mode observability.AppMode) (observability.Config, error) {
	obs := observability.DefaultConfig()
	obs.ServiceVersion = version.Version
	obs.Mode = mode
	obs.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obs.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obs.MetricsTextfile = cfg.Metrics.Textfile
	obs.LogJSON = cfg.Logging.Format == config.FormatJSON

	level, err := observability.ParseLogLevel(cfg.Logging.Level)
	if err != nil {
		return obs, err
	}

	obs.LogLevel = level

	return obs, nil
}

// initObservability starts telemetry and returns a logger writing to w.
func initObservability(cfg *config.Config, w io.Writer) (observability.Providers, error) {
	obs, err := observabilityConfig(cfg, observability.ModeCLI)
	if err != nil {
		return observability.Providers{}, err
	}

	providers, err := observability.Init(obs)
	if err != nil {
		return observability.Providers{}, fmt.Errorf("init observability: %w", err)
	}

	providers.Logger = observability.NewLogger(w, obs)
	slog.SetDefault(providers.Logger)

	return providers, nil
}
