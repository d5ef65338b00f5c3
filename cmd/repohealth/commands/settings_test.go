package commands

import (
	"log/slog"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/repohealth/pkg/config"
	"github.com/Sumatoshi-tech/repohealth/pkg/observability"
)

func newSettingsCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()

	cmd := &cobra.Command{Use: "x", RunE: func(*cobra.Command, []string) error { return nil }}
	addConfigFlag(cmd)
	cmd.Flags().Int("jobs", 1, "")
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())

	return cmd
}

func TestLoadConfig_ChangedFlagOverridesFile(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	cmd := newSettingsCommand(t, "--config", f.config, "--jobs", "4")

	cfg, err := loadConfig(cmd, []flagBinding{{flag: "jobs", key: "report.jobs"}}, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Report.Jobs)
	assert.Equal(t, 5, cfg.Report.NumBack)
	assert.Equal(t, "Test health", cfg.Report.Title)
}

func TestLoadConfig_UnchangedFlagKeepsDefault(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	cmd := newSettingsCommand(t, "--config", f.config)

	cfg, err := loadConfig(cmd, []flagBinding{{flag: "jobs", key: "report.jobs"}}, func(v *viper.Viper) {
		v.Set("cache.enabled", false)
	})
	require.NoError(t, err)

	assert.Equal(t, config.DefaultReportJobs, cfg.Report.Jobs)
	assert.False(t, cfg.Cache.Enabled)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	t.Setenv("REPOHEALTH_REPORT_TITLE", "From env")

	f := newFixture(t)
	cmd := newSettingsCommand(t, "--config", f.config)

	cfg, err := loadConfig(cmd, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "From env", cfg.Report.Title)
}

func TestObservabilityConfig_MapsSettings(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Logging:   config.LoggingConfig{Level: "debug", Format: config.FormatJSON},
		Metrics:   config.MetricsConfig{Textfile: "/tmp/repohealth.prom"},
		Telemetry: config.TelemetryConfig{OTLPEndpoint: "collector:4317", OTLPInsecure: true},
	}

	obs, err := observabilityConfig(cfg, observability.ModeCLI)
	require.NoError(t, err)

	assert.Equal(t, slog.LevelDebug, obs.LogLevel)
	assert.True(t, obs.LogJSON)
	assert.Equal(t, "/tmp/repohealth.prom", obs.MetricsTextfile)
	assert.Equal(t, "collector:4317", obs.OTLPEndpoint)
	assert.True(t, obs.OTLPInsecure)
}
