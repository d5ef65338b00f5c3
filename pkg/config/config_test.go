package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/repohealth/pkg/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".repohealth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig_EmptyFile_UsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultRepositoryPath, cfg.Repository.Path)
	assert.Equal(t, config.DefaultReportOutputDir, cfg.Report.OutputDir)
	assert.Equal(t, config.DefaultReportNumBack, cfg.Report.NumBack)
	assert.Equal(t, config.DefaultReportJobs, cfg.Report.Jobs)
	assert.Equal(t, config.ThemeLight, cfg.Report.Theme)
	assert.True(t, cfg.Cache.Enabled)
	assert.False(t, cfg.Cache.LeaveFaulty)
	assert.Equal(t, config.ProfileProduction, cfg.Tools.Profile)
	assert.Equal(t, config.DefaultToolsScriptsDir, cfg.Tools.ScriptsDir)
	assert.Equal(t, config.BackendLibGit, cfg.Checkout.Backend)
	assert.Equal(t, "master", cfg.Checkout.Branch)
	assert.Equal(t, filepath.Join(config.DefaultReportOutputDir, config.LedgerFileName), cfg.LedgerPath())
}

func TestLoadConfig_ValidFile_Unmarshals(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, `
repository:
  path: /src/project
report:
  output_dir: out
  num_back: 20
  jobs: 4
  theme: dark
cache:
  enabled: false
  leave_faulty: true
tools:
  profile: testing
  scripts_dir: /opt/health
checkout:
  backend: shell
  branch: main
logging:
  level: debug
  format: json
ledger:
  path: /var/lib/repohealth.db
metrics:
  textfile: /var/lib/node_exporter/repohealth.prom
telemetry:
  otlp_endpoint: localhost:4317
  otlp_insecure: true
`))
	require.NoError(t, err)

	assert.Equal(t, "/src/project", cfg.Repository.Path)
	assert.Equal(t, 20, cfg.Report.NumBack)
	assert.Equal(t, 4, cfg.Report.Jobs)
	assert.Equal(t, config.ThemeDark, cfg.Report.Theme)
	assert.False(t, cfg.Cache.Enabled)
	assert.True(t, cfg.Cache.LeaveFaulty)
	assert.Equal(t, config.ProfileTesting, cfg.Tools.Profile)
	assert.Equal(t, config.BackendShell, cfg.Checkout.Backend)
	assert.Equal(t, "main", cfg.Checkout.Branch)
	assert.Equal(t, config.FormatJSON, cfg.Logging.Format)
	assert.Equal(t, "/var/lib/repohealth.db", cfg.LedgerPath())
	assert.Equal(t, "/var/lib/node_exporter/repohealth.prom", cfg.Metrics.Textfile)
	assert.Equal(t, "localhost:4317", cfg.Telemetry.OTLPEndpoint)
	assert.True(t, cfg.Telemetry.OTLPInsecure)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	t.Setenv("REPOHEALTH_REPORT_NUM_BACK", "7")
	t.Setenv("REPOHEALTH_CHECKOUT_BACKEND", "shell")

	cfg, err := config.LoadConfig(writeConfig(t, "report:\n  num_back: 3\n"))
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Report.NumBack)
	assert.Equal(t, config.BackendShell, cfg.Checkout.Backend)
}

func TestLoadConfig_InvalidValues_ReturnsSentinels(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(writeConfig(t, `
report:
  num_back: 0
  jobs: -1
  theme: neon
checkout:
  backend: svn
logging:
  format: xml
`))
	require.Error(t, err)

	assert.ErrorIs(t, err, config.ErrInvalidNumBack)
	assert.ErrorIs(t, err, config.ErrInvalidJobs)
	assert.ErrorIs(t, err, config.ErrInvalidTheme)
	assert.ErrorIs(t, err, config.ErrInvalidBackend)
	assert.ErrorIs(t, err, config.ErrInvalidLogFormat)
}

func TestLoadConfig_MalformedFile_ReturnsError(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(writeConfig(t, "report: [unclosed"))
	assert.Error(t, err)
}

func TestValidate_ManifestOverridesProfile(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, "tools:\n  profile: custom\n  manifest: tools.yaml\n"))
	require.NoError(t, err)
	assert.Equal(t, "tools.yaml", cfg.Tools.Manifest)

	cfg.Tools.Manifest = ""
	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidProfile)

	cfg.Tools.Profile = config.ProfileTesting
	cfg.Checkout.Branch = ""
	cfg.Logging.Level = "loud"

	err = cfg.Validate()
	assert.ErrorIs(t, err, config.ErrEmptyBranch)
	assert.ErrorIs(t, err, config.ErrInvalidLogLevel)
}
