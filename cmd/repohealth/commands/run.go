package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/repohealth/pkg/cache"
	"github.com/Sumatoshi-tech/repohealth/pkg/checkout"
	"github.com/Sumatoshi-tech/repohealth/pkg/collect"
	"github.com/Sumatoshi-tech/repohealth/pkg/config"
	"github.com/Sumatoshi-tech/repohealth/pkg/ledger"
	"github.com/Sumatoshi-tech/repohealth/pkg/observability"
	"github.com/Sumatoshi-tech/repohealth/pkg/plotpage"
	"github.com/Sumatoshi-tech/repohealth/pkg/report"
	"github.com/Sumatoshi-tech/repohealth/pkg/terminal"
	"github.com/Sumatoshi-tech/repohealth/pkg/tool"
)

type driverFactory func(backend, repoDir, branch string) (checkout.Driver, error)

// ErrCheckout wraps a failure to move the working tree. It aborts the run.
var ErrCheckout = errors.New("checkout failed")

// RunCommand holds configuration and dependencies for the run command.
type RunCommand struct {
	reportOnly bool
	silent     bool
	noColor    bool

	newDriver driverFactory
	executor  tool.Executor
	now       func() time.Time
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	return newRunCommandWithDeps(checkout.New, tool.ShellExecutor{}, time.Now)
}

func newRunCommandWithDeps(newDriver driverFactory, executor tool.Executor, now func() time.Time) *cobra.Command {
	rc := &RunCommand{
		newDriver: newDriver,
		executor:  executor,
		now:       now,
	}

	cmd := &cobra.Command{
		Use:   "run [repository]",
		Short: "Run the health tools over the last checkouts and render the dashboard",
		Long: `Check out HEAD~0 … HEAD~N-1 of the branch, run every configured tool
against each checkout, cache the KPIs and artifacts by commit hash and render
index.html with one trend page per tool.

Tool failures never abort a run; they are shown as negative codes:
  -1 the tool failed
  -2 a declared artifact was missing after the run
  -3 a cached artifact is missing`,
		Args: cobra.MaximumNArgs(1),
		RunE: rc.run,
	}

	addConfigFlag(cmd)

	cmd.Flags().IntP("num-back", "n", config.DefaultReportNumBack, "Number of checkouts back from the branch tip")
	cmd.Flags().IntP("jobs", "j", config.DefaultReportJobs, "Tools run in parallel within one checkout")
	cmd.Flags().BoolVarP(&rc.reportOnly, "report-only", "r", false, "Never run tools; report what the cache holds")
	cmd.Flags().BoolP("disable-cache", "c", false, "Ignore cached results")
	cmd.Flags().BoolP("leave-faulty", "l", false, "Keep cached results whose artifacts are missing")
	cmd.Flags().BoolP("tools-testing", "s", false, "Use the testing tool profile")
	cmd.Flags().StringP("output", "o", config.DefaultReportOutputDir, "Output directory of the dashboard and cache")
	cmd.Flags().String("title", config.DefaultReportTitle, "Dashboard title")
	cmd.Flags().String("theme", config.DefaultReportTheme, "Dashboard theme: light, dark")
	cmd.Flags().String("tools-manifest", "", "YAML tool manifest replacing the profile")
	cmd.Flags().String("scripts-dir", config.DefaultToolsScriptsDir, "Directory of the tool scripts, relative to the repository")
	cmd.Flags().String("backend", config.DefaultCheckoutBackend, "Checkout backend: libgit2, shell")
	cmd.Flags().String("branch", config.DefaultCheckoutBranch, "Branch the checkouts are anchored on")
	cmd.Flags().BoolVar(&rc.silent, "silent", false, "Disable progress output")
	cmd.Flags().BoolVar(&rc.noColor, "no-color", false, "Disable colored progress output")

	return cmd
}

var runBindings = []flagBinding{
	{flag: "num-back", key: "report.num_back"},
	{flag: "jobs", key: "report.jobs"},
	{flag: "leave-faulty", key: "cache.leave_faulty"},
	{flag: "output", key: "report.output_dir"},
	{flag: "title", key: "report.title"},
	{flag: "theme", key: "report.theme"},
	{flag: "tools-manifest", key: "tools.manifest"},
	{flag: "scripts-dir", key: "tools.scripts_dir"},
	{flag: "backend", key: "checkout.backend"},
	{flag: "branch", key: "checkout.branch"},
}

func (rc *RunCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, runBindings, func(v *viper.Viper) {
		if disabled, _ := cmd.Flags().GetBool("disable-cache"); disabled {
			v.Set("cache.enabled", false)
		}

		if testingProfile, _ := cmd.Flags().GetBool("tools-testing"); testingProfile {
			v.Set("tools.profile", config.ProfileTesting)
		}

		if len(args) == 1 {
			v.Set("repository.path", args[0])
		}
	})
	if err != nil {
		return err
	}

	tools, err := resolveTools(cfg)
	if err != nil {
		return err
	}

	theme, err := plotpage.ParseTheme(cfg.Report.Theme)
	if err != nil {
		return err
	}

	repoDir, err := filepath.Abs(cfg.Repository.Path)
	if err != nil {
		return fmt.Errorf("resolve repository path: %w", err)
	}

	providers, err := initObservability(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	defer func() {
		shutdownErr := providers.Shutdown(context.Background())
		if shutdownErr != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}()

	runMetrics, err := observability.NewRunMetrics(providers.Meter)
	if err != nil {
		return err
	}

	store := cache.New(cfg.Report.OutputDir)

	collector := collect.New(store, rc.executor, collect.Options{
		RepoDir:      repoDir,
		ScriptsDir:   scriptsDir(repoDir, cfg.Tools.ScriptsDir),
		BuildScript:  cfg.Tools.BuildScript,
		ReportOnly:   rc.reportOnly,
		DisableCache: !cfg.Cache.Enabled,
		LeaveFaulty:  cfg.Cache.LeaveFaulty,
		Jobs:         cfg.Report.Jobs,
	}).
		WithLogger(providers.Logger).
		WithTracer(providers.Tracer).
		AddObserver(collect.MetricsObserver{Recorder: runMetrics, ReportOnly: rc.reportOnly})

	ctx := cmdContext(cmd)

	recorder, closeLedger := rc.openLedger(ctx, cfg, providers.Logger)
	defer closeLedger()

	if recorder != nil {
		collector.AddObserver(recorder)
	}

	progress := rc.newProgress(cmd, cfg.Report.NumBack)

	checkouts, err := rc.loop(ctx, cfg, repoDir, collector, tools, runMetrics, progress)

	if recorder != nil {
		finishErr := recorder.Finish(ctx, rc.now())
		if finishErr != nil {
			providers.Logger.Warn("ledger incomplete", "run", recorder.ID(), "error", finishErr)
		}
	}

	if err != nil {
		return err
	}

	renderer := &report.Renderer{
		OutputDir: cfg.Report.OutputDir,
		Title:     cfg.Report.Title,
		Theme:     theme,
		Store:     store,
		Now:       rc.now,
	}

	err = renderer.Render(checkouts, tools)
	if err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}

	report.WriteText(cmd.OutOrStdout(), report.Table(report.Included(checkouts), tools, nil), tools)
	progress.Finish()

	providers.Logger.Info("dashboard written",
		"index", filepath.Join(cfg.Report.OutputDir, "index.html"),
		"checkouts", len(checkouts))

	return nil
}

// loop checks out every generation, collects its results and restores the
// base branch afterwards, also when a checkout fails.
func (rc *RunCommand) loop(
	ctx context.Context,
	cfg *config.Config,
	repoDir string,
	collector *collect.Collector,
	tools []tool.Descriptor,
	runMetrics *observability.RunMetrics,
	progress *terminal.Progress,
) (checkouts []report.Checkout, err error) {
	driver, err := rc.newDriver(cfg.Checkout.Backend, repoDir, cfg.Checkout.Branch)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCheckout, err)
	}

	defer func() {
		err = errors.Join(err, driver.Restore(context.WithoutCancel(ctx)), driver.Close())
	}()

	checkouts = make([]report.Checkout, 0, cfg.Report.NumBack)

	for back := range cfg.Report.NumBack {
		if ctx.Err() != nil {
			return checkouts, ctx.Err()
		}

		progress.Begin(checkout.Label(back))

		commit, checkoutErr := driver.Checkout(ctx, back)
		if checkoutErr != nil {
			return checkouts, fmt.Errorf("%w at %s: %w", ErrCheckout, checkout.Label(back), checkoutErr)
		}

		progress.Commit(commit.Hash, commit.Date)

		results := collector.Checkout(ctx, commit, tools)
		for _, r := range results {
			leading, _ := report.LeadingKPI(r.KPI)
			progress.Result(r.Alias, r.KPI, leading, r.Cached)
		}

		runMetrics.RecordCheckout(ctx)

		checkouts = append(checkouts, report.Checkout{Commit: commit, Results: results})

		progress.End()
	}

	return checkouts, nil
}

// newProgress starts the progress clock; the total is printed once the
// dashboard is written.
func (rc *RunCommand) newProgress(cmd *cobra.Command, total int) *terminal.Progress {
	out := cmd.ErrOrStderr()
	if rc.silent {
		out = io.Discard
	}

	termCfg := terminal.NewConfig()
	termCfg.NoColor = termCfg.NoColor || rc.noColor

	return terminal.NewProgressWithClock(out, termCfg, total, rc.now)
}

// openLedger starts a ledger run when the ledger is enabled. A ledger that
// cannot be opened is logged and skipped.
func (rc *RunCommand) openLedger(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*ledger.Recorder, func()) {
	if !cfg.Ledger.Enabled {
		return nil, func() {}
	}

	l, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		logger.Warn("ledger unavailable", "path", cfg.LedgerPath(), "error", err)

		return nil, func() {}
	}

	closeFn := func() {
		closeErr := l.Close()
		if closeErr != nil {
			logger.Warn("close ledger", "error", closeErr)
		}
	}

	recorder, err := l.BeginRun(ctx, ledger.RunOptions{
		NumBack:    cfg.Report.NumBack,
		Profile:    profileName(cfg),
		ReportOnly: rc.reportOnly,
		Started:    rc.now(),
	})
	if err != nil {
		logger.Warn("ledger run not started", "error", err)

		return nil, closeFn
	}

	return recorder, closeFn
}

// resolveTools returns the manifest's tools if one is configured, else the
// profile's catalog.
func resolveTools(cfg *config.Config) ([]tool.Descriptor, error) {
	if cfg.Tools.Manifest != "" {
		return tool.LoadManifest(cfg.Tools.Manifest)
	}

	return tool.Catalog(cfg.Tools.Profile)
}

func profileName(cfg *config.Config) string {
	if cfg.Tools.Manifest != "" {
		return filepath.Base(cfg.Tools.Manifest)
	}

	return cfg.Tools.Profile
}

func scriptsDir(repoDir, dir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}

	return filepath.Join(repoDir, dir)
}
