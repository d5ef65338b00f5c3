package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/repohealth/pkg/cache"
	"github.com/Sumatoshi-tech/repohealth/pkg/config"
	"github.com/Sumatoshi-tech/repohealth/pkg/plotpage"
	"github.com/Sumatoshi-tech/repohealth/pkg/report"
)

const (
	renderCmdUse   = "render [output-dir]"
	renderCmdShort = "Re-render the dashboard from the cache without running tools"
)

// ErrNoManifest is returned when the output directory holds no previous run.
var ErrNoManifest = errors.New("no checkouts manifest found (run `repohealth run` first)")

type renderOptions struct {
	refresh  bool
	watch    bool
	debounce time.Duration
	now      func() time.Time
}

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	return buildRenderCommand(time.Now)
}

func buildRenderCommand(now func() time.Time) *cobra.Command {
	opts := &renderOptions{now: now}

	cmd := &cobra.Command{
		Use:   renderCmdUse,
		Short: renderCmdShort,
		Long: `Re-render index.html and the trend pages from checkouts.json and the
cached KPI files. With --watch the dashboard is re-rendered whenever a cache
file changes, e.g. while tools are re-run by hand.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args, opts)
		},
	}

	addConfigFlag(cmd)

	cmd.Flags().BoolVar(&opts.refresh, "refresh", true, "Re-read every KPI from the cache")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Re-render on cache changes until interrupted")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", defaultDebounce, "Quiet period before a watched change re-renders")
	cmd.Flags().String("theme", config.DefaultReportTheme, "Dashboard theme: light, dark")

	return cmd
}

func runRender(cmd *cobra.Command, args []string, opts *renderOptions) error {
	cfg, err := loadConfig(cmd, []flagBinding{{flag: "theme", key: "report.theme"}}, func(v *viper.Viper) {
		if len(args) == 1 {
			v.Set("report.output_dir", args[0])
		}
	})
	if err != nil {
		return err
	}

	theme, err := plotpage.ParseTheme(cfg.Report.Theme)
	if err != nil {
		return err
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

	outputDir := cfg.Report.OutputDir
	store := cache.New(outputDir)

	render := func() error {
		return renderFromManifest(outputDir, store, theme, opts)
	}

	err = render()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "dashboard written to %s\n", filepath.Join(outputDir, "index.html"))

	if !opts.watch {
		return nil
	}

	watcher, err := newCacheWatcher(filepath.Join(outputDir, cache.DataDir), opts.debounce, render, providers.Logger)
	if err != nil {
		return err
	}

	ctx := cmdContext(cmd)

	providers.Logger.Info("watching cache", "dir", filepath.Join(outputDir, cache.DataDir))

	return watcher.Run(ctx)
}

func renderFromManifest(outputDir string, store *cache.Store, theme plotpage.Theme, opts *renderOptions) error {
	m, err := report.LoadManifest(outputDir)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w in %s", ErrNoManifest, outputDir)
	}

	if err != nil {
		return fmt.Errorf("load manifest: %w", err)
	}

	if opts.refresh {
		_, err = m.Refresh(store)
		if err != nil {
			return fmt.Errorf("refresh from cache: %w", err)
		}
	}

	renderer := &report.Renderer{
		OutputDir: outputDir,
		Title:     m.Title,
		Theme:     theme,
		Store:     store,
		Now:       opts.now,
	}

	return renderer.Render(m.Checkouts, m.Tools)
}
