// Package collect runs the configured tools against a checkout and resolves
// each tool's result through the on-disk cache.
package collect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/repohealth/pkg/cache"
	"github.com/Sumatoshi-tech/repohealth/pkg/checkout"
	"github.com/Sumatoshi-tech/repohealth/pkg/tool"
)

const tracerName = "repohealth"

// ErrArtifactNotProduced is returned when a tool finished without leaving a
// declared artifact behind.
var ErrArtifactNotProduced = errors.New("declared artifact not produced")

// Options control cache and execution behavior.
type Options struct {
	// RepoDir is the working tree the tools run in.
	RepoDir string
	// ScriptsDir resolves tool executables.
	ScriptsDir string
	// BuildScript runs before tools that need a build. Empty skips the build.
	BuildScript string
	// ReportOnly never runs tools; uncached results become "0".
	ReportOnly bool
	// DisableCache ignores existing cache files.
	DisableCache bool
	// LeaveFaulty keeps cached results whose artifacts are missing instead of retrying.
	LeaveFaulty bool
	// Jobs bounds how many tools run at once within one checkout.
	Jobs int
}

// Collector resolves tool results for checkouts.
type Collector struct {
	opts      Options
	store     *cache.Store
	executor  tool.Executor
	logger    *slog.Logger
	tracer    trace.Tracer
	observers []Observer
}

// New returns a collector writing into store and running tools through executor.
func New(store *cache.Store, executor tool.Executor, opts Options) *Collector {
	if opts.Jobs < 1 {
		opts.Jobs = 1
	}

	return &Collector{
		opts:     opts,
		store:    store,
		executor: executor,
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}
}

// WithLogger sets the logger.
func (c *Collector) WithLogger(logger *slog.Logger) *Collector {
	c.logger = logger

	return c
}

// WithTracer sets the tracer.
func (c *Collector) WithTracer(tracer trace.Tracer) *Collector {
	c.tracer = tracer

	return c
}

// AddObserver registers an observer for tool results.
func (c *Collector) AddObserver(o Observer) *Collector {
	c.observers = append(c.observers, o)

	return c
}

// Checkout resolves every tool for the commit. The result order always equals
// the tool order; with Jobs > 1 tools run concurrently.
func (c *Collector) Checkout(ctx context.Context, commit checkout.Commit, tools []tool.Descriptor) []Result {
	ctx, span := c.tracer.Start(ctx, "repohealth.checkout",
		trace.WithAttributes(
			attribute.String("commit.hash", commit.Hash),
			attribute.Int("commit.back", commit.Back),
		))
	defer span.End()

	results := make([]Result, len(tools))
	b := &builder{collector: c}

	var g errgroup.Group

	g.SetLimit(c.opts.Jobs)

	for i, d := range tools {
		g.Go(func() error {
			results[i] = c.tool(ctx, commit, d, b)

			return nil
		})
	}

	_ = g.Wait()

	return results
}

// Tool resolves a single tool for the commit.
func (c *Collector) Tool(ctx context.Context, commit checkout.Commit, d tool.Descriptor) Result {
	return c.tool(ctx, commit, d, &builder{collector: c})
}

func (c *Collector) tool(ctx context.Context, commit checkout.Commit, d tool.Descriptor, b *builder) Result {
	ctx, span := c.tracer.Start(ctx, "repohealth.tool",
		trace.WithAttributes(attribute.String("tool.alias", d.Alias)))
	defer span.End()

	start := time.Now()
	logger := c.logger.With("tool", d.Alias, "hash", commit.Hash)

	kpi, cached := c.resolve(ctx, commit, d, b, logger)

	err := c.store.WriteKPI(commit.Hash, d.Name, kpi)
	if err != nil {
		logger.ErrorContext(ctx, "persist result", "error", err)

		kpi = cache.CodeFailed
	}

	result := Result{
		Tool:     d.Name,
		Alias:    d.Alias,
		KPI:      kpi,
		Cached:   cached,
		Duration: time.Since(start),
	}

	span.SetAttributes(attribute.String("tool.kpi", kpi), attribute.Bool("tool.cached", cached))
	logger.DebugContext(ctx, "tool resolved", "kpi", kpi, "cached", cached, "duration", result.Duration)

	for _, o := range c.observers {
		o.ObserveTool(ctx, commit, result)
	}

	return result
}

func (c *Collector) resolve(
	ctx context.Context, commit checkout.Commit, d tool.Descriptor, b *builder, logger *slog.Logger,
) (kpi string, cached bool) {
	if c.opts.DisableCache || !c.store.Has(commit.Hash, d.Name) {
		return c.process(ctx, commit, d, b, logger), false
	}

	if !d.Runnable {
		err := c.harvest(commit.Hash, d)
		if err != nil {
			logger.WarnContext(ctx, "harvest failed", "error", err)

			return cache.CodeFailed, true
		}
	}

	kpi, err := c.store.ReadKPI(commit.Hash, d.Name)
	if err != nil {
		logger.WarnContext(ctx, "read cached result", "error", err)

		return cache.CodeFailed, true
	}

	for _, artifact := range d.Artifacts {
		if !c.store.HasArtifact(commit.Hash, artifact) {
			kpi = cache.CodeCachedArtifactMissing
		}
	}

	if kpi == cache.CodeCachedArtifactMissing && !c.opts.LeaveFaulty && !c.opts.ReportOnly {
		logger.InfoContext(ctx, "cached artifact missing, retrying")

		return c.process(ctx, commit, d, b, logger), false
	}

	return kpi, true
}

// harvest moves outputs of a tool that runs outside the harness into the cache.
func (c *Collector) harvest(hash string, d tool.Descriptor) error {
	if d.KPIPath() != "" {
		src := c.repoPath(d.KPIPath())
		if exists(src) {
			err := c.store.HarvestKPI(hash, d.Name, src)
			if err != nil {
				return err
			}
		}
	}

	for _, artifact := range d.ArtifactPaths() {
		src := c.repoPath(artifact)
		if !exists(src) {
			continue
		}

		err := c.store.Relocate(hash, src)
		if err != nil {
			return err
		}
	}

	return nil
}

func (c *Collector) process(
	ctx context.Context, commit checkout.Commit, d tool.Descriptor, b *builder, logger *slog.Logger,
) string {
	if c.opts.ReportOnly {
		return cache.CodeReportOnly
	}

	if d.Runnable {
		err := c.run(ctx, commit, d, b)
		if err != nil {
			logger.WarnContext(ctx, "tool failed", "error", err)

			return cache.CodeFailed
		}
	}

	kpi := "0"

	if d.KPIPath() != "" {
		line, err := cache.ReadFirstLine(c.repoPath(d.KPIPath()))
		if err != nil {
			logger.WarnContext(ctx, "read KPI file", "error", err)

			return cache.CodeFailed
		}

		kpi = line
	}

	for _, artifact := range d.ArtifactPaths() {
		src := c.repoPath(artifact)
		if !exists(src) {
			logger.WarnContext(ctx, "artifact missing", "artifact", artifact)

			kpi = cache.CodeArtifactMissing

			continue
		}

		err := c.store.Relocate(commit.Hash, src)
		if err != nil {
			logger.WarnContext(ctx, "relocate artifact", "artifact", artifact, "error", err)

			return cache.CodeFailed
		}
	}

	return kpi
}

func (c *Collector) run(ctx context.Context, commit checkout.Commit, d tool.Descriptor, b *builder) error {
	if d.NeedsBuild {
		err := b.build(ctx, commit)
		if err != nil {
			return err
		}
	}

	var (
		output []byte
		err    error
	)

	if d.Builtin != "" {
		output, err = c.runBuiltin(ctx, d)
	} else {
		var outcome tool.Outcome

		outcome, err = c.executor.Run(ctx, tool.InvocationFor(d, c.opts.ScriptsDir, c.opts.RepoDir))
		output = append(outcome.Stdout, outcome.Stderr...)
	}

	logErr := c.store.WriteLog(commit.Hash, d.Name, output)
	if logErr != nil {
		c.logger.WarnContext(ctx, "persist tool log", "tool", d.Alias, "error", logErr)
	}

	if err != nil {
		return err
	}

	for _, artifact := range d.ArtifactPaths() {
		if !exists(c.repoPath(artifact)) {
			return fmt.Errorf("%w: %s", ErrArtifactNotProduced, artifact)
		}
	}

	return nil
}

func (c *Collector) runBuiltin(ctx context.Context, d tool.Descriptor) ([]byte, error) {
	fn := tool.LookupBuiltin(d.Builtin)
	if fn == nil {
		return nil, fmt.Errorf("%w: %s", tool.ErrUnknownBuiltin, d.Builtin)
	}

	return fn(ctx, c.opts.RepoDir, d)
}

func (c *Collector) repoPath(rel string) string {
	return filepath.Join(c.opts.RepoDir, rel)
}

// builder runs the build script at most once per checkout.
type builder struct {
	collector *Collector
	once      sync.Once
	err       error
}

func (b *builder) build(ctx context.Context, commit checkout.Commit) error {
	c := b.collector
	if c.opts.BuildScript == "" {
		return nil
	}

	b.once.Do(func() {
		c.logger.InfoContext(ctx, "building", "hash", commit.Hash)

		outcome, err := c.executor.Run(ctx, tool.Invocation{
			Path: tool.ScriptPath(c.opts.ScriptsDir, c.opts.BuildScript),
			Dir:  c.opts.RepoDir,
		})

		logErr := c.store.WriteLog(commit.Hash, "build", append(outcome.Stdout, outcome.Stderr...))
		if logErr != nil {
			c.logger.WarnContext(ctx, "persist build log", "error", logErr)
		}

		if err != nil {
			b.err = fmt.Errorf("build: %w", err)
		}
	})

	return b.err
}

func exists(name string) bool {
	_, err := os.Stat(name)

	return err == nil
}
