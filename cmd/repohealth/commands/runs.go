package commands

import (
	"context"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/repohealth/pkg/config"
	"github.com/Sumatoshi-tech/repohealth/pkg/ledger"
)

const (
	defaultRunsLimit = 10
	ledgerFlagUsage  = "Ledger database (default: <output-dir>/" + config.LedgerFileName + ")"
)

// NewRunsCommand creates the runs command listing the ledger.
func NewRunsCommand() *cobra.Command {
	return buildRunsCommand(time.Now)
}

func buildRunsCommand(now func() time.Time) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs [output-dir]",
		Short: "List recorded health runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := openLedgerFromConfig(cmd, args)
			if err != nil {
				return err
			}
			defer l.Close()

			runs, err := l.Runs(cmdContext(cmd), limit)
			if err != nil {
				return err
			}

			tw := newTable(cmd)
			tw.AppendHeader(table.Row{"Run", "Started", "Duration", "Checkouts", "Profile", "Results", "Failed"})

			for _, r := range runs {
				duration := "running"
				if !r.Finished.IsZero() {
					duration = r.Duration().Round(time.Second).String()
				}

				profile := r.Profile
				if r.ReportOnly {
					profile += " (report-only)"
				}

				tw.AppendRow(table.Row{
					r.ID, humanize.RelTime(r.Started, now(), "ago", "from now"), duration,
					r.NumBack, profile, r.Results, r.Failed,
				})
			}

			tw.Render()

			return nil
		},
	}

	addConfigFlag(cmd)
	cmd.Flags().IntVar(&limit, "limit", defaultRunsLimit, "Maximum number of runs to list")
	cmd.Flags().String("ledger", "", ledgerFlagUsage)

	cmd.AddCommand(newRunsShowCommand())

	return cmd
}

func newRunsShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id> [output-dir]",
		Short: "Show every tool result of one run",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := openLedgerFromConfig(cmd, args[1:])
			if err != nil {
				return err
			}
			defer l.Close()

			entries, err := l.Entries(cmdContext(cmd), args[0])
			if err != nil {
				return err
			}

			tw := newTable(cmd)
			tw.AppendHeader(table.Row{"Checkout", "Commit", "Date", "Tool", "KPI", "Status", "Cached", "Duration"})

			for _, e := range entries {
				tw.AppendRow(table.Row{
					e.Commit.Label(), e.Commit.Hash, e.Commit.Date, e.Alias, e.KPI, e.Status,
					strconv.FormatBool(e.Cached), e.Duration.Round(time.Millisecond).String(),
				})
			}

			tw.Render()

			return nil
		},
	}

	addConfigFlag(cmd)
	cmd.Flags().String("ledger", "", ledgerFlagUsage)

	return cmd
}

func openLedgerFromConfig(cmd *cobra.Command, args []string) (*ledger.Ledger, error) {
	cfg, err := loadConfig(cmd, []flagBinding{{flag: "ledger", key: "ledger.path"}}, func(v *viper.Viper) {
		if len(args) == 1 {
			v.Set("report.output_dir", args[0])
		}
	})
	if err != nil {
		return nil, err
	}

	return ledger.Open(cfg.LedgerPath())
}

func newTable(cmd *cobra.Command) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(cmd.OutOrStdout())
	tw.SetStyle(table.StyleLight)

	return tw
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}
