package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/repohealth/pkg/archive"
	"github.com/Sumatoshi-tech/repohealth/pkg/report"
	"github.com/Sumatoshi-tech/repohealth/pkg/safeconv"
)

// Archive command errors.
var (
	ErrNotADashboard = errors.New("directory holds no rendered dashboard")
	ErrListNeedsPath = errors.New("--list takes the archive path")
)

// NewArchiveCommand creates the archive command.
func NewArchiveCommand() *cobra.Command {
	var (
		output string
		list   bool
	)

	cmd := &cobra.Command{
		Use:   "archive [output-dir]",
		Short: "Pack the dashboard and cache into a " + archive.Extension + " archive",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				if len(args) != 1 {
					return ErrListNeedsPath
				}

				return listArchive(cmd, args[0])
			}

			cfg, err := loadConfig(cmd, nil, func(v *viper.Viper) {
				if len(args) == 1 {
					v.Set("report.output_dir", args[0])
				}
			})
			if err != nil {
				return err
			}

			dir := cfg.Report.OutputDir

			_, err = os.Stat(report.ManifestPath(dir))
			if err != nil {
				return fmt.Errorf("%w: %s", ErrNotADashboard, dir)
			}

			if output == "" {
				output = filepath.Clean(dir) + archive.Extension
			}

			stats, err := archive.Pack(cmdContext(cmd), dir, output)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d files, %s packed into %s\n", output, stats.Files,
				humanize.Bytes(safeconv.MustInt64ToUint64(stats.Bytes)),
				humanize.Bytes(safeconv.MustInt64ToUint64(stats.Compressed)))

			return nil
		},
	}

	addConfigFlag(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Archive path (default: <output-dir>"+archive.Extension+")")
	cmd.Flags().BoolVar(&list, "list", false, "List the entries of an existing archive")

	return cmd
}

func listArchive(cmd *cobra.Command, path string) error {
	names, err := archive.List(path)
	if err != nil {
		return err
	}

	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}

	return nil
}
