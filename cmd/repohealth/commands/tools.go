package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/repohealth/pkg/config"
	"github.com/Sumatoshi-tech/repohealth/pkg/terminal"
	"github.com/Sumatoshi-tech/repohealth/pkg/tool"
)

// NewToolsCommand creates the tools command group.
func NewToolsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect and validate tool sets",
	}

	cmd.AddCommand(newToolsListCommand(), newToolsValidateCommand(), newToolsSchemaCommand())

	return cmd
}

func newToolsListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the configured tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, []flagBinding{
				{flag: "profile", key: "tools.profile"},
				{flag: "tools-manifest", key: "tools.manifest"},
			}, nil)
			if err != nil {
				return err
			}

			tools, err := resolveTools(cfg)
			if err != nil {
				return err
			}

			writeToolTable(cmd, tools)

			return nil
		},
	}

	addConfigFlag(cmd)
	cmd.Flags().String("profile", config.DefaultToolsProfile, "Tool profile: production, testing")
	cmd.Flags().String("tools-manifest", "", "YAML tool manifest replacing the profile")

	return cmd
}

func writeToolTable(cmd *cobra.Command, tools []tool.Descriptor) {
	tw := newTable(cmd)
	tw.AppendHeader(table.Row{"Alias", "Executable", "Base path", "Artifacts", "KPIs", "Mode"})

	for _, d := range tools {
		tw.AppendRow(table.Row{
			d.Alias,
			d.Name,
			d.BasePath,
			strings.Join(d.Artifacts, ", "),
			strings.Join(d.KPIDescriptions, ", "),
			toolMode(d),
		})
	}

	tw.Render()
}

func toolMode(d tool.Descriptor) string {
	switch {
	case d.Builtin != "":
		return "builtin"
	case !d.Runnable:
		return "harvest"
	case d.NeedsBuild:
		return "build+run"
	default:
		return "run"
	}
}

func newToolsValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <manifest.yaml>...",
		Short: "Validate tool manifests against the schema",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			term := terminal.NewConfig()
			failed := 0

			for _, path := range args {
				tools, err := tool.LoadManifest(path)
				if err != nil {
					failed++

					fmt.Fprintf(cmd.OutOrStdout(), "%s %v\n", term.Colorize("FAIL", terminal.ColorRed), err)

					continue
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d tools)\n", term.Colorize("OK", terminal.ColorGreen), path, len(tools))
			}

			if failed > 0 {
				return fmt.Errorf("%w: %d of %d manifests", tool.ErrInvalidManifest, failed, len(args))
			}

			return nil
		},
	}
}

func newToolsSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of tool manifests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := cmd.OutOrStdout().Write(tool.ManifestSchema())
			if err != nil {
				return fmt.Errorf("write schema: %w", err)
			}

			return nil
		},
	}
}
