package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/toolstore/tool/internal/core"
)

var infoCmd = &cobra.Command{
	Use:   "info <ref>",
	Short: "Show details of an installed tool",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}

		ref, err := core.ParseRef(args[0])
		if err != nil {
			return err
		}

		tool, err := core.ResolveInstalled(d.cfg.ToolsRoot, ref)
		if err != nil {
			return err
		}
		manifest, err := core.ReadManifestDir(tool.Dir)
		if err != nil {
			return err
		}

		name := manifest.Name
		if manifest.DisplayName != "" {
			name = manifest.DisplayName
		}
		fmt.Fprintf(os.Stdout, "%s %s\n", name, dimStyle.Render(manifest.Version))
		if manifest.Description != "" {
			fmt.Fprintf(os.Stdout, "%s\n", manifest.Description)
		}
		fmt.Fprintf(os.Stdout, "\n  dir:    %s\n", tool.Dir)
		if manifest.Server.Type != "" {
			fmt.Fprintf(os.Stdout, "  server: %s", manifest.Server.Type)
			if manifest.Server.Transport != "" {
				fmt.Fprintf(os.Stdout, " (%s)", manifest.Server.Transport)
			}
			fmt.Fprintln(os.Stdout)
		}

		if manifest.LongDescription != "" {
			rendered, err := glamour.Render(manifest.LongDescription, "auto")
			if err != nil {
				// Fall back to the raw markdown.
				rendered = "\n" + manifest.LongDescription + "\n"
			}
			fmt.Fprint(os.Stdout, rendered)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
