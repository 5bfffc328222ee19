package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/toolstore/tool/internal/core"
)

var linkCmd = &cobra.Command{
	Use:   "link <dir>",
	Short: "Link a local tool directory into the tools root",
	Long: `Create a symlink in the tools root pointing at a local tool directory.

Linking the same directory twice is a no-op. If something else already
occupies the link path, the conflict is reported and nothing is touched;
pass --force to replace it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}

		force, _ := cmd.Flags().GetBool("force")

		source, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}
		manifest, err := core.ReadManifestDir(source)
		if err != nil {
			return fmt.Errorf("not a tool directory: %w", err)
		}

		linker := core.NewLinker(d.cfg)
		if force {
			if err := linker.ForceLink(source, manifest.Name, manifest.Version); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "%s %s -> %s\n", okStyle.Render("linked"),
				linker.LinkPath(manifest.Name, manifest.Version), source)
			return nil
		}

		outcome, err := linker.Link(source, manifest.Name, manifest.Version)
		if err != nil {
			return err
		}
		switch outcome.Status {
		case core.LinkCreated:
			fmt.Fprintf(os.Stdout, "%s %s -> %s\n", okStyle.Render("linked"), outcome.Target, source)
		case core.LinkExists:
			fmt.Fprintf(os.Stdout, "%s %s\n", dimStyle.Render("already linked"), outcome.Target)
		default:
			return fmt.Errorf("%s already exists and points at %s (use --force to replace)",
				outcome.Target, outcome.ExistingTarget)
		}
		return nil
	},
}

func init() {
	linkCmd.Flags().BoolP("force", "f", false, "Replace whatever occupies the link path")
	rootCmd.AddCommand(linkCmd)
}
