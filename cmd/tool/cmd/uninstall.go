package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/toolstore/tool/internal/core"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall [ref]...",
	Short: "Remove installed tools",
	Long: `Remove installed tools by reference ([namespace/]name[@version]).

An unversioned reference removes the highest installed version. Namespace
folders left empty are pruned. With --all every installed tool is removed;
with --orphans, broken links and manifest-less directories are reclaimed
too.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}

		all, _ := cmd.Flags().GetBool("all")
		orphans, _ := cmd.Flags().GetBool("orphans")

		if len(args) == 0 && !all && !orphans {
			return fmt.Errorf("specify at least one reference, or --all")
		}

		remover := core.NewRemover(d.cfg)
		summary, err := remover.RemoveBatch(args, core.RemoveOptions{All: all, Orphans: orphans})
		if err != nil {
			return err
		}

		for _, o := range summary.Outcomes {
			switch o.Status {
			case core.RemoveRemoved:
				fmt.Fprintf(os.Stdout, "%s %s\n", okStyle.Render("removed"), o.Ref)
			case core.RemoveOrphanCleaned:
				fmt.Fprintf(os.Stdout, "%s %s\n", okStyle.Render("cleaned"), o.Ref)
			case core.RemoveNotFound:
				fmt.Fprintf(os.Stdout, "%s %s\n", dimStyle.Render("not found"), o.Ref)
			default:
				fmt.Fprintf(os.Stdout, "%s %s: %s\n", failStyle.Render("failed"), o.Ref, o.Message)
			}
		}
		fmt.Fprintf(os.Stdout, "\n%d removed, %d orphans cleaned, %d not found, %d failed\n",
			summary.Removed, summary.OrphansCleaned, summary.NotFound, summary.Failed)

		if summary.Failed > 0 {
			return fmt.Errorf("%d removal(s) failed", summary.Failed)
		}
		return nil
	},
}

func init() {
	uninstallCmd.Flags().Bool("all", false, "Remove every installed tool")
	uninstallCmd.Flags().Bool("orphans", false, "Also reclaim orphaned entries (broken links, manifest-less directories)")
	rootCmd.AddCommand(uninstallCmd)
}
