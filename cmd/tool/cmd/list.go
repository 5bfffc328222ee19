package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/toolstore/tool/internal/core"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed tools",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}

		orphans, _ := cmd.Flags().GetBool("orphans")
		if orphans {
			return listOrphans(d.cfg.ToolsRoot)
		}

		tools, err := core.ListInstalled(d.cfg.ToolsRoot)
		if err != nil {
			return err
		}
		if len(tools) == 0 {
			fmt.Fprintln(os.Stdout, "No tools installed.")
			return nil
		}

		for _, tool := range tools {
			name := tool.Name
			if tool.Namespace != "" {
				name = tool.Namespace + "/" + name
			}
			note := ""
			if tool.Linked {
				note = " " + dimStyle.Render("(linked)")
			}
			fmt.Fprintf(os.Stdout, "%s@%s%s\n", name, tool.Version, note)
		}
		return nil
	},
}

func listOrphans(root string) error {
	orphans, err := core.ListOrphans(root)
	if err != nil {
		return err
	}
	if len(orphans) == 0 {
		fmt.Fprintln(os.Stdout, "No orphaned entries.")
		return nil
	}
	for _, o := range orphans {
		fmt.Fprintf(os.Stdout, "%s %s\n", o.Path, dimStyle.Render("("+o.Reason+")"))
	}
	fmt.Fprintf(os.Stdout, "\n%d orphaned entr%s. Run 'tool uninstall --orphans' to reclaim.\n",
		len(orphans), pluralY(len(orphans)))
	return nil
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

func init() {
	listCmd.Flags().Bool("orphans", false, "List orphaned entries instead of installed tools")
	rootCmd.AddCommand(listCmd)
}
