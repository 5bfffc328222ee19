package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/toolstore/tool/internal/core"
)

var installCmd = &cobra.Command{
	Use:   "install <ref>...",
	Short: "Install tools from the registry, bundle files, or local paths",
	Long: `Install one or more tools.

References can be:
  namespace/name           Latest published version from the registry
  namespace/name@1.2.0     A specific version
  ./bundle.mcpb            A local bundle file
  ./my-tool/               A local directory (linked, not copied)

Planning is read-only: the full plan is shown and confirmed before anything
is downloaded or written. Items install concurrently; one failing item never
stops the others.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}

		platform, _ := cmd.Flags().GetString("platform")
		yes, _ := cmd.Flags().GetBool("yes")

		planner := core.NewPlanner(d.cfg, d.registry)
		plan := planner.Plan(context.Background(), args, platform)

		printPlan(plan)
		if !yes && hasWork(plan) && !confirm("Proceed?") {
			fmt.Fprintln(os.Stdout, "Aborted.")
			return nil
		}

		var summary *core.InstallSummary
		err = runWithProgress(func(maker core.ProgressMaker) {
			executor := core.NewExecutor(d.cfg, d.registry, maker)
			summary = executor.Execute(context.Background(), plan)
		})
		if err != nil {
			return err
		}

		printInstallSummary(summary)
		if summary.Failed > 0 {
			return fmt.Errorf("%d install(s) failed", summary.Failed)
		}
		return nil
	},
}

// printPlan shows what execution would do, one line per reference.
func printPlan(plan []core.Disposition) {
	for _, d := range plan {
		switch p := d.(type) {
		case *core.RegistryPlan:
			fmt.Fprintf(os.Stdout, "  fetch   %s/%s@%s -> %s\n", p.Namespace, p.Name, p.Version, p.TargetDir)
		case *core.BundlePlan:
			fmt.Fprintf(os.Stdout, "  extract %s (%d entries) -> %s\n", p.DisplayName, p.EntryCount, p.TargetDir)
		case *core.LocalLink:
			fmt.Fprintf(os.Stdout, "  link    %s@%s -> %s\n", p.Name, p.Version, p.SourcePath)
		case *core.AlreadyInstalled:
			fmt.Fprintf(os.Stdout, "  %s %s\n", dimStyle.Render("skip"), p.Ref)
		case *core.Invalid:
			fmt.Fprintf(os.Stdout, "  %s %s: %v\n", failStyle.Render("invalid"), p.Ref, p.Reason)
		}
	}
}

// hasWork reports whether anything in the plan mutates state.
func hasWork(plan []core.Disposition) bool {
	for _, d := range plan {
		switch d.(type) {
		case *core.RegistryPlan, *core.BundlePlan, *core.LocalLink:
			return true
		}
	}
	return false
}

func init() {
	installCmd.Flags().String("platform", "", "Platform key to install (e.g. darwin-arm64, universal)")
	installCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(installCmd)
}
