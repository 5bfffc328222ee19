package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/toolstore/tool/internal/core"
	"github.com/toolstore/tool/internal/pack"
)

var publishCmd = &cobra.Command{
	Use:   "publish <dir|bundle>",
	Short: "Publish a version to the registry",
	Long: `Publish a tool version.

Single-artifact publish packs (or accepts) one bundle and uploads it as the
version's main file. A multi-artifact publish is selected by --platforms,
--universal, or --artifact, and uploads one bundle per platform plus a
version.json index.

Pre-built bundles given with --artifact must all describe the same logical
package; any mismatch aborts the publish before a single byte is uploaded.

--dry-run performs every step up to (not including) the upload and reports
what would happen.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}

		namespace, _ := cmd.Flags().GetString("namespace")
		platformsFlag, _ := cmd.Flags().GetString("platforms")
		universal, _ := cmd.Flags().GetBool("universal")
		artifactFlags, _ := cmd.Flags().GetStringArray("artifact")
		description, _ := cmd.Flags().GetString("description")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		opts := core.PublishOptions{
			Namespace:   namespace,
			Universal:   universal,
			Description: description,
			DryRun:      dryRun,
		}
		if platformsFlag != "" {
			for _, p := range strings.Split(platformsFlag, ",") {
				opts.Platforms = append(opts.Platforms, strings.TrimSpace(p))
			}
		}
		for _, arg := range artifactFlags {
			key, path, ok := strings.Cut(arg, "=")
			if !ok {
				return fmt.Errorf("invalid --artifact %q, expected PLATFORM=PATH", arg)
			}
			if opts.Artifacts == nil {
				opts.Artifacts = map[string]string{}
			}
			opts.Artifacts[key] = path
		}

		publisher := core.NewPublisher(d.cfg, d.registry, pack.New(), nil)

		multi := len(opts.Platforms) > 0 || len(opts.Artifacts) > 0 || universal
		var result *core.PublishResult
		if multi {
			result, err = publisher.PublishMulti(context.Background(), args[0], opts)
		} else {
			result, err = publisher.PublishSingle(context.Background(), args[0], opts)
		}
		if err != nil {
			return err
		}

		verb := okStyle.Render("published")
		if result.DryRun {
			verb = dimStyle.Render("dry-run")
		}
		fmt.Fprintf(os.Stdout, "%s %s/%s@%s (%d bundle(s))\n",
			verb, result.Namespace, result.Name, result.Version, result.BundleCount)
		for _, f := range result.Files {
			fmt.Fprintf(os.Stdout, "  %s\n", f)
		}
		return nil
	},
}

func init() {
	publishCmd.Flags().StringP("namespace", "n", "", "Registry namespace to publish under (required)")
	publishCmd.Flags().String("platforms", "", "Comma-separated platform keys to pack (e.g. darwin-arm64,linux-x64)")
	publishCmd.Flags().Bool("universal", false, "Also pack the universal bundle")
	publishCmd.Flags().StringArray("artifact", nil, "Pre-built bundle as PLATFORM=PATH (repeatable)")
	publishCmd.Flags().String("description", "", "Artifact description (default: manifest description)")
	publishCmd.Flags().Bool("dry-run", false, "Stop before uploading and report what would happen")
	_ = publishCmd.MarkFlagRequired("namespace")
	rootCmd.AddCommand(publishCmd)
}
