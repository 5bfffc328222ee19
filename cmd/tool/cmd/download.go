package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/toolstore/tool/internal/core"
)

var downloadCmd = &cobra.Command{
	Use:   "download <namespace/name[@version]>",
	Short: "Download a bundle without installing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}

		platform, _ := cmd.Flags().GetString("platform")
		output, _ := cmd.Flags().GetString("output")

		ref, err := core.ParseRef(args[0])
		if err != nil {
			return err
		}
		if ref.Kind != core.RefRegistry || !ref.Qualified() {
			return fmt.Errorf("download requires a namespace/name reference")
		}

		ctx := context.Background()
		version := ref.Version
		if version == "" {
			artifact, err := d.registry.GetArtifact(ctx, ref.Namespace, ref.Name)
			if err != nil {
				return err
			}
			if artifact.LatestVersion == "" {
				return fmt.Errorf("no published version for %s", ref.String())
			}
			version = artifact.LatestVersion
		}

		versionInfo, err := d.registry.GetVersion(ctx, ref.Namespace, ref.Name, version)
		if err != nil {
			return err
		}
		selection, err := core.SelectBundle(versionInfo.Files, versionInfo.MainDownloadURL,
			versionInfo.MainDownloadSize, platform, ref.String())
		if err != nil {
			return err
		}

		if output == "" {
			output = core.DownloadFilename(ref.Name, version, platform, selection.Ext)
		}
		url := versionInfo.MainDownloadURL
		if !selection.FromMainDownload {
			url = d.registry.FileDownloadURL(ref.Namespace, ref.Name, version, selection.Filename)
		}

		var size int64
		var dlErr error
		err = runWithProgress(func(maker core.ProgressMaker) {
			progress := maker.NewProgress(ref.String())
			size, dlErr = d.registry.DownloadWithProgress(ctx, url, output, progress)
			progress.Finish()
		})
		if err != nil {
			return err
		}
		if dlErr != nil {
			return dlErr
		}

		fmt.Fprintf(os.Stdout, "%s %s (%d bytes)\n", okStyle.Render("downloaded"), output, size)
		return nil
	},
}

func init() {
	downloadCmd.Flags().String("platform", "", "Platform key to download (e.g. darwin-arm64, universal)")
	downloadCmd.Flags().StringP("output", "o", "", "Output path (default: canonical artifact filename)")
	rootCmd.AddCommand(downloadCmd)
}
