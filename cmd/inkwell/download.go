package main

import (
	"github.com/spf13/cobra"

	"github.com/inkwellhq/inkwell/internal/batch"
)

var downloadDest string

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Export the newest page XML of matching collections",
	Long: `Export the newest transcript of every page into a
<dest>/<collection>/<document>/ tree. Collections are selected by the
configured name prefix or by the training collection list; training
collections get a numbered subfolder per page and prefer the newest
ground-truth version.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, run, err := startSession(cmd.Context(), "download")
		if err != nil {
			return err
		}
		defer run.Close()

		return batch.DownloadLatest(ctx, batch.DownloadOptions{DestDir: downloadDest})
	},
}

func init() {
	downloadCmd.Flags().StringVar(&downloadDest, "dest", "", "root directory of the export tree")
	downloadCmd.MarkFlagRequired("dest")
}
