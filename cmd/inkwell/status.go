package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inkwellhq/inkwell/internal/batch"
)

var (
	statusPageList  string
	statusNewStatus string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Transcript status operations",
}

var statusChangeCmd = &cobra.Command{
	Use:   "change",
	Short: "Change the transcript status of pages listed in a CSV",
	Long: `Set the configured status on the latest transcript version of every
page in the given CSV. The file needs a colname,title,pagenr header.
The resolved page table, including looked-up identifiers and per-row
warnings, is exported next to the run log.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("set") {
			viper.Set("status_change.status", statusNewStatus)
		}

		ctx, run, err := startSession(cmd.Context(), "status_change")
		if err != nil {
			return err
		}
		defer run.Close()

		return batch.ChangeStatus(ctx, batch.StatusChangeOptions{
			PageListFile: statusPageList,
			OutputDir:    outputDir,
		})
	},
}

func init() {
	statusChangeCmd.Flags().StringVar(&statusPageList, "pages", "", "page list CSV (colname,title,pagenr)")
	statusChangeCmd.Flags().StringVar(&statusNewStatus, "set", "", "status to set (overrides status_change.status)")
	statusChangeCmd.MarkFlagRequired("pages")

	statusCmd.AddCommand(statusChangeCmd)
}
