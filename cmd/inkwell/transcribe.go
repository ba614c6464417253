package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inkwellhq/inkwell/internal/batch"
)

var (
	transcribeRegions   bool
	transcribeLines     bool
	transcribeText      bool
	transcribeFailFast  bool
	transcribeDocFilter string
	transcribeHTRModel  int
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe",
	Short: "Run layout analysis and text recognition jobs across collections",
	Long: `Iterate all collections of the account, apply the configured page
selection policy and run the selected model steps on each document:
text region recognition (P2PaLA), text line recognition and text
recognition (HTR). Each job is awaited before the next one starts.

A document whose jobs fail is logged and skipped; the run carries on
and reports the failures at the end. Use --fail-fast to abort on the
first failure instead.

Examples:
  inkwell transcribe --lines --text
  inkwell transcribe --regions --fail-fast`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("doc-filter") {
			viper.Set("selection.doc_filter_file", transcribeDocFilter)
		}
		if cmd.Flags().Changed("htr-model") {
			viper.Set("recognition.model_id", transcribeHTRModel)
		}

		ctx, run, err := startSession(cmd.Context(), "transcribe")
		if err != nil {
			return err
		}
		defer run.Close()

		return batch.Transcribe(ctx, batch.TranscribeOptions{
			DoRegions: transcribeRegions,
			DoLines:   transcribeLines,
			DoText:    transcribeText,
			FailFast:  transcribeFailFast,
		})
	},
}

func init() {
	transcribeCmd.Flags().BoolVar(&transcribeRegions, "regions", false, "run text region recognition")
	transcribeCmd.Flags().BoolVar(&transcribeLines, "lines", false, "run text line recognition")
	transcribeCmd.Flags().BoolVar(&transcribeText, "text", false, "run text recognition")
	transcribeCmd.Flags().BoolVar(&transcribeFailFast, "fail-fast", false, "abort on the first failed document")
	transcribeCmd.Flags().StringVar(&transcribeDocFilter, "doc-filter", "", "CSV of document IDs to process (overrides selection.doc_filter_file)")
	transcribeCmd.Flags().IntVar(&transcribeHTRModel, "htr-model", 0, "text recognition model ID (overrides recognition.model_id)")
}
