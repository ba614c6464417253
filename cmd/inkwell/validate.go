package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inkwellhq/inkwell/internal/batch"
)

var (
	validateCollection string
	validateDocument   string
	validateReference  string
	validatePrediction string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Compare two transcript versions of a document with CER/WER",
	Long: `Compare the configured reference and prediction transcript versions
of one document region by region and compute character and word error
rates. Scores are aggregated globally, per region type and per page.
The region table, the per-page score CSVs and two score histograms are
written to the output directory.

Example:
  inkwell validate --collection "Letters 1850" --document "Box 3"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("reference") {
			viper.Set("validation.reference", validateReference)
		}
		if cmd.Flags().Changed("prediction") {
			viper.Set("validation.prediction", validatePrediction)
		}

		ctx, run, err := startSession(cmd.Context(), "validate")
		if err != nil {
			return err
		}
		defer run.Close()

		return batch.ValidateModel(ctx, batch.ValidateOptions{
			Collection: validateCollection,
			Document:   validateDocument,
			OutputDir:  outputDir,
		})
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateCollection, "collection", "", "collection name")
	validateCmd.Flags().StringVar(&validateDocument, "document", "", "document title")
	validateCmd.Flags().StringVar(&validateReference, "reference", "", "reference version keyword (overrides validation.reference)")
	validateCmd.Flags().StringVar(&validatePrediction, "prediction", "", "prediction version keyword (overrides validation.prediction)")
	validateCmd.MarkFlagRequired("collection")
	validateCmd.MarkFlagRequired("document")
}
