package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inkwellhq/inkwell/internal/batch"
)

var replaceCollection string

var replaceCmd = &cobra.Command{
	Use:   "replace",
	Short: "Apply the configured text replacements to one collection",
	Long: `Download the latest transcript of every page of every document of
the collection configured under replace.collection, apply the
replacements configured under replace.replacements to the line text
(markup is left untouched) and upload changed pages as new transcript
versions. The page status is not changed.

Example:
  inkwell replace --collection "Letters 1850"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("collection") {
			viper.Set("replace.collection", replaceCollection)
		}

		ctx, run, err := startSession(cmd.Context(), "replace")
		if err != nil {
			return err
		}
		defer run.Close()

		return batch.ReplaceCharacters(ctx)
	},
}

func init() {
	replaceCmd.Flags().StringVar(&replaceCollection, "collection", "", "collection name (overrides replace.collection)")
}
