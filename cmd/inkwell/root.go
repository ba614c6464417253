package main

import (
	"github.com/spf13/cobra"

	"github.com/inkwellhq/inkwell/version"
)

var (
	cfgFile   string
	outputDir string
	username  string
)

var rootCmd = &cobra.Command{
	Use:   "inkwell",
	Short: "Batch automation for the Transkribus transcription platform",
	Long: `Inkwell runs batch operations against a Transkribus account:
layout analysis and text recognition jobs across whole collections,
transcript status changes driven by a page list, character replacement
in stored transcripts, page XML export and model validation with
character and word error rates.

Runs log to a timestamped file in the output directory; the console
only announces where the log file is.`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.inkwell/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputDir, "output-dir", "d", ".", "directory for log files and CSV/PNG exports",
	)
	rootCmd.PersistentFlags().StringVarP(
		&username, "user", "u", "", "platform account (prompted when omitted)",
	)

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(transcribeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(replaceCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(validateCmd)
}
