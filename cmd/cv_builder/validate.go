package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a document and an optional style file",
	RunE:  runValidate,
}

var (
	validateInFile    string
	validateStyleFile string
)

func init() {
	validateCmd.Flags().StringVarP(&validateInFile, "in", "i", "", "Path to the document JSON file (required)")
	validateCmd.Flags().StringVarP(&validateStyleFile, "style", "s", "", "Path to a style JSON file")

	_ = validateCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	in, err := loadRenderInput(validateInFile)
	if err != nil {
		return err
	}
	if validateStyleFile != "" {
		patch, err := loadStylePatch(validateStyleFile)
		if err != nil {
			return err
		}
		in.Style = in.Style.Apply(patch)
	}
	if verbose {
		printSummary(cmd, in)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: valid %s for %s\n", validateInFile, in.Document.Kind, in.Document.FullName())
	if validateStyleFile != "" {
		fmt.Fprintf(out, "%s: valid style\n", validateStyleFile)
	}
	return nil
}
