// Package main provides the cv_builder command: the HTTP API server and local rendering tools.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/cv-builder/internal/config"
	"github.com/jonathan/cv-builder/internal/observability"
	"github.com/jonathan/cv-builder/internal/rendering"
	"github.com/jonathan/cv-builder/internal/types"
)

var (
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "cv_builder",
	Short: "CV and cover letter builder",
	Long:  "cv_builder serves the résumé and cover-letter API and renders documents to HTML or PDF from the command line.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a JSON config file providing flag defaults")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print document, section and style summaries")
}

// loadFileConfig returns the --config file merged over defaults, or defaults alone.
func loadFileConfig(defaults config.Config) (config.Config, error) {
	if configFile == "" {
		return defaults, nil
	}
	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg.MergeWithDefaults(defaults), nil
}

// printSummary writes the verbose summary of in to the command output.
func printSummary(cmd *cobra.Command, in rendering.Input) {
	p := observability.NewPrinter(cmd.OutOrStdout())
	p.PrintDocument(in.Document)
	if in.Document.Kind != types.KindLetter {
		p.PrintSections(in.Sections)
	}
	p.PrintStyle(in.Style)
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
