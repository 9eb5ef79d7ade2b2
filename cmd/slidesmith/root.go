package main

import (
	"github.com/spf13/cobra"

	"github.com/slidesmith/slidesmith/internal/api"
	"github.com/slidesmith/slidesmith/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "slidesmith",
	Short: "LLM-powered presentation builder with layout intelligence",
	Long: `Slidesmith turns raw text, Markdown outlines, and research topics into
structured presentation decks using LLM-powered layout intelligence.

The pipeline includes:
  - Content structuring with layout type assignment and overflow repair
  - Template analysis mapping abstract layouts to concrete placeholders
  - Markdown outline parsing
  - Topic research with slide plan synthesis
  - Deck generation and content extraction`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.slidesmith/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "slidesmith home directory (default: ~/.slidesmith)",
	)
	rootCmd.PersistentFlags().StringVar(
		&outputFormat, "format", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
