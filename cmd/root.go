package cmd

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "scanlate",
		Short: "Translate text regions selected on scanned pages",
		Long: `Scanlate is a workspace for translating scanned comic and book pages.

Upload page images, drag a rectangle over a speech balloon or caption and the
selected area is sent to a translation backend (a remote service, Ollama,
OpenAI or Gemini). Each recognized text becomes a numbered zone that can be
corrected and exported as text, JSON, YAML or Parquet.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			if verbose {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newTranslateCmd())
	cmd.AddCommand(newExportCmd())

	return cmd
}
