package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sketcher",
		Short: "Personality sketches from a handful of social media screenshots",
		Long: `Sketcher sends a batch of 5 to 20 screenshots to a vision model and turns
the answer into a profile sketch: personality tags, interests, pursuit
suggestions, chat topics and date ideas.

It runs as a web service with a browser front end, or directly against a
directory of images from the command line.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newAnalyzeCmd())
	cmd.AddCommand(newKeyCmd())

	return cmd
}
