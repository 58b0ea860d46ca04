package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/profilesketch/sketcher/internal/analysis"
	"github.com/profilesketch/sketcher/internal/batch"
	"github.com/profilesketch/sketcher/internal/config"
	"github.com/profilesketch/sketcher/internal/credential"
	"github.com/profilesketch/sketcher/internal/report"
	"github.com/profilesketch/sketcher/internal/session"
	"github.com/profilesketch/sketcher/internal/storage"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		provider string
		model    string
		apiKey   string
		prompt   string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "analyze <dir>",
		Short: "Analyze a directory of screenshots",
		Long: `Loads every image in a directory, in natural filename order, and submits
them as one batch. The directory must contain between 5 and 20 images.

The API key comes from --api-key, then $VOLCANO_API_KEY, then the key saved
with "sketcher key set".`,
		Example: `  # Print the sketch to the terminal
  sketcher analyze ./screenshots

  # Try the flow without a real key and keep the report as YAML
  sketcher analyze ./screenshots --api-key DUMMY_API_KEY --output sketch.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if provider != "" {
				cfg.Provider = provider
			}
			if model != "" {
				cfg.Model = model
			}
			if apiKey == "" {
				apiKey = cfg.VolcanoAPIKey
			}

			var creds credential.Store
			if apiKey != "" {
				mem := credential.NewMemoryStore()
				if err := mem.Set(cmd.Context(), apiKey); err != nil {
					return err
				}
				creds = mem
			} else {
				store, err := credential.OpenSQLStore(cfg.DatabasePath)
				if err != nil {
					return err
				}
				defer store.Close()
				creds = store
			}

			svc, err := analysis.NewService(cfg)
			if err != nil {
				return fmt.Errorf("failed to configure analysis: %w", err)
			}

			files, err := batch.LoadDir(args[0])
			if err != nil {
				return err
			}

			var opts []session.Option
			if prompt != "" {
				opts = append(opts, session.WithPrompt(prompt))
			}
			sess := session.New(storage.NewID(), creds, svc, opts...)
			defer sess.Close()

			added, err := sess.AddFiles(files)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", args[0], err)
			}
			slog.Info("Submitting batch", "dir", args[0], "images", added, "provider", cfg.Provider)

			result, err := sess.Submit(cmd.Context())
			if err != nil {
				return err
			}

			rep := report.Present(result)
			fmt.Fprint(cmd.OutOrStdout(), report.RenderText(rep))

			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				if err := report.WriteYAML(f, rep); err != nil {
					return err
				}
				slog.Info("Report written", "path", output)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Analysis provider: volcano, openai, ollama, gemini or stub")
	cmd.Flags().StringVar(&model, "model", "", "Model name passed to the provider")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key for this run only")
	cmd.Flags().StringVar(&prompt, "prompt", "", "Override the analysis prompt")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Also write the report as YAML to this file")

	return cmd
}
