package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// app is wired once per invocation by the root PersistentPreRunE.
var app *App

var rootCmd = &cobra.Command{
	Use:   "gazette",
	Short: "RAG engine for a historical newspaper archive",
	Long: `gazette ingests digitized newspaper pages into a vector archive and
answers reader queries over it: semantic search with a generated summary,
recommendations, single-page summaries, grounded question answering and
front-page layout selection.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		app = a
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		if app != nil {
			app.Close()
		}
	},
}

// Execute runs the CLI.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
