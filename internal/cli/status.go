package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/gazette/internal/usecase/health"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show archive size, provider order and component health",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := app.RAG.GetStatus(cmd.Context())
		if err != nil {
			return fmt.Errorf("status failed: %w", err)
		}

		cmd.Printf("Documents: %d\n", st.Documents)
		cmd.Printf("Generation providers: %s\n", strings.Join(st.Providers, " > "))
		cmd.Printf("Embedding: %s (%s, dim %d)\n",
			app.Cfg.Embedding.Provider, app.Cfg.Embedding.Model, app.Cfg.Embedding.Dimensions)

		report := app.Health.Check(cmd.Context())
		cmd.Printf("Health: %s\n", report.Status)
		for name, check := range report.Checks {
			if check != health.CheckOK {
				cmd.Printf("  %s: %s\n", name, check)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
