package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize [page-id]",
	Short: "Summarize a single page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, err := app.RAG.Summarize(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("summarize failed: %w", err)
		}
		cmd.Println(summary)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
}
