package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [page-id] [question]",
	Short: "Answer a question from a single page's content",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		answer, err := app.RAG.AnswerQuestion(cmd.Context(), args[0], args[1])
		if err != nil {
			return fmt.Errorf("ask failed: %w", err)
		}
		cmd.Println(answer)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
