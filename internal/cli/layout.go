package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var layoutK int

var layoutCmd = &cobra.Command{
	Use:   "layout [query]",
	Short: "Pick a primary page plus up to three suggestions for a layout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := app.RAG.GenerateLayout(cmd.Context(), args[0], layoutK)
		if err != nil {
			return fmt.Errorf("layout failed: %w", err)
		}
		if out.Empty {
			cmd.Println("No results found.")
			return nil
		}

		sel := out.Selection
		primary := sel.Primary()
		p := primary.Page()
		cmd.Printf("Primary: %s (%s, %s, page %d)  score=%.3f  theme=%s\n",
			p.Title(), p.State(), p.Date(), p.PageNumber(), primary.Score(), sel.PrimaryTheme())
		if sel.Reason() != "" {
			cmd.Printf("Reason: %s\n", sel.Reason())
		}
		for i, s := range sel.Suggestions() {
			sp := s.Page()
			cmd.Printf("Suggestion %d: %s (%s, %s)  score=%.3f  theme=%s\n",
				i+1, sp.Title(), sp.State(), sp.Date(), s.Score(), sel.SuggestionTheme(i))
		}
		return nil
	},
}

func init() {
	layoutCmd.Flags().IntVarP(&layoutK, "top", "k", 0, "candidate pool size (at least 4)")
	rootCmd.AddCommand(layoutCmd)
}
