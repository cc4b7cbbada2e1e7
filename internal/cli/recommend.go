package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var recommendK int

var recommendCmd = &cobra.Command{
	Use:   "recommend [intent]",
	Short: "Recommend the single best page for a reader intent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		k := recommendK
		if k <= 0 {
			k = app.Cfg.Retrieval.KDefault
		}

		rec, err := app.RAG.Recommend(cmd.Context(), args[0], k)
		if err != nil {
			return fmt.Errorf("recommend failed: %w", err)
		}
		if rec.Empty {
			cmd.Println("No results found.")
			return nil
		}

		p := rec.Selected.Page()
		cmd.Printf("%s (%s, %s, page %d)  score=%.3f\n",
			p.Title(), p.State(), p.Date(), p.PageNumber(), rec.Selected.Score())
		if rec.Reason != "" {
			cmd.Printf("Reason: %s\n", rec.Reason)
		}
		if !rec.FromModel {
			cmd.Println("(fell back to the top-ranked match)")
		}
		return nil
	},
}

func init() {
	recommendCmd.Flags().IntVarP(&recommendK, "top", "k", 0, "candidate pool size (defaults to retrieval.k_default)")
	rootCmd.AddCommand(recommendCmd)
}
