package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every page and drop the vector index",
	Long: `Clears the archive for a full corpus rebuild, for example after
switching to an embedding model with a different dimensionality.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !resetYes {
			return fmt.Errorf("refusing to reset without --yes")
		}
		if err := app.Archive.DeleteAll(cmd.Context()); err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}
		cmd.Println("Archive cleared.")
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "confirm deletion")
	rootCmd.AddCommand(resetCmd)
}
