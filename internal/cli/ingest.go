package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/gazette/internal/domain"
)

var ingestDir string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest newspaper page files into the archive",
	Long: `Walks a directory of *.json page files, embeds each page's searchable
text and upserts it into the archive. The file name stem becomes the page ID,
so re-running over the same directory is idempotent.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestDir, "dir", "d", "", "source directory (defaults to ingest.source_dir)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	dir := ingestDir
	if dir == "" {
		dir = app.Cfg.Ingest.SourceDir
	}

	ctx, usage := domain.NewContextWithUsage(cmd.Context())

	report, err := app.Ingest.Ingest(ctx, os.DirFS(dir))

	cmd.Printf("Accepted: %d\n", report.Accepted)
	if len(report.Rejected) > 0 {
		cmd.Printf("Rejected: %d\n", len(report.Rejected))
		for _, r := range report.Rejected {
			cmd.Printf("  %s: %s\n", r.Ref, r.Reason)
		}
	}
	if usage.EmbeddingTokens > 0 {
		cmd.Printf("Embedding tokens: %d\n", usage.EmbeddingTokens)
	}

	if err != nil {
		return fmt.Errorf("ingestion aborted: %w", err)
	}
	return nil
}
