package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/gazette/internal/domain"
	"github.com/kailas-cloud/gazette/internal/domain/search/filter"
	"github.com/kailas-cloud/gazette/internal/domain/search/result"
)

var (
	searchK      int
	searchState  string
	searchDate   string
	searchYearGE float64
	searchYearLE float64
	searchStream bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the archive and summarize the matches",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchK, "top", "k", 0, "number of results (defaults to retrieval.k_default)")
	searchCmd.Flags().StringVar(&searchState, "state", "", "filter by state of publication")
	searchCmd.Flags().StringVar(&searchDate, "date", "", "filter by exact edition date (YYYY-MM-DD)")
	searchCmd.Flags().Float64Var(&searchYearGE, "year-from", 0, "filter by minimum year (inclusive)")
	searchCmd.Flags().Float64Var(&searchYearLE, "year-to", 0, "filter by maximum year (inclusive)")
	searchCmd.Flags().BoolVar(&searchStream, "stream", false, "stream the summary as it is generated")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	k := searchK
	if k <= 0 {
		k = app.Cfg.Retrieval.KDefault
	}

	f, err := buildSearchFilter()
	if err != nil {
		return err
	}

	if searchStream {
		return runSearchStream(cmd, query, k, f)
	}

	out, err := app.RAG.SearchWithSummary(cmd.Context(), query, k, f)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if out.Empty {
		cmd.Println("No results found.")
		return nil
	}

	printResults(cmd, out.Results)
	cmd.Println("Summary:")
	cmd.Println(out.Summary)
	return nil
}

func runSearchStream(cmd *cobra.Command, query string, k int, f filter.Filter) error {
	results, stream, err := app.RAG.SearchWithSummaryStream(cmd.Context(), query, k, f)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if stream == nil {
		cmd.Println("No results found.")
		return nil
	}
	defer func() { _ = stream.Close() }()

	printResults(cmd, results)
	cmd.Println("Summary:")
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			cmd.Println()
			if errors.Is(err, domain.ErrTruncatedStream) {
				return fmt.Errorf("summary truncated: %w", err)
			}
			return fmt.Errorf("stream failed: %w", err)
		}
		cmd.Print(chunk)
	}
	cmd.Println()
	return nil
}

func buildSearchFilter() (filter.Filter, error) {
	var conds []filter.Condition

	if searchState != "" {
		c, err := filter.NewMatch("state", searchState)
		if err != nil {
			return filter.Filter{}, err
		}
		conds = append(conds, c)
	}
	if searchDate != "" {
		c, err := filter.NewMatch("date", searchDate)
		if err != nil {
			return filter.Filter{}, err
		}
		conds = append(conds, c)
	}
	if searchYearGE > 0 || searchYearLE > 0 {
		var gte, lte *float64
		if searchYearGE > 0 {
			gte = &searchYearGE
		}
		if searchYearLE > 0 {
			lte = &searchYearLE
		}
		r, err := filter.NewRangeBounds(nil, gte, nil, lte)
		if err != nil {
			return filter.Filter{}, err
		}
		c, err := filter.NewRange("year", r)
		if err != nil {
			return filter.Filter{}, err
		}
		conds = append(conds, c)
	}

	return filter.New(conds...)
}

func printResults(cmd *cobra.Command, results []result.Result) {
	for i := range results {
		p := results[i].Page()
		cmd.Printf("  [%d] %s (%s, %s, page %d)  score=%.3f\n",
			i+1, p.Title(), p.State(), p.Date(), p.PageNumber(), results[i].Score())
	}
	cmd.Println()
}
