package result

import (
	"sort"

	"github.com/kailas-cloud/gazette/internal/domain/page"
)

// Result is a single retrieval hit: a weak reference to a stored page plus
// its similarity score and position in the ranked list.
type Result struct {
	id    string
	score float64
	rank  int
	page  page.Page
}

// New creates a search result. Rank is assigned later via Ranked.
func New(id string, score float64, p page.Page) Result {
	return Result{id: id, score: score, page: p}
}

// ID returns the page identifier.
func (r *Result) ID() string { return r.id }

// Score returns the similarity score in [0,1], higher = more similar.
func (r *Result) Score() float64 { return r.score }

// Rank returns the 0-based position in the ordered result list.
func (r *Result) Rank() int { return r.rank }

// Page returns the referenced page payload.
func (r *Result) Page() page.Page { return r.page }

// Ranked orders results by descending score, ties broken by ascending ID for
// determinism, and assigns 0-based ranks. The input slice is sorted in place
// and returned.
func Ranked(results []Result) []Result {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].id < results[j].id
	})
	for i := range results {
		results[i].rank = i
	}
	return results
}
