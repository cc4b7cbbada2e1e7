package retrieval

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gazette/internal/domain"
	"github.com/kailas-cloud/gazette/internal/domain/page"
	"github.com/kailas-cloud/gazette/internal/domain/search/filter"
	"github.com/kailas-cloud/gazette/internal/domain/search/result"
)

// Fields that filters may address. Match conditions go to tags, range
// conditions to numerics; the split mirrors the index schema.
var (
	tagFields     = map[string]bool{"title": true, "state": true, "date": true}
	numericFields = map[string]bool{"year": true, "page": true, "article_count": true}
)

// Service runs embedding-based retrieval over the page archive.
type Service struct {
	repo  Repository
	embed Embedder
	kMax  int
	log   *zap.Logger
}

// New creates a retrieval service. kMax caps the per-query result count.
func New(repo Repository, embed Embedder, kMax int, log *zap.Logger) *Service {
	return &Service{repo: repo, embed: embed, kMax: kMax, log: log}
}

// KMax returns the configured result count ceiling.
func (s *Service) KMax() int { return s.kMax }

// Search embeds the query and returns up to k pages ranked by similarity.
// An empty archive yields an empty list, never an error.
func (s *Service) Search(ctx context.Context, query string, k int, f filter.Filter) ([]result.Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty: %w", domain.ErrInvalidArgument)
	}
	if k < 1 || k > s.kMax {
		return nil, fmt.Errorf("k must be between 1 and %d, got %d: %w", s.kMax, k, domain.ErrInvalidArgument)
	}
	if err := validateFilter(f); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidArgument, err)
	}

	embResult, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	domain.UsageFromContext(ctx).AddEmbeddingTokens(embResult.TotalTokens)

	results, err := s.repo.SearchKNN(ctx, embResult.Embedding, k, f)
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}

	s.log.Debug("retrieval complete",
		zap.String("query", query),
		zap.Int("k", k),
		zap.Int("hits", len(results)))

	return results, nil
}

// Get returns a single page by ID.
func (s *Service) Get(ctx context.Context, id string) (page.Page, error) {
	return s.repo.Get(ctx, id)
}

// Count returns the number of pages in the archive.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func validateFilter(f filter.Filter) error {
	for _, cond := range f.Conditions() {
		switch {
		case cond.IsMatch():
			if !tagFields[cond.Key()] {
				return fmt.Errorf("unknown tag field %q", cond.Key())
			}
		case cond.IsRange():
			if !numericFields[cond.Key()] {
				return fmt.Errorf("unknown numeric field %q", cond.Key())
			}
		default:
			return fmt.Errorf("filter condition for %q has no match or range", cond.Key())
		}
	}
	return nil
}
