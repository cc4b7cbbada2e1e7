package retrieval

import (
	"context"

	"github.com/kailas-cloud/gazette/internal/domain"
	"github.com/kailas-cloud/gazette/internal/domain/page"
	"github.com/kailas-cloud/gazette/internal/domain/search/filter"
	"github.com/kailas-cloud/gazette/internal/domain/search/result"
)

// Repository defines the storage contract for retrieval.
type Repository interface {
	SearchKNN(ctx context.Context, vector []float32, k int, f filter.Filter) ([]result.Result, error)
	Get(ctx context.Context, id string) (page.Page, error)
	Count(ctx context.Context) (int, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
