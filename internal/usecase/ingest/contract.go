package ingest

import (
	"context"

	"github.com/kailas-cloud/gazette/internal/domain"
	"github.com/kailas-cloud/gazette/internal/domain/page"
)

// Embedder vectorizes document text, in batches where the provider allows it.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// Writer is the storage contract for the write path.
type Writer interface {
	EnsureReady(ctx context.Context, dim int) error
	Upsert(ctx context.Context, p page.Page, vector []float32) error
}
