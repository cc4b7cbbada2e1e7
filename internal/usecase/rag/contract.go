package rag

import (
	"context"

	"github.com/kailas-cloud/gazette/internal/domain/page"
	"github.com/kailas-cloud/gazette/internal/domain/search/filter"
	"github.com/kailas-cloud/gazette/internal/domain/search/result"
)

// Retriever is the sole read path into the archive.
type Retriever interface {
	Search(ctx context.Context, query string, k int, f filter.Filter) ([]result.Result, error)
	Get(ctx context.Context, id string) (page.Page, error)
	Count(ctx context.Context) (int, error)
	KMax() int
}
