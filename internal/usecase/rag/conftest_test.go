package rag

import (
	"context"
	"fmt"
	"io"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gazette/internal/domain"
	"github.com/kailas-cloud/gazette/internal/domain/page"
	"github.com/kailas-cloud/gazette/internal/domain/search/filter"
	"github.com/kailas-cloud/gazette/internal/domain/search/result"
)

// mockRetriever implements the read path for tests.
type mockRetriever struct {
	searchFn func(ctx context.Context, query string, k int, f filter.Filter) ([]result.Result, error)
	getFn    func(ctx context.Context, id string) (page.Page, error)
	countFn  func(ctx context.Context) (int, error)
	kMax     int
	lastK    int
}

func (m *mockRetriever) Search(ctx context.Context, query string, k int, f filter.Filter) ([]result.Result, error) {
	m.lastK = k
	if m.searchFn != nil {
		return m.searchFn(ctx, query, k, f)
	}
	return []result.Result{}, nil
}

func (m *mockRetriever) Get(ctx context.Context, id string) (page.Page, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return page.Page{}, domain.ErrDocumentNotFound
}

func (m *mockRetriever) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

func (m *mockRetriever) KMax() int {
	if m.kMax > 0 {
		return m.kMax
	}
	return 100
}

// mockGenerator implements domain.Generator for tests.
type mockGenerator struct {
	generateFn func(ctx context.Context, req domain.GenerateRequest) (domain.GenerateResult, error)
	streamFn   func(ctx context.Context, req domain.GenerateRequest) (domain.Stream, error)
	calls      int
	lastPrompt string
}

func (m *mockGenerator) Generate(ctx context.Context, req domain.GenerateRequest) (domain.GenerateResult, error) {
	m.calls++
	m.lastPrompt = req.Prompt
	if m.generateFn != nil {
		return m.generateFn(ctx, req)
	}
	return domain.GenerateResult{Text: "generated text"}, nil
}

func (m *mockGenerator) GenerateStream(ctx context.Context, req domain.GenerateRequest) (domain.Stream, error) {
	m.calls++
	m.lastPrompt = req.Prompt
	if m.streamFn != nil {
		return m.streamFn(ctx, req)
	}
	return &sliceStream{chunks: []string{"generated ", "text"}}, nil
}

type sliceStream struct {
	chunks []string
	pos    int
}

func (s *sliceStream) Recv() (string, error) {
	if s.pos >= len(s.chunks) {
		return "", io.EOF
	}
	chunk := s.chunks[s.pos]
	s.pos++
	return chunk, nil
}

func (s *sliceStream) Close() error { return nil }

func newTestService(t *testing.T) (*Service, *mockRetriever, *mockGenerator) {
	t.Helper()
	ret := &mockRetriever{}
	gen := &mockGenerator{}
	svc := New(ret, gen, []string{"anthropic", "gemini"}, 1024, 0.3, zap.NewNop())
	return svc, ret, gen
}

// candidates builds n ranked results with IDs page_0..page_{n-1}.
func candidates(n int) []result.Result {
	results := make([]result.Result, 0, n)
	for i := 0; i < n; i++ {
		p := page.Reconstruct(
			fmt.Sprintf("page_%d", i),
			fmt.Sprintf("Paper %d", i),
			"kansas", "1905-07-26", i+1,
			[]page.Article{{Headline: "NEWS", Body: "Something happened."}},
		)
		results = append(results, result.New(p.ID(), 1.0-float64(i)*0.1, p))
	}
	return result.Ranked(results)
}
