package generation

import (
	"context"
	"io"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gazette/internal/domain"
)

// mockProvider implements domain.GenerationProvider for tests.
type mockProvider struct {
	name       string
	generateFn func(ctx context.Context, req domain.GenerateRequest) (domain.GenerateResult, error)
	streamFn   func(ctx context.Context, req domain.GenerateRequest) (domain.Stream, error)
	calls      int
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Generate(ctx context.Context, req domain.GenerateRequest) (domain.GenerateResult, error) {
	m.calls++
	if m.generateFn != nil {
		return m.generateFn(ctx, req)
	}
	return domain.GenerateResult{Text: m.name + " output"}, nil
}

func (m *mockProvider) GenerateStream(ctx context.Context, req domain.GenerateRequest) (domain.Stream, error) {
	m.calls++
	if m.streamFn != nil {
		return m.streamFn(ctx, req)
	}
	return newChunkStream("chunk"), nil
}

// chunkStream replays a fixed chunk list, then a terminal error (io.EOF by default).
type chunkStream struct {
	chunks   []string
	pos      int
	closed   bool
	finalErr error
}

func newChunkStream(chunks ...string) *chunkStream {
	return &chunkStream{chunks: chunks, finalErr: io.EOF}
}

func newFailingStream(after []string, err error) *chunkStream {
	return &chunkStream{chunks: after, finalErr: err}
}

func (s *chunkStream) Recv() (string, error) {
	if s.pos < len(s.chunks) {
		chunk := s.chunks[s.pos]
		s.pos++
		return chunk, nil
	}
	return "", s.finalErr
}

func (s *chunkStream) Close() error {
	s.closed = true
	return nil
}

// ctxStream honors cancellation of the context it was opened with, the way a
// real provider connection does.
type ctxStream struct {
	ctx    context.Context
	chunks []string
	pos    int
}

func (s *ctxStream) Recv() (string, error) {
	if err := s.ctx.Err(); err != nil {
		return "", err
	}
	if s.pos < len(s.chunks) {
		chunk := s.chunks[s.pos]
		s.pos++
		return chunk, nil
	}
	return "", io.EOF
}

func (s *ctxStream) Close() error { return nil }

func newTestRouter(t *testing.T, providers ...domain.GenerationProvider) *Router {
	t.Helper()
	return newTestRouterWithTimeout(t, 0, providers...)
}

func newTestRouterWithTimeout(t *testing.T, timeout time.Duration, providers ...domain.GenerationProvider) *Router {
	t.Helper()
	entries := make([]Provider, len(providers))
	for i, p := range providers {
		entries[i] = Provider{Impl: p, Timeout: timeout}
	}
	r, err := NewRouter(entries, zap.NewNop())
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	return r
}
