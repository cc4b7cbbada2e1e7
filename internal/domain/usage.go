package domain

import "context"

type tokenUsageKey struct{}

// TokenUsage collects embedding and generation token usage for a single
// request. The caller puts a mutable pointer into the context before invoking
// a service; services write after provider calls; the caller reads it back.
type TokenUsage struct {
	EmbeddingTokens  int
	GenerationTokens int
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *TokenUsage) {
	u := &TokenUsage{}
	return context.WithValue(ctx, tokenUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *TokenUsage {
	u, _ := ctx.Value(tokenUsageKey{}).(*TokenUsage)
	return u
}

// AddEmbeddingTokens records consumed embedding tokens.
func (u *TokenUsage) AddEmbeddingTokens(n int) {
	if u != nil {
		u.EmbeddingTokens += n
	}
}

// AddGenerationTokens records consumed generation tokens.
func (u *TokenUsage) AddGenerationTokens(n int) {
	if u != nil {
		u.GenerationTokens += n
	}
}
