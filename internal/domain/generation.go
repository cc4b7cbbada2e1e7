package domain

import "context"

// GenerateRequest describes a single text generation call.
// Ephemeral: owned by the call that creates it.
type GenerateRequest struct {
	Prompt      string
	System      string
	MaxTokens   int
	Temperature float32
}

// GenerateResult carries the generated text and token usage.
type GenerateResult struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Stream is a finite, single-consumer lazy sequence of text chunks.
// Recv returns io.EOF after the last chunk. The sequence is not restartable;
// re-issuing requires a new GenerateStream call. Close releases the underlying
// provider connection and must be safe to call at any point.
type Stream interface {
	Recv() (string, error)
	Close() error
}

// GenerationProvider is one backing LLM vendor. The router depends only on
// this interface, never on vendor-specific types.
type GenerationProvider interface {
	Name() string
	Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error)
	GenerateStream(ctx context.Context, req GenerateRequest) (Stream, error)
}

// Generator is the text generation contract consumed by the orchestrator.
// Implemented by the generation router.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error)
	GenerateStream(ctx context.Context, req GenerateRequest) (Stream, error)
}
