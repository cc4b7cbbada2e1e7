package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/gazette/internal/domain"
	"github.com/kailas-cloud/gazette/internal/metrics"
)

// Generator is a text generation provider using the OpenAI chat completions
// API. With BaseURL pointed at an Ollama host it serves local models too, so
// the provider name is configurable ("openai" or "ollama").
type Generator struct {
	client *openai.Client
	model  string
	name   string
	logger *zap.Logger
}

// GeneratorConfig holds the generation provider settings.
type GeneratorConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Name    string
	Logger  *zap.Logger
}

// NewGenerator creates an OpenAI-compatible generation provider.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Generator{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		name:   cfg.Name,
		logger: cfg.Logger,
	}
}

// Name implements domain.GenerationProvider.
func (g *Generator) Name() string { return g.name }

// Generate implements domain.GenerationProvider.
func (g *Generator) Generate(ctx context.Context, req domain.GenerateRequest) (domain.GenerateResult, error) {
	start := time.Now()

	resp, err := g.client.CreateChatCompletion(ctx, g.buildRequest(req))

	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(g.name, "error").Inc()
		metrics.GenerationErrorsTotal.WithLabelValues(g.name, "api_error").Inc()
		return domain.GenerateResult{}, g.wrapError(err)
	}

	if len(resp.Choices) == 0 {
		metrics.GenerationRequestsTotal.WithLabelValues(g.name, "error").Inc()
		metrics.GenerationErrorsTotal.WithLabelValues(g.name, "empty_response").Inc()
		return domain.GenerateResult{}, fmt.Errorf("%s: empty completion response: %w", g.name, domain.ErrProviderFailure)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(g.name, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(g.name).Observe(duration.Seconds())
	metrics.GenerationTokensTotal.WithLabelValues(g.name, "input").Add(float64(resp.Usage.PromptTokens))
	metrics.GenerationTokensTotal.WithLabelValues(g.name, "output").Add(float64(resp.Usage.CompletionTokens))

	return domain.GenerateResult{
		Text:         resp.Choices[0].Message.Content,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

// GenerateStream implements domain.GenerationProvider. Errors before the first
// chunk surface from this call or the first Recv; later errors surface
// mid-stream from Recv.
func (g *Generator) GenerateStream(ctx context.Context, req domain.GenerateRequest) (domain.Stream, error) {
	stream, err := g.client.CreateChatCompletionStream(ctx, g.buildRequest(req))
	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(g.name, "error").Inc()
		metrics.GenerationErrorsTotal.WithLabelValues(g.name, "api_error").Inc()
		return nil, g.wrapError(err)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(g.name, "success").Inc()
	return &chatStream{inner: stream, name: g.name}, nil
}

func (g *Generator) buildRequest(req domain.GenerateRequest) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	return openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
}

func (g *Generator) wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: completion API error %d: %s: %w",
			g.name, apiErr.HTTPStatusCode, apiErr.Message, domain.ErrProviderFailure)
	}
	return fmt.Errorf("%s: completion request failed: %v: %w", g.name, err, domain.ErrProviderFailure)
}

// chatStream adapts the SSE completion stream to domain.Stream.
type chatStream struct {
	inner *openai.ChatCompletionStream
	name  string
}

func (s *chatStream) Recv() (string, error) {
	for {
		resp, err := s.inner.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", io.EOF
			}
			metrics.GenerationErrorsTotal.WithLabelValues(s.name, "stream_error").Inc()
			return "", fmt.Errorf("%s: stream receive: %v: %w", s.name, err, domain.ErrProviderFailure)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if delta := resp.Choices[0].Delta.Content; delta != "" {
			metrics.GenerationTokensTotal.WithLabelValues(s.name, "output").Inc()
			return delta, nil
		}
	}
}

func (s *chatStream) Close() error {
	return s.inner.Close()
}
