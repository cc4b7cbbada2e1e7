package gemini

import (
	"context"
	"fmt"
	"io"
	"iter"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/gazette/internal/domain"
	"github.com/kailas-cloud/gazette/internal/metrics"
)

const providerName = "gemini"

// Generator is a text generation provider backed by the Gemini API.
type Generator struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// Config holds the Gemini provider settings.
type Config struct {
	APIKey string
	Model  string
	Logger *zap.Logger
}

// NewGenerator creates a Gemini generation provider.
func NewGenerator(ctx context.Context, cfg *Config) (*Generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize genai client: %w", err)
	}

	return &Generator{
		client: client,
		model:  cfg.Model,
		logger: cfg.Logger,
	}, nil
}

// Name implements domain.GenerationProvider.
func (g *Generator) Name() string { return providerName }

// Generate implements domain.GenerationProvider.
func (g *Generator) Generate(ctx context.Context, req domain.GenerateRequest) (domain.GenerateResult, error) {
	start := time.Now()

	resp, err := g.client.Models.GenerateContent(ctx, g.model, g.buildContents(req), g.buildConfig(req))

	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(providerName, "error").Inc()
		metrics.GenerationErrorsTotal.WithLabelValues(providerName, "api_error").Inc()
		return domain.GenerateResult{}, fmt.Errorf("%s: generate content: %v: %w",
			providerName, err, domain.ErrProviderFailure)
	}

	text := resp.Text()
	if text == "" {
		metrics.GenerationRequestsTotal.WithLabelValues(providerName, "error").Inc()
		metrics.GenerationErrorsTotal.WithLabelValues(providerName, "empty_response").Inc()
		return domain.GenerateResult{}, fmt.Errorf("%s: empty generation response: %w",
			providerName, domain.ErrProviderFailure)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(providerName, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(providerName).Observe(duration.Seconds())

	var inputTokens, outputTokens int
	if resp.UsageMetadata != nil {
		inputTokens = int(resp.UsageMetadata.PromptTokenCount)
		outputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		metrics.GenerationTokensTotal.WithLabelValues(providerName, "input").Add(float64(inputTokens))
		metrics.GenerationTokensTotal.WithLabelValues(providerName, "output").Add(float64(outputTokens))
	}

	return domain.GenerateResult{
		Text:         text,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
	}, nil
}

// GenerateStream implements domain.GenerationProvider. The SDK exposes a push
// iterator; iter.Pull2 converts it to the pull shape the stream contract needs.
func (g *Generator) GenerateStream(ctx context.Context, req domain.GenerateRequest) (domain.Stream, error) {
	seq := g.client.Models.GenerateContentStream(ctx, g.model, g.buildContents(req), g.buildConfig(req))
	next, stop := iter.Pull2(seq)
	metrics.GenerationRequestsTotal.WithLabelValues(providerName, "stream").Inc()
	return &contentStream{next: next, stop: stop}, nil
}

func (g *Generator) buildContents(req domain.GenerateRequest) []*genai.Content {
	return []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{genai.NewPartFromText(req.Prompt)},
	}}
}

func (g *Generator) buildConfig(req domain.GenerateRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(req.Temperature)
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(req.System)},
		}
	}
	return cfg
}

// contentStream adapts the pulled genai response sequence to domain.Stream.
type contentStream struct {
	next func() (*genai.GenerateContentResponse, error, bool)
	stop func()
}

func (s *contentStream) Recv() (string, error) {
	for {
		resp, err, ok := s.next()
		if !ok {
			return "", io.EOF
		}
		if err != nil {
			metrics.GenerationErrorsTotal.WithLabelValues(providerName, "stream_error").Inc()
			return "", fmt.Errorf("%s: stream receive: %v: %w", providerName, err, domain.ErrProviderFailure)
		}
		if text := resp.Text(); text != "" {
			metrics.GenerationTokensTotal.WithLabelValues(providerName, "output").Inc()
			return text, nil
		}
	}
}

func (s *contentStream) Close() error {
	s.stop()
	return nil
}
