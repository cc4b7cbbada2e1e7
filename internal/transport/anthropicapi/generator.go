package anthropicapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"go.uber.org/zap"

	"github.com/kailas-cloud/gazette/internal/domain"
	"github.com/kailas-cloud/gazette/internal/metrics"
)

const providerName = "anthropic"

// Generator is a text generation provider backed by the Anthropic Messages API.
type Generator struct {
	client anthropic.Client
	model  anthropic.Model
	logger *zap.Logger
}

// Config holds the Anthropic provider settings.
type Config struct {
	APIKey string
	Model  string
	Logger *zap.Logger
}

// NewGenerator creates a Claude generation provider.
func NewGenerator(cfg *Config) *Generator {
	return &Generator{
		client: anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:  anthropic.Model(cfg.Model),
		logger: cfg.Logger,
	}
}

// Name implements domain.GenerationProvider.
func (g *Generator) Name() string { return providerName }

// Generate implements domain.GenerationProvider.
func (g *Generator) Generate(ctx context.Context, req domain.GenerateRequest) (domain.GenerateResult, error) {
	start := time.Now()

	resp, err := g.client.Messages.New(ctx, g.buildParams(req))

	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(providerName, "error").Inc()
		metrics.GenerationErrorsTotal.WithLabelValues(providerName, "api_error").Inc()
		return domain.GenerateResult{}, wrapError(err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		metrics.GenerationRequestsTotal.WithLabelValues(providerName, "error").Inc()
		metrics.GenerationErrorsTotal.WithLabelValues(providerName, "empty_response").Inc()
		return domain.GenerateResult{}, fmt.Errorf("%s: empty message response: %w", providerName, domain.ErrProviderFailure)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(providerName, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(providerName).Observe(duration.Seconds())
	metrics.GenerationTokensTotal.WithLabelValues(providerName, "input").Add(float64(resp.Usage.InputTokens))
	metrics.GenerationTokensTotal.WithLabelValues(providerName, "output").Add(float64(resp.Usage.OutputTokens))

	return domain.GenerateResult{
		Text:         text,
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}, nil
}

// GenerateStream implements domain.GenerationProvider. The SDK defers
// connection errors to the first Next call, so pre-first-chunk failures
// surface from the first Recv.
func (g *Generator) GenerateStream(ctx context.Context, req domain.GenerateRequest) (domain.Stream, error) {
	stream := g.client.Messages.NewStreaming(ctx, g.buildParams(req))
	metrics.GenerationRequestsTotal.WithLabelValues(providerName, "stream").Inc()
	return &messageStream{inner: stream}, nil
}

func (g *Generator) buildParams(req domain.GenerateRequest) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     g.model,
		MaxTokens: int64(req.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(req.Temperature))
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	return params
}

func wrapError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		wrap := domain.ErrProviderFailure
		if apiErr.StatusCode == http.StatusTooManyRequests {
			wrap = domain.ErrRateLimited
		}
		return fmt.Errorf("%s: messages API error %d: %v: %w",
			providerName, apiErr.StatusCode, err, wrap)
	}
	return fmt.Errorf("%s: messages request failed: %v: %w", providerName, err, domain.ErrProviderFailure)
}

// messageStream adapts the SDK event stream to domain.Stream, surfacing only
// text deltas.
type messageStream struct {
	inner *ssestream.Stream[anthropic.MessageStreamEventUnion]
}

func (s *messageStream) Recv() (string, error) {
	for s.inner.Next() {
		event := s.inner.Current()
		switch ev := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
				metrics.GenerationTokensTotal.WithLabelValues(providerName, "output").Inc()
				return delta.Text, nil
			}
		default:
			// message_start, content_block_start, message_delta, message_stop
		}
	}
	if err := s.inner.Err(); err != nil {
		metrics.GenerationErrorsTotal.WithLabelValues(providerName, "stream_error").Inc()
		return "", wrapError(err)
	}
	return "", io.EOF
}

func (s *messageStream) Close() error {
	return s.inner.Close()
}
