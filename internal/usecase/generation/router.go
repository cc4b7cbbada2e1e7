package generation

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gazette/internal/domain"
	"github.com/kailas-cloud/gazette/internal/metrics"
)

// Provider pairs one backing implementation with its per-attempt deadline.
// An attempt that exceeds Timeout counts as a provider failure and the router
// advances to the next entry. Zero disables the bound.
type Provider struct {
	Impl    domain.GenerationProvider
	Timeout time.Duration
}

// Router tries generation providers in configured order and returns the first
// success. Provider order is fixed at construction; a failure never reorders
// the list for later calls.
type Router struct {
	providers []Provider
	logger    *zap.Logger
}

// NewRouter creates a generation router over an ordered provider list.
func NewRouter(providers []Provider, logger *zap.Logger) (*Router, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("at least one generation provider is required: %w", domain.ErrInvalidArgument)
	}
	return &Router{providers: providers, logger: logger}, nil
}

// Providers returns the configured provider names in fallback order.
func (r *Router) Providers() []string {
	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Impl.Name()
	}
	return names
}

// Generate implements domain.Generator. Every provider failure is recoverable
// here; only when the whole list fails does the caller see an error, carrying
// each provider's cause in order.
func (r *Router) Generate(ctx context.Context, req domain.GenerateRequest) (domain.GenerateResult, error) {
	var failures []domain.ProviderFailure

	for i, p := range r.providers {
		res, err := r.generateOnce(ctx, p, req)
		if err == nil {
			r.recordUsage(ctx, res)
			return res, nil
		}

		failures = append(failures, domain.ProviderFailure{Provider: p.Impl.Name(), Err: err})
		r.noteFallback(i, err)

		if ctx.Err() != nil {
			break
		}
	}

	return domain.GenerateResult{}, domain.NewExhausted(failures)
}

// generateOnce makes a single provider attempt under its deadline. The parent
// context stays untouched, so an attempt timeout never looks like a caller
// cancellation to the fallback loop.
func (r *Router) generateOnce(ctx context.Context, p Provider, req domain.GenerateRequest) (domain.GenerateResult, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	return p.Impl.Generate(ctx, req)
}

// GenerateStream implements domain.Generator. Fallback applies only before the
// first chunk: the router pulls the first chunk itself, and once one arrives
// the stream is committed to that provider. A later failure surfaces from Recv
// as a truncated-stream error and is never retried, since a retry could
// duplicate output already delivered.
func (r *Router) GenerateStream(ctx context.Context, req domain.GenerateRequest) (domain.Stream, error) {
	var failures []domain.ProviderFailure

	for i, p := range r.providers {
		stream, err := r.openStream(ctx, p, req)
		if err != nil {
			failures = append(failures, domain.ProviderFailure{Provider: p.Impl.Name(), Err: err})
			r.noteFallback(i, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		return stream, nil
	}

	return nil, domain.NewExhausted(failures)
}

// openStream makes one streaming attempt. The provider's timeout covers
// opening the stream and receiving the first chunk; once committed the stream
// runs without a deadline until Close releases the attempt context.
func (r *Router) openStream(ctx context.Context, p Provider, req domain.GenerateRequest) (domain.Stream, error) {
	attemptCtx := ctx
	cancel := context.CancelFunc(func() {})
	var timer *time.Timer
	if p.Timeout > 0 {
		attemptCtx, cancel = context.WithCancel(ctx)
		timer = time.AfterFunc(p.Timeout, cancel)
	}
	stopTimer := func() {
		if timer != nil {
			timer.Stop()
		}
	}

	stream, err := p.Impl.GenerateStream(attemptCtx, req)
	if err != nil {
		stopTimer()
		cancel()
		return nil, err
	}

	first, err := stream.Recv()
	stopTimer()
	if err != nil && err != io.EOF {
		_ = stream.Close()
		cancel()
		return nil, err
	}

	// Committed. An immediate EOF is a valid empty stream.
	return &committedStream{
		inner:   stream,
		first:   first,
		hasNext: err == nil,
		cancel:  cancel,
	}, nil
}

func (r *Router) recordUsage(ctx context.Context, res domain.GenerateResult) {
	if usage := domain.UsageFromContext(ctx); usage != nil {
		usage.AddGenerationTokens(res.InputTokens + res.OutputTokens)
	}
}

func (r *Router) noteFallback(failedIdx int, err error) {
	from := r.providers[failedIdx].Impl.Name()
	to := "none"
	if failedIdx+1 < len(r.providers) {
		to = r.providers[failedIdx+1].Impl.Name()
	}
	metrics.GenerationFallbacksTotal.WithLabelValues(from, to).Inc()
	r.logger.Warn("generation provider failed",
		zap.String("provider", from),
		zap.String("next", to),
		zap.Error(err))
}

// committedStream replays the first chunk the router already pulled, then
// delegates. After commitment every provider error maps to a truncated stream.
type committedStream struct {
	inner     domain.Stream
	first     string
	hasNext   bool
	delivered bool
	cancel    context.CancelFunc
}

func (s *committedStream) Recv() (string, error) {
	if !s.delivered {
		s.delivered = true
		if !s.hasNext {
			return "", io.EOF
		}
		return s.first, nil
	}

	chunk, err := s.inner.Recv()
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("%v: %w", err, domain.ErrTruncatedStream)
	}
	return chunk, err
}

func (s *committedStream) Close() error {
	s.cancel()
	return s.inner.Close()
}
