package cli

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gazette/internal/config"
	"github.com/kailas-cloud/gazette/internal/db"
	dbredis "github.com/kailas-cloud/gazette/internal/db/redis"
	"github.com/kailas-cloud/gazette/internal/domain"
	logpkg "github.com/kailas-cloud/gazette/internal/logger"
	"github.com/kailas-cloud/gazette/internal/metrics"
	"github.com/kailas-cloud/gazette/internal/repository/archive"
	"github.com/kailas-cloud/gazette/internal/repository/embcache"
	"github.com/kailas-cloud/gazette/internal/transport/anthropicapi"
	"github.com/kailas-cloud/gazette/internal/transport/gemini"
	openaitr "github.com/kailas-cloud/gazette/internal/transport/openai"
	generationuc "github.com/kailas-cloud/gazette/internal/usecase/generation"
	healthuc "github.com/kailas-cloud/gazette/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/gazette/internal/usecase/ingest"
	raguc "github.com/kailas-cloud/gazette/internal/usecase/rag"
	retrievaluc "github.com/kailas-cloud/gazette/internal/usecase/retrieval"
)

// App is the composition root: every service wired once, shared by the
// commands.
type App struct {
	Cfg    config.Config
	Logger *zap.Logger
	Store  db.Store

	Archive   *archive.Repository
	Retrieval *retrievaluc.Service
	Ingest    *ingestuc.Pipeline
	RAG       *raguc.Service
	Health    *healthuc.Service
}

// buildApp loads config, connects storage and assembles the service graph.
func buildApp(ctx context.Context) (*App, error) {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	store, err := dbredis.NewStore(dbredis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterGenerationMetrics()

	baseEmbedder := openaitr.NewEmbedder(&openaitr.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
	docEmbedder := buildEmbedderChain(baseEmbedder, store, &cfg.Embedding, cfg.Embedding.DocumentInstruction, logger)
	queryEmbedder := buildEmbedderChain(baseEmbedder, store, &cfg.Embedding, cfg.Embedding.QueryInstruction, logger)

	providers, err := buildProviders(ctx, cfg.Generation.Providers, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	router, err := generationuc.NewRouter(providers, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("create generation router: %w", err)
	}

	archiveRepo := archive.NewRepository(store, logger)
	retrievalSvc := retrievaluc.New(archiveRepo, queryEmbedder, cfg.Retrieval.KMax, logger)
	ingestPipeline := ingestuc.NewPipeline(
		batchAdapter{docEmbedder}, archiveRepo, cfg.Embedding.Dimensions, logger)
	ragSvc := raguc.New(
		retrievalSvc, router, router.Providers(),
		cfg.Generation.MaxTokens, cfg.Generation.Temperature, logger)
	healthSvc := healthuc.New(store, embeddingHealthChecker{baseEmbedder})

	return &App{
		Cfg:       cfg,
		Logger:    logger,
		Store:     store,
		Archive:   archiveRepo,
		Retrieval: retrievalSvc,
		Ingest:    ingestPipeline,
		RAG:       ragSvc,
		Health:    healthSvc,
	}, nil
}

// Close releases held resources.
func (a *App) Close() {
	a.Store.Close()
	_ = a.Logger.Sync()
}

// buildEmbedderChain assembles the decorator chain: base -> cached -> instruction.
func buildEmbedderChain(
	base *openaitr.Embedder,
	store db.Store,
	cfg *config.EmbeddingConfig,
	instruction string,
	logger *zap.Logger,
) domain.Embedder {
	var embedder domain.Embedder = base
	embedder = embcache.New(
		base, store, cfg.Model,
		time.Duration(cfg.CacheTTLHours)*time.Hour,
		metrics.EmbeddingCacheTotal, logger,
	)
	if instruction != "" {
		embedder = domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}

// buildProviders creates generation providers in configured fallback order,
// each bounded by its configured per-attempt timeout.
func buildProviders(
	ctx context.Context, cfgs []config.GenProviderConfig, logger *zap.Logger,
) ([]generationuc.Provider, error) {
	providers := make([]generationuc.Provider, 0, len(cfgs))
	for _, pc := range cfgs {
		var impl domain.GenerationProvider
		switch pc.Name {
		case "anthropic":
			impl = anthropicapi.NewGenerator(&anthropicapi.Config{
				APIKey: pc.APIKey,
				Model:  pc.Model,
				Logger: logger,
			})
		case "gemini":
			g, err := gemini.NewGenerator(ctx, &gemini.Config{
				APIKey: pc.APIKey,
				Model:  pc.Model,
				Logger: logger,
			})
			if err != nil {
				return nil, fmt.Errorf("create gemini provider: %w", err)
			}
			impl = g
		case "openai", "ollama":
			impl = openaitr.NewGenerator(&openaitr.GeneratorConfig{
				APIKey:  pc.APIKey,
				BaseURL: pc.BaseURL,
				Model:   pc.Model,
				Name:    pc.Name,
				Logger:  logger,
			})
		default:
			return nil, fmt.Errorf("unsupported generation provider %q", pc.Name)
		}
		providers = append(providers, generationuc.Provider{
			Impl:    impl,
			Timeout: time.Duration(pc.TimeoutSec) * time.Second,
		})
	}
	return providers, nil
}

// batchAdapter lets the instruction/cache chain satisfy the ingest contract.
// When the decorated chain loses the native batch method, per-text fallback
// keeps the atomic semantics.
type batchAdapter struct {
	domain.Embedder
}

func (b batchAdapter) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if be, ok := b.Embedder.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}
	return domain.BatchFallback(ctx, b.Embedder, texts)
}

// embeddingHealthChecker adapts the base embedder to the health contract.
type embeddingHealthChecker struct {
	checker domain.HealthChecker
}

func (h embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if err := h.checker.HealthCheck(ctx); err != nil {
		return fmt.Errorf("embedding health check: %w", err)
	}
	return nil
}
