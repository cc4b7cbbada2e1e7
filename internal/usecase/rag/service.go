package rag

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gazette/internal/domain"
	"github.com/kailas-cloud/gazette/internal/domain/layout"
	"github.com/kailas-cloud/gazette/internal/domain/search/filter"
	"github.com/kailas-cloud/gazette/internal/domain/search/result"
)

// Request lifecycle states, logged per operation.
const (
	stateReceived        = "RECEIVED"
	stateRetrieving      = "RETRIEVING"
	stateEmptyResult     = "EMPTY_RESULT"
	stateCandidatesReady = "CANDIDATES_READY"
	stateGenerating      = "GENERATING"
	stateCompleted       = "COMPLETED"
	stateFailed          = "GENERATION_FAILED"
)

// layoutMinK is the retrieval floor for layout generation: one primary plus
// up to three suggestions.
const layoutMinK = 1 + layout.MaxSuggestions

// Service composes retrieval and generation into the archive's five reader
// operations. Stateless: every call carries its own context and parameters.
type Service struct {
	retriever   Retriever
	generator   domain.Generator
	providers   []string
	maxTokens   int
	temperature float32
	log         *zap.Logger
}

// New creates the orchestrator. providers is the generation fallback order,
// kept for status reporting.
func New(
	retriever Retriever,
	generator domain.Generator,
	providers []string,
	maxTokens int,
	temperature float32,
	log *zap.Logger,
) *Service {
	return &Service{
		retriever:   retriever,
		generator:   generator,
		providers:   providers,
		maxTokens:   maxTokens,
		temperature: temperature,
		log:         log,
	}
}

// SearchSummary is the outcome of SearchWithSummary. Empty means retrieval
// found nothing and generation was skipped.
type SearchSummary struct {
	Results []result.Result
	Summary string
	Empty   bool
}

// SearchWithSummary retrieves up to k pages and asks the generator for a
// short synthesis over them. Zero hits short-circuit generation: the model
// never sees an empty context block.
func (s *Service) SearchWithSummary(ctx context.Context, query string, k int, f filter.Filter) (SearchSummary, error) {
	log := s.opLogger("search_with_summary", query)
	log.Debug("state", zap.String("state", stateReceived), zap.Int("k", k))

	results, err := s.retrieve(ctx, log, query, k, f)
	if err != nil {
		return SearchSummary{}, err
	}
	if len(results) == 0 {
		return SearchSummary{Empty: true}, nil
	}

	log.Debug("state", zap.String("state", stateGenerating))
	res, err := s.generator.Generate(ctx, s.request(summaryPrompt(query, results)))
	if err != nil {
		log.Warn("state", zap.String("state", stateFailed), zap.Error(err))
		return SearchSummary{}, fmt.Errorf("summarize results: %w", err)
	}

	log.Debug("state", zap.String("state", stateCompleted))
	return SearchSummary{Results: results, Summary: res.Text}, nil
}

// SearchWithSummaryStream is SearchWithSummary with the summary delivered as
// a chunk stream. A nil stream with empty results signals the empty outcome.
func (s *Service) SearchWithSummaryStream(
	ctx context.Context, query string, k int, f filter.Filter,
) ([]result.Result, domain.Stream, error) {
	log := s.opLogger("search_with_summary_stream", query)
	log.Debug("state", zap.String("state", stateReceived), zap.Int("k", k))

	results, err := s.retrieve(ctx, log, query, k, f)
	if err != nil {
		return nil, nil, err
	}
	if len(results) == 0 {
		return nil, nil, nil
	}

	log.Debug("state", zap.String("state", stateGenerating))
	stream, err := s.generator.GenerateStream(ctx, s.request(summaryPrompt(query, results)))
	if err != nil {
		log.Warn("state", zap.String("state", stateFailed), zap.Error(err))
		return nil, nil, fmt.Errorf("stream summary: %w", err)
	}

	return results, stream, nil
}

// Recommendation is the outcome of Recommend. FromModel is false when the
// deterministic rank-0 fallback was applied.
type Recommendation struct {
	Selected  result.Result
	Reason    string
	FromModel bool
	Empty     bool
}

// Recommend retrieves candidates for the intent and asks the model to pick
// the single best one. An unparsable or out-of-range pick falls back to the
// top-ranked candidate; a parse failure alone is never an error.
func (s *Service) Recommend(ctx context.Context, intent string, k int) (Recommendation, error) {
	log := s.opLogger("recommend", intent)
	log.Debug("state", zap.String("state", stateReceived), zap.Int("k", k))

	results, err := s.retrieve(ctx, log, intent, k, filter.Filter{})
	if err != nil {
		return Recommendation{}, err
	}
	if len(results) == 0 {
		return Recommendation{Empty: true}, nil
	}

	log.Debug("state", zap.String("state", stateGenerating))
	res, err := s.generator.Generate(ctx, s.request(recommendPrompt(intent, results)))
	if err != nil {
		log.Warn("state", zap.String("state", stateFailed), zap.Error(err))
		return Recommendation{}, fmt.Errorf("recommend: %w", err)
	}

	idx, reason, fromModel := parseSelection(res.Text, len(results))
	if !fromModel {
		log.Debug("selection fallback to top-ranked candidate",
			zap.String("response", res.Text))
	}

	log.Debug("state", zap.String("state", stateCompleted), zap.Int("selected", idx))
	return Recommendation{
		Selected:  results[idx],
		Reason:    reason,
		FromModel: fromModel,
	}, nil
}

// Summarize generates a summary of one page. No retrieval step.
func (s *Service) Summarize(ctx context.Context, id string) (string, error) {
	log := s.opLogger("summarize", id)
	log.Debug("state", zap.String("state", stateReceived))

	p, err := s.retriever.Get(ctx, id)
	if err != nil {
		return "", fmt.Errorf("load page: %w", err)
	}

	log.Debug("state", zap.String("state", stateGenerating))
	res, err := s.generator.Generate(ctx, s.request(summarizePrompt(p)))
	if err != nil {
		log.Warn("state", zap.String("state", stateFailed), zap.Error(err))
		return "", fmt.Errorf("summarize page: %w", err)
	}

	log.Debug("state", zap.String("state", stateCompleted))
	return res.Text, nil
}

// AnswerQuestion answers strictly from one page's content. The prompt
// instructs the model to say the answer is not in the document rather than
// fabricate; that contract lives in the prompt, not in server-side checks.
func (s *Service) AnswerQuestion(ctx context.Context, id, question string) (string, error) {
	log := s.opLogger("answer_question", id)
	log.Debug("state", zap.String("state", stateReceived))

	p, err := s.retriever.Get(ctx, id)
	if err != nil {
		return "", fmt.Errorf("load page: %w", err)
	}

	log.Debug("state", zap.String("state", stateGenerating))
	res, err := s.generator.Generate(ctx, s.request(questionPrompt(p, question)))
	if err != nil {
		log.Warn("state", zap.String("state", stateFailed), zap.Error(err))
		return "", fmt.Errorf("answer question: %w", err)
	}

	log.Debug("state", zap.String("state", stateCompleted))
	return res.Text, nil
}

// LayoutResult is the outcome of GenerateLayout.
type LayoutResult struct {
	Selection layout.Selection
	Empty     bool
}

// GenerateLayout picks a primary page for the query via the recommendation
// step plus up to three suggestions from the remaining candidates in score
// order. k is raised to at least 4 so suggestions can fill; fewer total
// candidates just means fewer suggestions.
func (s *Service) GenerateLayout(ctx context.Context, query string, k int) (LayoutResult, error) {
	if k < layoutMinK {
		k = layoutMinK
	}
	if k > s.retriever.KMax() {
		k = s.retriever.KMax()
	}

	log := s.opLogger("generate_layout", query)
	log.Debug("state", zap.String("state", stateReceived), zap.Int("k", k))

	results, err := s.retrieve(ctx, log, query, k, filter.Filter{})
	if err != nil {
		return LayoutResult{}, err
	}
	if len(results) == 0 {
		return LayoutResult{Empty: true}, nil
	}

	log.Debug("state", zap.String("state", stateGenerating))
	res, err := s.generator.Generate(ctx, s.request(recommendPrompt(query, results)))
	if err != nil {
		log.Warn("state", zap.String("state", stateFailed), zap.Error(err))
		return LayoutResult{}, fmt.Errorf("select primary: %w", err)
	}

	primaryIdx, reason, _ := parseSelection(res.Text, len(results))

	suggestions := make([]result.Result, 0, layout.MaxSuggestions)
	for i := range results {
		if i == primaryIdx {
			continue
		}
		suggestions = append(suggestions, results[i])
		if len(suggestions) == layout.MaxSuggestions {
			break
		}
	}

	sel, err := layout.New(results[primaryIdx], suggestions, reason)
	if err != nil {
		return LayoutResult{}, fmt.Errorf("build layout selection: %w", err)
	}

	primary := sel.Primary()
	log.Debug("state", zap.String("state", stateCompleted),
		zap.String("primary", primary.ID()),
		zap.Int("suggestions", len(sel.Suggestions())))
	return LayoutResult{Selection: sel}, nil
}

// Status reports archive size and the configured generation fallback order.
type Status struct {
	Documents int      `json:"documents"`
	Providers []string `json:"providers"`
}

// GetStatus returns the current engine status.
func (s *Service) GetStatus(ctx context.Context) (Status, error) {
	count, err := s.retriever.Count(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("count documents: %w", err)
	}
	return Status{Documents: count, Providers: s.providers}, nil
}

func (s *Service) retrieve(
	ctx context.Context, log *zap.Logger, query string, k int, f filter.Filter,
) ([]result.Result, error) {
	log.Debug("state", zap.String("state", stateRetrieving))

	results, err := s.retriever.Search(ctx, query, k, f)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	if len(results) == 0 {
		log.Debug("state", zap.String("state", stateEmptyResult))
		return nil, nil
	}

	log.Debug("state", zap.String("state", stateCandidatesReady), zap.Int("candidates", len(results)))
	return results, nil
}

func (s *Service) request(prompt string) domain.GenerateRequest {
	return domain.GenerateRequest{
		Prompt:      prompt,
		System:      systemPrompt,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	}
}

func (s *Service) opLogger(op, subject string) *zap.Logger {
	return s.log.With(zap.String("op", op), zap.String("subject", subject))
}
