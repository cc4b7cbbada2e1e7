package rag

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/kailas-cloud/gazette/internal/domain"
	"github.com/kailas-cloud/gazette/internal/domain/page"
	"github.com/kailas-cloud/gazette/internal/domain/search/filter"
	"github.com/kailas-cloud/gazette/internal/domain/search/result"
)

// --- SearchWithSummary ---

func TestSearchWithSummary_HappyPath(t *testing.T) {
	svc, ret, gen := newTestService(t)

	ret.searchFn = func(_ context.Context, _ string, _ int, _ filter.Filter) ([]result.Result, error) {
		return candidates(3), nil
	}
	gen.generateFn = func(_ context.Context, req domain.GenerateRequest) (domain.GenerateResult, error) {
		if req.System == "" {
			t.Error("system prompt missing")
		}
		if !strings.Contains(req.Prompt, "gold rush") {
			t.Errorf("prompt missing query: %q", req.Prompt)
		}
		if !strings.Contains(req.Prompt, "[1] Paper 0") {
			t.Errorf("prompt missing context block: %q", req.Prompt)
		}
		return domain.GenerateResult{Text: "Three pages cover the gold rush."}, nil
	}

	out, err := svc.SearchWithSummary(context.Background(), "gold rush", 3, filter.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Empty {
		t.Fatal("unexpected empty outcome")
	}
	if len(out.Results) != 3 {
		t.Errorf("results = %d", len(out.Results))
	}
	if out.Summary != "Three pages cover the gold rush." {
		t.Errorf("summary = %q", out.Summary)
	}
}

func TestSearchWithSummary_EmptySkipsGeneration(t *testing.T) {
	svc, _, gen := newTestService(t)

	out, err := svc.SearchWithSummary(context.Background(), "nothing", 5, filter.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Empty {
		t.Fatal("expected empty outcome")
	}
	if gen.calls != 0 {
		t.Errorf("generator must not be called on empty retrieval, got %d calls", gen.calls)
	}
}

func TestSearchWithSummary_RetrievalError(t *testing.T) {
	svc, ret, gen := newTestService(t)

	ret.searchFn = func(_ context.Context, _ string, _ int, _ filter.Filter) ([]result.Result, error) {
		return nil, domain.ErrInvalidArgument
	}

	_, err := svc.SearchWithSummary(context.Background(), "q", 0, filter.Filter{})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if gen.calls != 0 {
		t.Errorf("generator called despite retrieval error")
	}
}

func TestSearchWithSummary_GenerationError(t *testing.T) {
	svc, ret, gen := newTestService(t)

	ret.searchFn = func(_ context.Context, _ string, _ int, _ filter.Filter) ([]result.Result, error) {
		return candidates(1), nil
	}
	gen.generateFn = func(_ context.Context, _ domain.GenerateRequest) (domain.GenerateResult, error) {
		return domain.GenerateResult{}, domain.NewExhausted(nil)
	}

	_, err := svc.SearchWithSummary(context.Background(), "q", 5, filter.Filter{})
	if !errors.Is(err, domain.ErrAllProvidersExhausted) {
		t.Fatalf("expected exhaustion, got %v", err)
	}
}

// --- SearchWithSummaryStream ---

func TestSearchWithSummaryStream_HappyPath(t *testing.T) {
	svc, ret, _ := newTestService(t)

	ret.searchFn = func(_ context.Context, _ string, _ int, _ filter.Filter) ([]result.Result, error) {
		return candidates(2), nil
	}

	results, stream, err := svc.SearchWithSummaryStream(context.Background(), "q", 5, filter.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("results = %d", len(results))
	}
	defer stream.Close()

	var text string
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		text += chunk
	}
	if text != "generated text" {
		t.Errorf("text = %q", text)
	}
}

func TestSearchWithSummaryStream_Empty(t *testing.T) {
	svc, _, gen := newTestService(t)

	results, stream, err := svc.SearchWithSummaryStream(context.Background(), "q", 5, filter.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results != nil || stream != nil {
		t.Errorf("expected nil results and stream, got %v / %v", results, stream)
	}
	if gen.calls != 0 {
		t.Errorf("generator called on empty retrieval")
	}
}

// --- Recommend ---

func TestRecommend_ModelPick(t *testing.T) {
	svc, ret, gen := newTestService(t)

	ret.searchFn = func(_ context.Context, _ string, _ int, _ filter.Filter) ([]result.Result, error) {
		return candidates(3), nil
	}
	gen.generateFn = func(_ context.Context, _ domain.GenerateRequest) (domain.GenerateResult, error) {
		return domain.GenerateResult{Text: "NUMBER: 2\nREASON: Strongest headline."}, nil
	}

	rec, err := svc.Recommend(context.Background(), "dramatic front page", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Selected.ID() != "page_1" {
		t.Errorf("Selected = %q, want page_1", rec.Selected.ID())
	}
	if !rec.FromModel {
		t.Error("expected FromModel=true")
	}
	if rec.Reason != "Strongest headline." {
		t.Errorf("Reason = %q", rec.Reason)
	}
}

func TestRecommend_UnparsableFallsBackToTop(t *testing.T) {
	svc, ret, gen := newTestService(t)

	ret.searchFn = func(_ context.Context, _ string, _ int, _ filter.Filter) ([]result.Result, error) {
		return candidates(3), nil
	}
	gen.generateFn = func(_ context.Context, _ domain.GenerateRequest) (domain.GenerateResult, error) {
		return domain.GenerateResult{Text: "I think the second one is nice."}, nil
	}

	rec, err := svc.Recommend(context.Background(), "intent", 3)
	if err != nil {
		t.Fatalf("parse failure alone must not error: %v", err)
	}
	if rec.Selected.ID() != "page_0" {
		t.Errorf("Selected = %q, want top-ranked page_0", rec.Selected.ID())
	}
	if rec.FromModel {
		t.Error("expected FromModel=false on fallback")
	}
}

func TestRecommend_OutOfRangeFallsBackToTop(t *testing.T) {
	svc, ret, gen := newTestService(t)

	ret.searchFn = func(_ context.Context, _ string, _ int, _ filter.Filter) ([]result.Result, error) {
		return candidates(3), nil
	}
	gen.generateFn = func(_ context.Context, _ domain.GenerateRequest) (domain.GenerateResult, error) {
		return domain.GenerateResult{Text: "NUMBER: 7\nREASON: ghost pick"}, nil
	}

	rec, err := svc.Recommend(context.Background(), "intent", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Selected.ID() != "page_0" || rec.FromModel {
		t.Errorf("expected rank-0 fallback, got %q FromModel=%v", rec.Selected.ID(), rec.FromModel)
	}
}

func TestRecommend_Empty(t *testing.T) {
	svc, _, gen := newTestService(t)

	rec, err := svc.Recommend(context.Background(), "intent", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rec.Empty {
		t.Fatal("expected empty outcome")
	}
	if gen.calls != 0 {
		t.Errorf("generator called on empty retrieval")
	}
}

// --- Summarize / AnswerQuestion ---

func TestSummarize(t *testing.T) {
	svc, ret, gen := newTestService(t)

	ret.getFn = func(_ context.Context, id string) (page.Page, error) {
		return page.Reconstruct(id, "The Herald", "kansas", "1905-07-26", 1,
			[]page.Article{{Headline: "FLOOD", Body: "The river rose."}}), nil
	}
	gen.generateFn = func(_ context.Context, req domain.GenerateRequest) (domain.GenerateResult, error) {
		if !strings.Contains(req.Prompt, "FLOOD") {
			t.Errorf("prompt missing page content: %q", req.Prompt)
		}
		return domain.GenerateResult{Text: "A flood report."}, nil
	}

	text, err := svc.Summarize(context.Background(), "herald_p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "A flood report." {
		t.Errorf("text = %q", text)
	}
}

func TestSummarize_NotFound(t *testing.T) {
	svc, _, gen := newTestService(t)

	_, err := svc.Summarize(context.Background(), "missing")
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if gen.calls != 0 {
		t.Errorf("generator called for missing page")
	}
}

func TestAnswerQuestion(t *testing.T) {
	svc, ret, gen := newTestService(t)

	ret.getFn = func(_ context.Context, id string) (page.Page, error) {
		return page.Reconstruct(id, "The Herald", "", "1905-07-26", 1, nil), nil
	}
	gen.generateFn = func(_ context.Context, req domain.GenerateRequest) (domain.GenerateResult, error) {
		if !strings.Contains(req.Prompt, "Who was the mayor?") {
			t.Errorf("prompt missing question: %q", req.Prompt)
		}
		if !strings.Contains(req.Prompt, "not found in this document") {
			t.Errorf("prompt missing refusal contract: %q", req.Prompt)
		}
		return domain.GenerateResult{Text: "not found in this document"}, nil
	}

	answer, err := svc.AnswerQuestion(context.Background(), "herald_p1", "Who was the mayor?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "not found in this document" {
		t.Errorf("answer = %q", answer)
	}
}

// --- GenerateLayout ---

func TestGenerateLayout_PrimaryPlusSuggestions(t *testing.T) {
	svc, ret, gen := newTestService(t)

	ret.searchFn = func(_ context.Context, _ string, k int, _ filter.Filter) ([]result.Result, error) {
		return candidates(k), nil
	}
	gen.generateFn = func(_ context.Context, _ domain.GenerateRequest) (domain.GenerateResult, error) {
		return domain.GenerateResult{Text: "NUMBER: 3\nREASON: Best composition."}, nil
	}

	out, err := svc.GenerateLayout(context.Background(), "mining town", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sel := out.Selection
	primary := sel.Primary()
	if primary.ID() != "page_2" {
		t.Errorf("Primary = %q", primary.ID())
	}
	if sel.Reason() != "Best composition." {
		t.Errorf("Reason = %q", sel.Reason())
	}
	// Remaining candidates in rank order, skipping the primary.
	ids := []string{}
	for _, s := range sel.Suggestions() {
		ids = append(ids, s.ID())
	}
	want := []string{"page_0", "page_1", "page_3"}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("suggestion[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestGenerateLayout_RaisesKForSuggestions(t *testing.T) {
	svc, ret, _ := newTestService(t)

	ret.searchFn = func(_ context.Context, _ string, k int, _ filter.Filter) ([]result.Result, error) {
		return candidates(k), nil
	}

	if _, err := svc.GenerateLayout(context.Background(), "q", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ret.lastK != layoutMinK {
		t.Errorf("k = %d, want %d", ret.lastK, layoutMinK)
	}
}

func TestGenerateLayout_CapsKAtKMax(t *testing.T) {
	svc, ret, _ := newTestService(t)
	ret.kMax = 3

	ret.searchFn = func(_ context.Context, _ string, k int, _ filter.Filter) ([]result.Result, error) {
		return candidates(k), nil
	}

	if _, err := svc.GenerateLayout(context.Background(), "q", 50); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ret.lastK != 3 {
		t.Errorf("k = %d, want 3", ret.lastK)
	}
}

func TestGenerateLayout_FewerCandidatesThanSlots(t *testing.T) {
	svc, ret, gen := newTestService(t)

	ret.searchFn = func(_ context.Context, _ string, _ int, _ filter.Filter) ([]result.Result, error) {
		return candidates(2), nil
	}
	gen.generateFn = func(_ context.Context, _ domain.GenerateRequest) (domain.GenerateResult, error) {
		return domain.GenerateResult{Text: "NUMBER: 1\nREASON: only real option"}, nil
	}

	out, err := svc.GenerateLayout(context.Background(), "q", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	primary := out.Selection.Primary()
	if primary.ID() != "page_0" {
		t.Errorf("Primary = %q", primary.ID())
	}
	if len(out.Selection.Suggestions()) != 1 {
		t.Errorf("suggestions = %d, want 1", len(out.Selection.Suggestions()))
	}
}

func TestGenerateLayout_Empty(t *testing.T) {
	svc, _, gen := newTestService(t)

	out, err := svc.GenerateLayout(context.Background(), "q", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Empty {
		t.Fatal("expected empty outcome")
	}
	if gen.calls != 0 {
		t.Errorf("generator called on empty retrieval")
	}
}

// --- GetStatus ---

func TestGetStatus(t *testing.T) {
	svc, ret, _ := newTestService(t)

	ret.countFn = func(_ context.Context) (int, error) { return 123, nil }

	st, err := svc.GetStatus(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Documents != 123 {
		t.Errorf("Documents = %d", st.Documents)
	}
	if len(st.Providers) != 2 || st.Providers[0] != "anthropic" {
		t.Errorf("Providers = %v", st.Providers)
	}
}
