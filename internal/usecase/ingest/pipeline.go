package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gazette/internal/domain"
	"github.com/kailas-cloud/gazette/internal/domain/page"
)

// batchSize caps how many documents go into one embedding API call.
const batchSize = 16

// Rejection records one item excluded from ingestion with its reason.
type Rejection struct {
	Ref    string `json:"ref"`
	Reason string `json:"reason"`
}

// Report is the outcome of an ingestion run.
type Report struct {
	Accepted int         `json:"accepted"`
	Rejected []Rejection `json:"rejected"`
}

// pageFile is the on-disk JSON shape of one newspaper page.
type pageFile struct {
	Title      string         `json:"title"`
	State      string         `json:"state"`
	Date       string         `json:"date"`
	PageNumber int            `json:"page_number"`
	Articles   []page.Article `json:"articles"`
}

// Pipeline walks a document source and writes pages into the archive.
// Malformed items are recorded and skipped; a provider or storage failure
// aborts the run, since every remaining item would hit the same wall.
type Pipeline struct {
	embed  Embedder
	writer Writer
	dim    int
	log    *zap.Logger
}

// NewPipeline creates an ingestion pipeline. dim is the embedding
// dimensionality the store is initialized with.
func NewPipeline(embed Embedder, writer Writer, dim int, log *zap.Logger) *Pipeline {
	return &Pipeline{embed: embed, writer: writer, dim: dim, log: log}
}

// Ingest walks fsys for *.json page files in lexical path order, validates and
// embeds each, and upserts them by ID (the file name stem). Re-running over
// the same source leaves the store unchanged.
func (p *Pipeline) Ingest(ctx context.Context, fsys fs.FS) (Report, error) {
	if err := p.writer.EnsureReady(ctx, p.dim); err != nil {
		return Report{}, fmt.Errorf("prepare store: %w", err)
	}

	files, err := listPageFiles(fsys)
	if err != nil {
		return Report{}, fmt.Errorf("walk source: %w", err)
	}

	report := Report{Rejected: []Rejection{}}
	accepted := make([]page.Page, 0, len(files))

	for _, name := range files {
		pg, err := p.parseFile(fsys, name)
		if err != nil {
			report.Rejected = append(report.Rejected, Rejection{Ref: name, Reason: err.Error()})
			p.log.Warn("rejected page file", zap.String("file", name), zap.String("reason", err.Error()))
			continue
		}
		accepted = append(accepted, pg)
	}

	for start := 0; start < len(accepted); start += batchSize {
		end := min(start+batchSize, len(accepted))
		n, err := p.ingestBatch(ctx, accepted[start:end])
		report.Accepted += n
		if err != nil {
			return report, fmt.Errorf("ingest batch [%d:%d]: %w", start, end, err)
		}
	}

	p.log.Info("ingestion complete",
		zap.Int("accepted", report.Accepted),
		zap.Int("rejected", len(report.Rejected)))

	return report, nil
}

// ingestBatch embeds and writes one batch, returning how many pages actually
// reached the store. The report must reflect real writes even when a mid-batch
// failure aborts the run.
func (p *Pipeline) ingestBatch(ctx context.Context, pages []page.Page) (int, error) {
	texts := make([]string, len(pages))
	for i := range pages {
		texts[i] = pages[i].SearchableText()
	}

	res, err := p.embed.BatchEmbed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed documents: %w", err)
	}
	domain.UsageFromContext(ctx).AddEmbeddingTokens(res.TotalTokens)

	for i := range pages {
		if err := p.writer.Upsert(ctx, pages[i], res.Embeddings[i]); err != nil {
			return i, fmt.Errorf("upsert %q: %w", pages[i].ID(), err)
		}
	}
	return len(pages), nil
}

func (p *Pipeline) parseFile(fsys fs.FS, name string) (page.Page, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return page.Page{}, fmt.Errorf("read file: %w", err)
	}

	var pf pageFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return page.Page{}, fmt.Errorf("malformed JSON: %w", err)
	}

	id := strings.TrimSuffix(path.Base(name), ".json")
	pg, err := page.New(id, pf.Title, pf.State, pf.Date, pf.PageNumber, pf.Articles)
	if err != nil {
		return page.Page{}, fmt.Errorf("missing metadata: %w", err)
	}

	if !hasText(pf.Articles) {
		return page.Page{}, fmt.Errorf("page has no headlines or article text")
	}

	return pg, nil
}

func hasText(articles []page.Article) bool {
	for _, a := range articles {
		if strings.TrimSpace(a.Headline) != "" || strings.TrimSpace(a.Body) != "" {
			return true
		}
	}
	return false
}

// listPageFiles returns every *.json path under fsys in lexical order.
// fs.WalkDir visits entries lexically, which makes ingestion order stable.
func listPageFiles(fsys fs.FS) ([]string, error) {
	var files []string
	err := fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(name, ".json") {
			files = append(files, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
