package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gazette/internal/db"
	"github.com/kailas-cloud/gazette/internal/domain"
	"github.com/kailas-cloud/gazette/internal/domain/page"
	"github.com/kailas-cloud/gazette/internal/domain/search/filter"
	"github.com/kailas-cloud/gazette/internal/domain/search/result"
)

const (
	// IndexName is the FT index over page documents.
	IndexName = domain.KeyPrefix + "pages:idx"

	keyPrefix = domain.KeyPrefix + "pages:"

	// dimKey lives outside keyPrefix so the FT index never tries to ingest
	// the plain-string marker as a page document.
	dimKey = domain.KeyPrefix + "meta:pages_dim"

	defaultHNSWM           = 16
	defaultHNSWEFConstruct = 200
)

// Repository stores newspaper pages with their embedding vectors and serves
// filtered KNN retrieval over them. Pages live as RedisJSON documents under
// gazette:pages:<id>; the FT index projects the metadata and vector fields.
type Repository struct {
	store store
	log   *zap.Logger
}

// NewRepository creates a page repository over the given store.
func NewRepository(s store, log *zap.Logger) *Repository {
	return &Repository{store: s, log: log}
}

// EnsureReady creates the vector index for the given embedding dimension if it
// does not exist yet. Once created, the dimension is pinned: a different dim on
// a later call means the embedding model changed and the store must be reset
// first.
func (r *Repository) EnsureReady(ctx context.Context, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("embedding dimension must be positive: %w", domain.ErrInvalidArgument)
	}

	stored, err := r.storedDim(ctx)
	if err != nil {
		return fmt.Errorf("read dimension marker: %w", err)
	}
	if stored != 0 && stored != dim {
		return fmt.Errorf("index built for dim %d, got %d (reset required): %w",
			stored, dim, domain.ErrVectorDimMismatch)
	}

	exists, err := r.store.IndexExists(ctx, IndexName)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if !exists {
		if err := r.store.CreateIndex(ctx, indexDefinition(dim)); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
		r.log.Info("created vector index", zap.String("index", IndexName), zap.Int("dim", dim))
	}

	if stored == 0 {
		if err := r.store.Set(ctx, dimKey, []byte(strconv.Itoa(dim))); err != nil {
			return fmt.Errorf("write dimension marker: %w", err)
		}
	}

	return nil
}

// Upsert writes a page document keyed by its ID. Re-upserting the same ID
// overwrites the previous document; the write replaces the whole JSON root so
// there is no partial-update state.
func (r *Repository) Upsert(ctx context.Context, p page.Page, vector []float32) error {
	stored, err := r.storedDim(ctx)
	if err != nil {
		return fmt.Errorf("read dimension marker: %w", err)
	}
	if stored != 0 && len(vector) != stored {
		return fmt.Errorf("vector has dim %d, index expects %d: %w",
			len(vector), stored, domain.ErrVectorDimMismatch)
	}

	doc := buildPageDoc(&p, vector)
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal page document: %w", err)
	}

	if err := r.store.JSONSet(ctx, keyPrefix+p.ID(), "$", data); err != nil {
		return fmt.Errorf("store page %q: %w", p.ID(), err)
	}
	return nil
}

// SearchKNN returns up to k pages most similar to the query vector, honoring
// the metadata filter before the K cut. An uninitialized store yields an empty
// result, not an error.
func (r *Repository) SearchKNN(ctx context.Context, vector []float32, k int, f filter.Filter) ([]result.Result, error) {
	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    IndexName,
		Filter:       f,
		Vector:       vector,
		K:            k,
		ReturnFields: []string{"__vector_score", "$"},
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return []result.Result{}, nil
		}
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := make([]result.Result, 0, len(res.Entries))
	for _, entry := range res.Entries {
		raw, ok := entry.Fields["$"]
		if !ok {
			r.log.Warn("search hit without document payload", zap.String("key", entry.Key))
			continue
		}
		var doc pageDoc
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			r.log.Warn("skipping malformed page document",
				zap.String("key", entry.Key), zap.Error(err))
			continue
		}
		id := strings.TrimPrefix(entry.Key, keyPrefix)
		results = append(results, result.New(id, entry.Score, doc.toPage(id)))
	}

	return result.Ranked(results), nil
}

// Get returns a single page by ID.
func (r *Repository) Get(ctx context.Context, id string) (page.Page, error) {
	raw, err := r.store.JSONGet(ctx, keyPrefix+id, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return page.Page{}, fmt.Errorf("page %q: %w", id, domain.ErrDocumentNotFound)
		}
		return page.Page{}, fmt.Errorf("get page %q: %w", id, err)
	}

	doc, err := parseJSONGetResult(raw)
	if err != nil {
		return page.Page{}, fmt.Errorf("parse page %q: %w", id, err)
	}
	return doc.toPage(id), nil
}

// Count returns the number of indexed pages. Zero before first ingestion.
func (r *Repository) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, IndexName, "*")
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("count pages: %w", err)
	}
	return n, nil
}

// DeleteAll drops the index, deletes every page document and clears the
// dimension marker, returning the store to its uninitialized state.
func (r *Repository) DeleteAll(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, IndexName); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index: %w", err)
	}

	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("scan page keys: %w", err)
	}
	for _, key := range keys {
		if err := r.store.Del(ctx, key); err != nil {
			return fmt.Errorf("delete %q: %w", key, err)
		}
	}

	if err := r.store.Del(ctx, dimKey); err != nil {
		return fmt.Errorf("clear dimension marker: %w", err)
	}

	r.log.Info("archive reset", zap.Int("deleted", len(keys)))
	return nil
}

// storedDim reads the pinned index dimension; 0 means uninitialized.
func (r *Repository) storedDim(ctx context.Context) (int, error) {
	raw, err := r.store.Get(ctx, dimKey)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	dim, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, fmt.Errorf("malformed dimension marker %q: %w", raw, err)
	}
	return dim, nil
}

func indexDefinition(dim int) *db.IndexDefinition {
	return &db.IndexDefinition{
		Name:     IndexName,
		Prefixes: []string{keyPrefix},
		Fields: []db.IndexField{
			{Name: "$.title", Alias: "title", Type: db.IndexFieldTag},
			{Name: "$.state", Alias: "state", Type: db.IndexFieldTag},
			{Name: "$.date", Alias: "date", Type: db.IndexFieldTag},
			{Name: "$.year", Alias: "year", Type: db.IndexFieldNumeric},
			{Name: "$.page", Alias: "page", Type: db.IndexFieldNumeric},
			{Name: "$.article_count", Alias: "article_count", Type: db.IndexFieldNumeric},
			{
				Name:              "$.__vector",
				Alias:             "vector",
				Type:              db.IndexFieldVector,
				VectorDim:         dim,
				VectorDistance:    db.DistanceCosine,
				VectorM:           defaultHNSWM,
				VectorEFConstruct: defaultHNSWEFConstruct,
			},
		},
	}
}
