package memory

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// DefaultSearchLimit is the number of results returned when the caller
// passes a non-positive limit.
const DefaultSearchLimit = 5

// Retriever answers "top-K entries most similar to this query" by
// brute-force cosine ranking over the user's full collection. Linear
// scan is fine at personal-journal scale; an ANN index can replace it
// behind the same Search contract (see store/chromem).
type Retriever struct {
	store    Store
	embedder Embedder
	logger   *zap.Logger
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithRetrieverLogger sets the logger. Defaults to a no-op logger.
func WithRetrieverLogger(l *zap.Logger) RetrieverOption {
	return func(r *Retriever) {
		r.logger = l
	}
}

// NewRetriever creates a Retriever over the given store and embedder.
// The embedder must be the same one the store appends with, or scores
// are meaningless.
func NewRetriever(store Store, embedder Embedder, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		store:    store,
		embedder: embedder,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Search returns up to limit entries ranked by descending cosine
// similarity to query, optionally restricted by filters. Equal scores
// keep storage order (oldest first), so results are deterministic.
// Fewer matching entries than limit is not an error.
func (r *Retriever) Search(ctx context.Context, userID, query string, limit int, filters *Filters) ([]SearchResult, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	entries, err := r.store.LoadAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}

	results := make([]SearchResult, 0, len(entries))
	for _, e := range entries {
		if !filters.Match(e.Metadata) {
			continue
		}
		results = append(results, SearchResult{
			Entry:      e,
			Similarity: Cosine(queryVec, e.Embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if len(results) > limit {
		results = results[:limit]
	}

	r.logger.Debug("memory search",
		zap.String("user_id", userID),
		zap.Int("scanned", len(entries)),
		zap.Int("returned", len(results)))

	return results, nil
}
