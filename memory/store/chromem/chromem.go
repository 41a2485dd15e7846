// Package chromem mirrors memory entries into chromem-go, an embedded
// pure-Go vector database, and serves similarity queries from it. The
// durable log stays in the file store; this index is the drop-in seam
// for when a user's history outgrows the retriever's linear scan.
package chromem

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/aetherlabs/aether-go/memory"
)

// Index wraps a chromem-go database with one collection per user.
type Index struct {
	db          *chromem.DB
	collections map[string]*chromem.Collection
	mu          sync.RWMutex
	logger      *zap.Logger
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(ix *Index) {
		ix.logger = l
	}
}

// New creates an in-memory chromem index.
func New(opts ...Option) (*Index, error) {
	ix := &Index{
		db:          chromem.NewDB(),
		collections: make(map[string]*chromem.Collection),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix, nil
}

// collection returns the per-user collection, creating it on first use
// with double-checked promotion from the read lock.
func (ix *Index) collection(userID string) (*chromem.Collection, error) {
	ix.mu.RLock()
	col, ok := ix.collections[userID]
	ix.mu.RUnlock()
	if ok {
		return col, nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if col, ok := ix.collections[userID]; ok {
		return col, nil
	}

	col, err := ix.db.CreateCollection(fmt.Sprintf("user_%s", userID), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	ix.collections[userID] = col
	return col, nil
}

// Add mirrors an already-stored entry into the user's collection.
func (ix *Index) Add(ctx context.Context, entry *memory.Entry) error {
	col, err := ix.collection(entry.UserID)
	if err != nil {
		return err
	}

	doc := chromem.Document{
		ID:        entry.ID,
		Content:   entry.Content,
		Embedding: entry.Embedding,
		Metadata: map[string]string{
			"user_id":   entry.UserID,
			"type":      string(entry.Metadata.Type),
			"date":      entry.Metadata.Date,
			"sentiment": string(entry.Metadata.Sentiment),
			"timestamp": entry.Timestamp.Format(time.RFC3339Nano),
		},
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add document: %w", err)
	}

	ix.logger.Debug("entry indexed",
		zap.String("user_id", entry.UserID),
		zap.String("entry_id", entry.ID))
	return nil
}

// Search ranks the user's indexed entries by similarity to the query
// embedding. chromem rejects result counts above the collection size,
// so the limit steps down until the query fits; an empty collection is
// an empty result.
func (ix *Index) Search(ctx context.Context, userID string, embedding []float32, limit int) ([]memory.SearchResult, error) {
	col, err := ix.collection(userID)
	if err != nil {
		return nil, err
	}

	var results []chromem.Result
	for n := limit; n >= 1; n-- {
		results, err = col.QueryEmbedding(ctx, embedding, n, nil, nil)
		if err == nil {
			break
		}
		if isTooFewDocsError(err) {
			if n == 1 {
				return nil, nil
			}
			continue
		}
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	out := make([]memory.SearchResult, 0, len(results))
	for _, r := range results {
		entry, err := entryFromResult(r)
		if err != nil {
			ix.logger.Warn("skipping malformed index document",
				zap.String("id", r.ID), zap.Error(err))
			continue
		}
		out = append(out, memory.SearchResult{
			Entry:      entry,
			Similarity: float64(r.Similarity),
		})
	}
	return out, nil
}

// Close releases resources. chromem keeps everything in memory.
func (ix *Index) Close() error {
	return nil
}

func entryFromResult(r chromem.Result) (memory.Entry, error) {
	entryType := memory.EntryType(r.Metadata["type"])
	if !entryType.Valid() {
		return memory.Entry{}, fmt.Errorf("unknown entry type %q", r.Metadata["type"])
	}

	ts, err := time.Parse(time.RFC3339Nano, r.Metadata["timestamp"])
	if err != nil {
		return memory.Entry{}, fmt.Errorf("parse timestamp: %w", err)
	}

	return memory.Entry{
		ID:        r.ID,
		UserID:    r.Metadata["user_id"],
		Content:   r.Content,
		Embedding: r.Embedding,
		Metadata: memory.Metadata{
			Type:      entryType,
			Date:      r.Metadata["date"],
			Sentiment: memory.Sentiment(r.Metadata["sentiment"]),
		},
		Timestamp: ts,
	}, nil
}

// isTooFewDocsError matches chromem's error for nResults larger than
// the collection.
func isTooFewDocsError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "nResults must be") || strings.Contains(msg, "number of documents")
}
