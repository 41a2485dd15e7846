package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrStorageUnavailable indicates the durable medium could not be read or
// written. Store implementations wrap it so callers can test with errors.Is.
var ErrStorageUnavailable = errors.New("memory storage unavailable")

// EntryType classifies what kind of fact an entry records.
type EntryType string

const (
	TypeJournal EntryType = "journal"
	TypeGoal    EntryType = "goal"
	TypeTask    EntryType = "task"
	TypeWorkout EntryType = "workout"
	TypeHabit   EntryType = "habit"
)

// Valid reports whether t is one of the known entry types.
func (t EntryType) Valid() bool {
	switch t {
	case TypeJournal, TypeGoal, TypeTask, TypeWorkout, TypeHabit:
		return true
	}
	return false
}

// Sentiment is an optional mood tag on an entry.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Metadata is the structured tag set attached to an entry.
// Date is a caller-supplied logical calendar day (ISO, e.g. "2026-08-28"),
// coarser than and distinct from Entry.Timestamp.
type Metadata struct {
	Type      EntryType `json:"type"`
	Date      string    `json:"date"`
	Sentiment Sentiment `json:"sentiment,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
}

// Entry is one durable fact about a user. Entries are immutable after
// creation; the per-user collection is append-only.
type Entry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding"`
	Metadata  Metadata  `json:"metadata"`
	Timestamp time.Time `json:"timestamp"`
}

// SearchResult pairs an entry with its similarity to a query.
type SearchResult struct {
	Entry      Entry   `json:"entry"`
	Similarity float64 `json:"similarity"`
}

// Filters restricts a search to entries matching the set fields.
// A zero-value field means no constraint on that field.
type Filters struct {
	Type EntryType
	Date string
}

// Match reports whether the entry's metadata satisfies the filters.
func (f *Filters) Match(m Metadata) bool {
	if f == nil {
		return true
	}
	if f.Type != "" && m.Type != f.Type {
		return false
	}
	if f.Date != "" && m.Date != f.Date {
		return false
	}
	return true
}

// Embedder converts text to a fixed-length unit-normalized vector.
// Implementations: feature.Vectorizer (local, deterministic),
// onnx.Embedder (real model), mock.Embedder (testing).
type Embedder interface {
	// Embed converts a single text to its embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}

// Store is the durable per-user collection backend.
// Implementations must serialize appends per user so concurrent appends
// for the same user never drop an entry.
type Store interface {
	// Append embeds content, builds an entry with a fresh ID and the
	// current timestamp, persists it at the end of the user's
	// collection and returns the stored entry.
	Append(ctx context.Context, userID, content string, meta Metadata) (*Entry, error)

	// LoadAll returns every entry ever stored for the user in storage
	// order, oldest first. A user with no entries yields an empty
	// result, not an error.
	LoadAll(ctx context.Context, userID string) ([]Entry, error)

	// Close releases resources.
	Close() error
}

// NewEntryID returns a fresh entry ID: creation time in unix
// milliseconds plus a random suffix. Unique within a user's collection.
func NewEntryID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("%d_%s", now.UnixMilli(), suffix)
}
