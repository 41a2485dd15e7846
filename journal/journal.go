// Package journal is the thin service in front of the memory engine
// for daily summaries: it derives sentiment from the day's rating,
// stamps the logical date, appends the entry, and hands search,
// insight and pattern queries through unchanged.
package journal

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/aetherlabs/aether-go/insight"
	"github.com/aetherlabs/aether-go/memory"
)

// Service wires daily-summary journaling to the memory engine.
type Service struct {
	store     memory.Store
	retriever *memory.Retriever
	insights  *insight.Engine
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// withClock overrides the wall clock, for tests.
func withClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a journal service.
func New(store memory.Store, retriever *memory.Retriever, insights *insight.Engine, opts ...Option) *Service {
	s := &Service{
		store:     store,
		retriever: retriever,
		insights:  insights,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StoreDailySummary appends the day's summary as a journal entry dated
// today. rating, when non-nil, sets the sentiment tag: 7+ positive,
// 4-6 neutral, below 4 negative.
func (s *Service) StoreDailySummary(ctx context.Context, userID, summary string, rating *int) (*memory.Entry, error) {
	meta := memory.Metadata{
		Type: memory.TypeJournal,
		Date: s.now().UTC().Format("2006-01-02"),
	}
	if rating != nil {
		meta.Sentiment = SentimentForRating(*rating)
	}

	entry, err := s.store.Append(ctx, userID, summary, meta)
	if err != nil {
		return nil, err
	}

	s.logger.Info("daily summary stored",
		zap.String("user_id", userID),
		zap.String("entry_id", entry.ID),
		zap.String("date", meta.Date))
	return entry, nil
}

// SearchMemories finds the entries most similar to query.
func (s *Service) SearchMemories(ctx context.Context, userID, query string) ([]memory.SearchResult, error) {
	return s.retriever.Search(ctx, userID, query, memory.DefaultSearchLimit, nil)
}

// GetInsight answers query grounded in the user's history.
func (s *Service) GetInsight(ctx context.Context, userID, query string) (string, error) {
	return s.insights.GetInsight(ctx, userID, query)
}

// AnalyzePatterns reports trends for one entry type over recent days.
func (s *Service) AnalyzePatterns(ctx context.Context, userID string, entryType memory.EntryType, days int) (*insight.PatternReport, error) {
	return s.insights.AnalyzePatterns(ctx, userID, entryType, days)
}

// SentimentForRating maps a 1-10 daily rating to a sentiment tag.
func SentimentForRating(rating int) memory.Sentiment {
	switch {
	case rating >= 7:
		return memory.SentimentPositive
	case rating >= 4:
		return memory.SentimentNeutral
	default:
		return memory.SentimentNegative
	}
}
