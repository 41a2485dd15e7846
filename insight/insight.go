// Package insight answers questions about a user's history by
// retrieval-augmented generation: retrieve the most relevant memory
// entries, ground a prompt in them, and delegate the wording to the
// text-generation collaborator. Generation and parse failures never
// escape as errors; the engine degrades to fixed outputs so a flaky
// provider lowers answer quality, not endpoint availability.
package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aetherlabs/aether-go/genai"
	"github.com/aetherlabs/aether-go/memory"
)

const (
	// NoHistoryMessage is returned when a user has no relevant entries
	// yet. It is an expected steady-state answer for new users, not an
	// error, and the generator is not called.
	NoHistoryMessage = "I don't have enough historical data about you yet. Keep using Aether to build your memory!"

	// UnavailableMessage is returned when the generator fails or times
	// out while answering an insight query.
	UnavailableMessage = "I couldn't generate an insight right now. Your history is safe - ask again in a moment."
)

// Defaults for the engine's tunables.
const (
	DefaultTopK         = 10
	DefaultLookbackDays = 90
)

// PatternReport is the fixed-shape result of pattern analysis.
type PatternReport struct {
	Patterns        []string `json:"patterns"`
	SuccessFactors  []string `json:"successFactors"`
	Warnings        []string `json:"warnings"`
	Recommendations []string `json:"recommendations"`
}

// FallbackReport is the report returned when the generator fails or
// its response holds no parseable JSON.
func FallbackReport() *PatternReport {
	return &PatternReport{
		Patterns:        []string{"Insufficient data for pattern analysis"},
		SuccessFactors:  []string{},
		Warnings:        []string{},
		Recommendations: []string{"Continue logging to build pattern history"},
	}
}

// Searcher is the retrieval capability the engine composes.
// Satisfied by memory.Retriever.
type Searcher interface {
	Search(ctx context.Context, userID, query string, limit int, filters *memory.Filters) ([]memory.SearchResult, error)
}

// Loader is the full-scan capability pattern analysis needs.
// Satisfied by any memory.Store.
type Loader interface {
	LoadAll(ctx context.Context, userID string) ([]memory.Entry, error)
}

// Config holds the engine's tunables.
type Config struct {
	// TopK is how many entries ground an insight answer.
	TopK int

	// LookbackDays is the pattern-analysis window when the caller
	// passes a non-positive day count.
	LookbackDays int
}

// Engine composes retrieval with text generation.
type Engine struct {
	retriever Searcher
	store     Loader
	gen       genai.Generator
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig overrides the default tunables.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		if cfg.TopK > 0 {
			e.cfg.TopK = cfg.TopK
		}
		if cfg.LookbackDays > 0 {
			e.cfg.LookbackDays = cfg.LookbackDays
		}
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// withClock overrides the wall clock, for tests.
func withClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an insight engine.
func New(retriever Searcher, store Loader, gen genai.Generator, opts ...Option) *Engine {
	e := &Engine{
		retriever: retriever,
		store:     store,
		gen:       gen,
		cfg:       Config{TopK: DefaultTopK, LookbackDays: DefaultLookbackDays},
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GetInsight answers query grounded in the user's most relevant
// entries. Storage errors propagate; generation errors degrade to
// UnavailableMessage.
func (e *Engine) GetInsight(ctx context.Context, userID, query string) (string, error) {
	results, err := e.retriever.Search(ctx, userID, query, e.cfg.TopK, nil)
	if err != nil {
		return "", fmt.Errorf("search memories: %w", err)
	}

	if len(results) == 0 {
		return NoHistoryMessage, nil
	}

	var block strings.Builder
	for i, r := range results {
		if i > 0 {
			block.WriteString("\n\n")
		}
		fmt.Fprintf(&block, "[%d] %s (%s): %s",
			i+1, r.Entry.Metadata.Date, r.Entry.Metadata.Type, r.Entry.Content)
	}

	prompt := fmt.Sprintf(`You are a life coach with long-term memory about the user.

Historical context:
%s

Current question: %s

Ground your answer in the historical entries above, referencing specific
past entries when relevant, and give one specific, actionable insight.`,
		block.String(), query)

	text, err := e.gen.Generate(ctx, prompt)
	if err != nil {
		e.logger.Warn("insight generation failed",
			zap.String("user_id", userID), zap.Error(err))
		return UnavailableMessage, nil
	}
	return text, nil
}

// AnalyzePatterns scans the user's entries of one type over the last
// days (default LookbackDays) and asks the generator for a structured
// report. This is a time-window scan in storage order, not a
// similarity search. Storage errors propagate; generation and parse
// failures degrade to FallbackReport.
func (e *Engine) AnalyzePatterns(ctx context.Context, userID string, entryType memory.EntryType, days int) (*PatternReport, error) {
	if days <= 0 {
		days = e.cfg.LookbackDays
	}
	cutoff := e.now().AddDate(0, 0, -days)

	entries, err := e.store.LoadAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load memories: %w", err)
	}

	var lines []string
	for _, entry := range entries {
		if entry.Metadata.Type != entryType {
			continue
		}
		// The logical date is caller-supplied and may be backdated
		// relative to Timestamp; the window filters on it as stored.
		date, err := time.Parse("2006-01-02", entry.Metadata.Date)
		if err != nil || date.Before(cutoff) {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", entry.Metadata.Date, entry.Content))
	}

	prompt := fmt.Sprintf(`Analyze the following %s data from the last %d days.

%s

Identify key trends, conditions that correlate with better performance,
patterns that precede struggles, and specific actions to take.

Return ONLY valid JSON:
{"patterns":[],"successFactors":[],"warnings":[],"recommendations":[]}`,
		entryType, days, strings.Join(lines, "\n"))

	out, err := e.gen.Generate(ctx, prompt)
	if err != nil {
		e.logger.Warn("pattern generation failed",
			zap.String("user_id", userID), zap.Error(err))
		return FallbackReport(), nil
	}

	raw, ok := genai.ExtractJSON(out)
	if !ok {
		e.logger.Warn("pattern response held no JSON", zap.String("user_id", userID))
		return FallbackReport(), nil
	}

	var report PatternReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		e.logger.Warn("pattern response unparseable",
			zap.String("user_id", userID), zap.Error(err))
		return FallbackReport(), nil
	}
	return &report, nil
}
