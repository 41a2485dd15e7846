package genai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGenerator returns a canned response or error and records prompts.
type stubGenerator struct {
	response string
	err      error
	prompts  []string
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, true},
		{"prose wrapped", `Here you go: {"a":1} Hope that helps!`, `{"a":1}`, true},
		{"markdown fence", "```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{"nested braces", `note {"a":{"b":2}} end`, `{"a":{"b":2}}`, true},
		{"no object", "sorry, I cannot do that", "", false},
		{"only open brace", "{oops", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSON(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStructureDailySummary(t *testing.T) {
	gen := &stubGenerator{response: `Sure! {"hourly_activities":[{"hour":9,"activity":"deep work"}],` +
		`"meals":[{"time":"12:30 PM","food":"salad","estimated_calories":400}],` +
		`"productivity_score":8,"notable_events":["shipped release"]}`}
	coach := NewCoach(gen)

	day, err := coach.StructureDailySummary(context.Background(),
		"worked all morning, salad for lunch, shipped the release",
		[]string{"ship the release"})
	require.NoError(t, err)

	require.Len(t, day.HourlyActivities, 1)
	assert.Equal(t, 9, day.HourlyActivities[0].Hour)
	assert.Equal(t, 8, day.ProductivityScore)
	assert.Equal(t, []string{"shipped release"}, day.NotableEvents)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "worked all morning")
	assert.Contains(t, gen.prompts[0], "1. ship the release")
}

func TestStructuredOpsMalformedOutput(t *testing.T) {
	gen := &stubGenerator{response: "I would rather write a poem."}
	coach := NewCoach(gen)

	_, err := coach.StructureDailySummary(context.Background(), "a day", nil)
	assert.ErrorIs(t, err, ErrMalformedOutput)

	gen.response = `{"rating": "seven"}`
	_, err = coach.RateDailyPerformance(context.Background(), &StructuredDay{}, nil)
	assert.ErrorIs(t, err, ErrMalformedOutput)
}

func TestGenerateGoals(t *testing.T) {
	gen := &stubGenerator{response: `{"main_goal":"run a marathon",` +
		`"weekly_goals":[{"week":1,"title":"base","description":"easy runs"}],` +
		`"daily_tasks_week1":[{"day":1,"tasks":["run 5k"]}]}`}
	coach := NewCoach(gen)

	goals, err := coach.GenerateGoals(context.Background(), "run a marathon", "2026-12-01")
	require.NoError(t, err)
	assert.Equal(t, "run a marathon", goals.MainGoal)
	require.Len(t, goals.DailyTasksWeek1, 1)
	assert.Equal(t, []string{"run 5k"}, goals.DailyTasksWeek1[0].Tasks)
}

func TestGenerateGoalsProviderError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("rate limited")}
	coach := NewCoach(gen)

	_, err := coach.GenerateGoals(context.Background(), "run a marathon", "2026-12-01")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedOutput)
}

func TestGenerateProactiveReminder(t *testing.T) {
	gen := &stubGenerator{response: `"Get back on the mat today."`}
	coach := NewCoach(gen)

	out := coach.GenerateProactiveReminder(context.Background(), "yoga", "too tired", 2)
	assert.Equal(t, "Get back on the mat today.", out)
}

func TestGenerateProactiveReminderFallback(t *testing.T) {
	gen := &stubGenerator{err: errors.New("provider down")}
	coach := NewCoach(gen)

	out := coach.GenerateProactiveReminder(context.Background(), "yoga", "too tired", 2)
	assert.Equal(t, `Time to catch up on "yoga"! Small steps lead to big progress.`, out)
}

func TestGenerateWeeklyReviewFallback(t *testing.T) {
	gen := &stubGenerator{err: errors.New("provider down")}
	coach := NewCoach(gen)

	out := coach.GenerateWeeklyReview(context.Background(), WeekSummary{
		DailyRatings: []int{7, 8}, GoalsCompleted: 3, GoalsPlanned: 5,
	})
	assert.Equal(t, "Weekly review generation temporarily unavailable. Please check back later.", out)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
