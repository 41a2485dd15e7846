package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// StructuredDay is a daily summary broken into structured data.
type StructuredDay struct {
	HourlyActivities []HourlyActivity `json:"hourly_activities"`
	Meals            []Meal           `json:"meals"`
	ProductivityScore int             `json:"productivity_score"`
	NotableEvents    []string         `json:"notable_events"`
}

// HourlyActivity is one hour of a structured day.
type HourlyActivity struct {
	Hour     int    `json:"hour"`
	Activity string `json:"activity"`
}

// Meal is one food mention extracted from a daily summary.
type Meal struct {
	Time              string `json:"time"`
	Food              string `json:"food"`
	EstimatedCalories int    `json:"estimated_calories,omitempty"`
}

// DailyRating is the model's 1-10 review of a day.
type DailyRating struct {
	Rating       int      `json:"rating"`
	Feedback     string   `json:"feedback"`
	Achievements []string `json:"achievements"`
	Improvements []string `json:"improvements"`
	Question     string   `json:"question,omitempty"`
}

// GoalHierarchy breaks a main goal into weekly milestones and the
// first week's daily tasks.
type GoalHierarchy struct {
	MainGoal        string       `json:"main_goal"`
	WeeklyGoals     []WeeklyGoal `json:"weekly_goals"`
	DailyTasksWeek1 []DayTasks   `json:"daily_tasks_week1"`
}

// WeeklyGoal is one milestone in a goal hierarchy.
type WeeklyGoal struct {
	Week        int    `json:"week"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// DayTasks is one day's task list in a goal hierarchy.
type DayTasks struct {
	Day   int      `json:"day"`
	Tasks []string `json:"tasks"`
}

// WeekSummary aggregates a week for review generation.
type WeekSummary struct {
	DailyRatings   []int
	GoalsCompleted int
	GoalsPlanned   int
	TotalWorkHours float64
	ActivityCount  int
}

// Coach wraps a Generator with the typed coaching operations: daily
// summary structuring, performance rating, goal breakdown, reminders
// and weekly reviews. Structured operations return ErrMalformedOutput
// when the model's answer holds no parseable JSON; the free-text ones
// degrade to fixed fallback lines instead of surfacing provider errors.
type Coach struct {
	gen    Generator
	logger *zap.Logger
}

// CoachOption configures a Coach.
type CoachOption func(*Coach)

// WithCoachLogger sets the logger. Defaults to a no-op logger.
func WithCoachLogger(l *zap.Logger) CoachOption {
	return func(c *Coach) {
		c.logger = l
	}
}

// NewCoach creates a Coach over gen.
func NewCoach(gen Generator, opts ...CoachOption) *Coach {
	c := &Coach{gen: gen, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StructureDailySummary extracts hourly activities, meals, a
// productivity score and notable events from free-form daily text.
func (c *Coach) StructureDailySummary(ctx context.Context, rawInput string, dailyTasks []string) (*StructuredDay, error) {
	var sb strings.Builder
	sb.WriteString("Analyze the user's daily summary and extract structured data.\n\n")
	sb.WriteString("Daily summary:\n\"")
	sb.WriteString(rawInput)
	sb.WriteString("\"\n")
	if len(dailyTasks) > 0 {
		sb.WriteString("\nPlanned tasks:\n")
		for i, t := range dailyTasks {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, t)
		}
	}
	sb.WriteString(`
Return ONLY valid JSON with this shape:
{"hourly_activities":[{"hour":9,"activity":"..."}],"meals":[{"time":"12:30 PM","food":"...","estimated_calories":400}],"productivity_score":7,"notable_events":["..."]}

productivity_score is 1-10 based on how much was accomplished. No markdown, no explanations.`)

	var day StructuredDay
	if err := c.generateInto(ctx, sb.String(), &day); err != nil {
		return nil, err
	}
	return &day, nil
}

// RateDailyPerformance rates a structured day against the planned
// tasks. When the rating falls below 5 the model is asked to include
// one direct question about the biggest obstacle.
func (c *Coach) RateDailyPerformance(ctx context.Context, day *StructuredDay, dailyTasks []string) (*DailyRating, error) {
	activities, err := json.Marshal(day.HourlyActivities)
	if err != nil {
		return nil, fmt.Errorf("encode activities: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("Review the user's day and rate their performance.\n\n")
	fmt.Fprintf(&sb, "Activities: %s\n", activities)
	if len(dailyTasks) > 0 {
		sb.WriteString("Planned tasks:\n")
		for i, t := range dailyTasks {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, t)
		}
	}
	if len(day.NotableEvents) > 0 {
		fmt.Fprintf(&sb, "Notable events: %s\n", strings.Join(day.NotableEvents, ", "))
	}
	sb.WriteString(`
Rate 1-10 on goal adherence and productivity, list 2-3 achievements and
1-2 improvements, and if the rating is below 5 ask ONE direct question
about the biggest obstacle. Keep feedback constructive.

Return ONLY valid JSON:
{"rating":7,"feedback":"...","achievements":["..."],"improvements":["..."],"question":"..."}`)

	var rating DailyRating
	if err := c.generateInto(ctx, sb.String(), &rating); err != nil {
		return nil, err
	}
	return &rating, nil
}

// GenerateGoals breaks a main goal into 4-6 weekly milestones and
// seven daily task lists for week one.
func (c *Coach) GenerateGoals(ctx context.Context, mainGoal, deadline string) (*GoalHierarchy, error) {
	prompt := fmt.Sprintf(`Break the user's main objective into actionable steps.

Main goal: %q
Deadline: %s

Create 4-6 weekly milestone goals leading to the main goal, then break
week 1 into 7 days of specific, achievable tasks.

Return ONLY valid JSON:
{"main_goal":%q,"weekly_goals":[{"week":1,"title":"...","description":"..."}],"daily_tasks_week1":[{"day":1,"tasks":["..."]}]}`,
		mainGoal, deadline, mainGoal)

	var goals GoalHierarchy
	if err := c.generateInto(ctx, prompt, &goals); err != nil {
		return nil, err
	}
	return &goals, nil
}

// GenerateProactiveReminder produces a one-line nudge for a missed
// task. Provider failure degrades to a fixed encouraging line.
func (c *Coach) GenerateProactiveReminder(ctx context.Context, missedTask, reason string, daysInRow int) string {
	prompt := fmt.Sprintf(`Write ONE short motivational reminder (max 140 chars) for a missed task.

Missed task: %q
User's reason: %q
Days missed in a row: %d

Be direct and specific, not judgmental. Return only the reminder text.`,
		missedTask, reason, daysInRow)

	out, err := c.gen.Generate(ctx, prompt)
	if err != nil {
		c.logger.Warn("reminder generation failed", zap.Error(err))
		return fmt.Sprintf("Time to catch up on %q! Small steps lead to big progress.", missedTask)
	}
	return strings.Trim(strings.TrimSpace(out), `"'`)
}

// GenerateWeeklyReview writes a motivational review of the week.
// Provider failure degrades to a fixed line.
func (c *Coach) GenerateWeeklyReview(ctx context.Context, week WeekSummary) string {
	ratings := make([]string, len(week.DailyRatings))
	for i, r := range week.DailyRatings {
		ratings[i] = fmt.Sprintf("%d", r)
	}

	prompt := fmt.Sprintf(`Write a short, personal weekly review in second person.

Daily ratings: %s
Goals completed: %d/%d
Work hours: %.1f
Activity sessions: %d

Cover: overall performance (2-3 sentences), key achievements, 1-2
improvement areas, 2-3 recommendations for next week, and a brief
motivational close.`,
		strings.Join(ratings, ", "), week.GoalsCompleted, week.GoalsPlanned,
		week.TotalWorkHours, week.ActivityCount)

	out, err := c.gen.Generate(ctx, prompt)
	if err != nil {
		c.logger.Warn("weekly review generation failed", zap.Error(err))
		return "Weekly review generation temporarily unavailable. Please check back later."
	}
	return out
}

// generateInto runs the prompt and unmarshals the extracted JSON
// object into out.
func (c *Coach) generateInto(ctx context.Context, prompt string, out any) error {
	resp, err := c.gen.Generate(ctx, prompt)
	if err != nil {
		return err
	}

	raw, ok := ExtractJSON(resp)
	if !ok {
		return fmt.Errorf("%w: no JSON object in response", ErrMalformedOutput)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return nil
}
