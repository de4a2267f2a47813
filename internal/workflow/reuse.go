package workflow

import (
	"context"
	"fmt"
	"strings"

	"kitchen-ai/internal/history"
	"kitchen-ai/internal/planner"
)

// ReusedPlanType is the theme of a week loaded back from history.
const ReusedPlanType = "reused menu"

const reusedPeopleCount = 2

// reusedMeal stands in for a saved meal; history keeps only its name.
func reusedMeal(summary string) planner.GeneratedMeal {
	name := summary
	if _, after, ok := strings.Cut(summary, ": "); ok && after != "" {
		name = after
	}
	return planner.GeneratedMeal{
		Name:         name,
		Description:  "Reused from saved menu",
		CookTime:     30,
		Servings:     reusedPeopleCount,
		Difficulty:   planner.SkillMedium,
		Ingredients:  []string{"Various ingredients"},
		Instructions: []string{"Follow original recipe"},
	}
}

// ReuseEntry loads a saved week back into menu review, whatever the session
// was doing. The entry must hold a whole week: a multiple of seven meals,
// at most MaxMealsPerDay a day.
func (e *Engine) ReuseEntry(ctx context.Context, key string, entry history.Entry) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.session(ctx, key)
	if err != nil {
		return nil, err
	}
	n := len(entry.Meals)
	if n == 0 || n%len(DayNames) != 0 || n/len(DayNames) > e.opts.MaxMealsPerDay {
		return s.state, fmt.Errorf("%w: saved week has %d meals", ErrInvalidSelection, n)
	}

	meals := make([]planner.GeneratedMeal, n)
	for i, summary := range entry.Meals {
		meals[i] = reusedMeal(summary)
	}
	week := &WeekPlan{
		PlanType:      ReusedPlanType,
		MealsPerDay:   n / len(DayNames),
		PeopleCount:   reusedPeopleCount,
		SkillLevel:    planner.SkillMedium,
		Meals:         meals,
		WeekStartDate: e.opts.Now().UTC(),
	}

	// Anything still generating belongs to the week being replaced.
	s.cancelAll()
	s.epoch++
	e.commit(ctx, key, s, ReviewingMenu{Week: week})
	return s.state, nil
}
