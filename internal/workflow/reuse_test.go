package workflow

import (
	"context"
	"fmt"
	"testing"

	"kitchen-ai/internal/history"
	"kitchen-ai/internal/planner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func savedEntry(mealsPerDay int) history.Entry {
	var meals []string
	for i := 0; i < mealsPerDay*7; i++ {
		meals = append(meals, fmt.Sprintf("%s: Dish %d", MealLabel(i, mealsPerDay), i+1))
	}
	return history.Entry{ID: "saved-1", Title: "Week of 12/2/2024", Meals: meals}
}

func TestReuseEntry(t *testing.T) {
	ctx := context.Background()

	t.Run("LoadsMenuReview", func(t *testing.T) {
		e, store, _ := newTestEngine(t, &fakeGenerator{})

		st, err := e.ReuseEntry(ctx, chat, savedEntry(2))
		require.NoError(t, err)
		require.IsType(t, ReviewingMenu{}, st)

		week := st.(ReviewingMenu).Week
		assert.Equal(t, ReusedPlanType, week.PlanType)
		assert.Equal(t, 2, week.MealsPerDay)
		assert.Len(t, week.Meals, 14)
		assert.Equal(t, "Dish 1", week.Meals[0].Name)
		assert.Equal(t, "Dish 14", week.Meals[13].Name)
		assert.Equal(t, 2, week.Meals[0].Servings)
		assert.Equal(t, planner.SkillMedium, week.Meals[0].Difficulty)
		assert.Equal(t, weekStart, week.WeekStartDate)
		assert.Equal(t, StepMenuReview, store.step(t, chat))

		// The reused menu carries on like a generated one.
		st, err = e.AcceptMenu(ctx, chat)
		require.NoError(t, err)
		assert.NotEmpty(t, WeekOf(st).ShoppingList)
	})

	t.Run("ReplacesWeekInProgress", func(t *testing.T) {
		e, _, _ := newTestEngine(t, &fakeGenerator{})
		toExecution(t, e)

		st, err := e.ReuseEntry(ctx, chat, savedEntry(1))
		require.NoError(t, err)
		assert.Len(t, st.(ReviewingMenu).Week.Meals, 7)
	})

	t.Run("SummaryWithoutLabelKeepsWholeText", func(t *testing.T) {
		assert.Equal(t, "Toast", reusedMeal("Toast").Name)
		assert.Equal(t, "Soup: Leek", reusedMeal("Monday Lunch: Soup: Leek").Name)
	})

	t.Run("RejectsPartialWeeks", func(t *testing.T) {
		e, _, _ := newTestEngine(t, &fakeGenerator{})
		_, err := e.Start(ctx, chat)
		require.NoError(t, err)

		for _, entry := range []history.Entry{
			{ID: "empty"},
			{ID: "short", Meals: []string{"Monday Breakfast: Oats", "Monday Lunch: Soup"}},
			savedEntry(5),
		} {
			st, err := e.ReuseEntry(ctx, chat, entry)
			assert.ErrorIs(t, err, ErrInvalidSelection, entry.ID)
			assert.Equal(t, ChoosingPlanType{}, st, entry.ID)
		}
	})

	t.Run("DropsRefreshInFlight", func(t *testing.T) {
		started := make(chan struct{})
		gen := &fakeGenerator{one: func(ctx context.Context, _ planner.MealPlanRequest) (planner.MealResult, error) {
			close(started)
			<-ctx.Done()
			return planner.MealResult{Meal: freshMeal("Stale Stew")}, nil
		}}
		e, _, _ := newTestEngine(t, gen)
		toMenu(t, e)

		refreshErr := make(chan error, 1)
		go func() {
			_, err := e.RefreshMeal(ctx, chat, 0)
			refreshErr <- err
		}()
		<-started

		_, err := e.ReuseEntry(ctx, chat, savedEntry(1))
		require.NoError(t, err)
		assert.ErrorIs(t, <-refreshErr, ErrStaleResult)

		st, err := e.State(ctx, chat)
		require.NoError(t, err)
		assert.Equal(t, "Dish 1", WeekOf(st).Meals[0].Name)
	})
}
