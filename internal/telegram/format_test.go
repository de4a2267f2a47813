package telegram

import (
	"testing"
	"time"

	"kitchen-ai/internal/history"
	"kitchen-ai/internal/planner"
	"kitchen-ai/internal/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWeek() *workflow.WeekPlan {
	req := planner.MealPlanRequest{PlanType: "pasta dishes", MealsPerDay: 2, PeopleCount: 2, SkillLevel: planner.SkillEasy}
	meals := planner.CatalogMeals(req)
	meals[0].Name = "Mac_and_cheese"
	return &workflow.WeekPlan{
		PlanType:      req.PlanType,
		MealsPerDay:   req.MealsPerDay,
		PeopleCount:   req.PeopleCount,
		SkillLevel:    req.SkillLevel,
		Meals:         meals,
		ShoppingList:  planner.NewShoppingList([]string{"1 lb spaghetti", "4 large eggs"}),
		WeekStartDate: time.Date(2024, 12, 9, 0, 0, 0, 0, time.UTC),
	}
}

func TestRenderWizardScreens(t *testing.T) {
	text, markup := renderState(workflow.ChoosingPlanType{}, nil)
	assert.Contains(t, text, "What kind of meals")
	require.Len(t, markup.InlineKeyboard, 11)
	assert.Equal(t, "custom|", *markup.InlineKeyboard[10][0].CallbackData)

	_, markup = renderState(workflow.ChoosingMealsPerDay{PlanType: "keto"}, []int{1, 2, 3, 4})
	require.Len(t, markup.InlineKeyboard, 1)
	assert.Equal(t, "meals|4", *markup.InlineKeyboard[0][3].CallbackData)

	_, markup = renderState(workflow.ChoosingPeopleCount{}, nil)
	assert.Len(t, markup.InlineKeyboard, 2)

	text, markup = renderState(workflow.ChoosingSkillLevel{}, nil)
	assert.Contains(t, text, "skill level")
	require.Len(t, markup.InlineKeyboard, 3)
	assert.Equal(t, "Medium: Moderate complexity, 30-60 minutes", markup.InlineKeyboard[1][0].Text)
	assert.Equal(t, "skill|Hard", *markup.InlineKeyboard[2][0].CallbackData)

	text, markup = renderState(workflow.Generating{}, nil)
	assert.Equal(t, generatingText, text)
	assert.Nil(t, markup)
}

func TestFormatMenu(t *testing.T) {
	text, markup := formatMenu(testWeek())

	assert.Contains(t, text, "📅 *Your pasta dishes week*")
	assert.Contains(t, text, "*Monday*\n1. Breakfast: Mac\\_and\\_cheese")
	assert.Contains(t, text, "*Sunday*\n13. Breakfast:")
	// 14 refresh buttons in rows of 7, then accept.
	require.Len(t, markup.InlineKeyboard, 3)
	assert.Equal(t, "refresh|13", *markup.InlineKeyboard[1][6].CallbackData)
	assert.Equal(t, "accept|", *markup.InlineKeyboard[2][0].CallbackData)
}

func TestFormatShoppingList(t *testing.T) {
	w := testWeek()
	w.ShoppingList[1].IsChecked = true
	w.ShoppingList[1].Quantity = "a dozen"

	text, markup := formatShoppingList(w)
	assert.Contains(t, text, "1. ⬜ 1 lb spaghetti\n")
	assert.Contains(t, text, "2. ✅ 4 large eggs (a dozen)")
	assert.Equal(t, "toggle|1", *markup.InlineKeyboard[0][1].CallbackData)
	assert.Equal(t, "startweek|", *markup.InlineKeyboard[1][0].CallbackData)
}

func TestFormatProgress(t *testing.T) {
	w := testWeek()
	p := workflow.Progress{Completed: []int{1}, Ratings: map[int]workflow.MealRating{1: {Rating: 3}}}

	text, markup := formatProgress(w, p)
	assert.Contains(t, text, "Cooking progress:* 1/14")
	assert.Contains(t, text, "✅ 2. Monday Lunch:")
	assert.Contains(t, text, "⭐⭐⭐")

	var callbacks []string
	for _, row := range markup.InlineKeyboard {
		for _, btn := range row {
			callbacks = append(callbacks, *btn.CallbackData)
		}
	}
	assert.Len(t, callbacks, 13)
	assert.NotContains(t, callbacks, "done|1")
}

func TestFormatRecipe(t *testing.T) {
	text := formatRecipe(testWeek(), 1)
	assert.Contains(t, text, "_Monday Lunch_")
	assert.Contains(t, text, "*Ingredients*\n• ")
	assert.Contains(t, text, "*Steps*\n1. ")
}

func TestFormatHistory(t *testing.T) {
	text, markup := formatHistory("Your saved weeks", nil)
	assert.Contains(t, text, "Nothing saved yet")
	assert.Nil(t, markup)

	entries := []history.Entry{
		{ID: "a", Title: "Week of 12/9/2024", Meals: []string{"Monday Breakfast: Oats"}, Favorite: true},
		{ID: "b", Title: "Week of 12/2/2024", Meals: []string{"x", "y"}},
	}
	text, markup = formatHistory("Your saved weeks", entries)
	assert.Contains(t, text, "1. ⭐ Week of 12/9/2024 (1 meals)")
	assert.Contains(t, text, "2. Week of 12/2/2024 (2 meals)")
	assert.Equal(t, "hreuse|b", *markup.InlineKeyboard[1][1].CallbackData)
	assert.Equal(t, "hdel|b", *markup.InlineKeyboard[1][3].CallbackData)

	assert.Contains(t, formatEntry(entries[0]), "• Monday Breakfast: Oats")
}

func TestFormatCompletedWithoutLeftovers(t *testing.T) {
	text, markup := formatCompleted(workflow.WeekCompleted{Week: testWeek()})
	assert.Contains(t, text, "No leftover ingredients")
	assert.NotContains(t, text, "Average rating")
	assert.Equal(t, "save|", *markup.InlineKeyboard[0][0].CallbackData)
}
