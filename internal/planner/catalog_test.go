package planner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogMeals(t *testing.T) {
	t.Run("FillsQuotaWithVariations", func(t *testing.T) {
		meals := CatalogMeals(MealPlanRequest{PlanType: "Quick Meals", MealsPerDay: 2, PeopleCount: 3})
		require.Len(t, meals, 14)
		assert.Equal(t, "15-Minute Stir Fry", meals[0].Name)
		assert.Equal(t, "Quick Chicken Quesadillas", meals[1].Name)
		assert.Equal(t, "15-Minute Stir Fry (Variation 2)", meals[2].Name)
		assert.Equal(t, "Quick Chicken Quesadillas (Variation 7)", meals[13].Name)
		for _, m := range meals {
			assert.Equal(t, 3, m.Servings)
		}
	})

	t.Run("UnknownThemeUsesHealthyMeals", func(t *testing.T) {
		meals := CatalogMeals(MealPlanRequest{PlanType: "martian cuisine", MealsPerDay: 1, PeopleCount: 2})
		require.Len(t, meals, 7)
		assert.Equal(t, "Quinoa Buddha Bowl", meals[0].Name)
		assert.Equal(t, "Quinoa Buddha Bowl (Variation 2)", meals[3].Name)
		assert.Equal(t, "2 salmon fillets", meals[1].Ingredients[0])
		assert.Equal(t, "2 chicken breasts", meals[2].Ingredients[0])
	})

	t.Run("CookTimesRespectSkillRange", func(t *testing.T) {
		for _, skill := range SkillLevels {
			lo, hi := skill.TimeRange()
			meals := CatalogMeals(MealPlanRequest{PlanType: "pasta dishes", MealsPerDay: 1, PeopleCount: 2, SkillLevel: skill})
			for _, m := range meals {
				assert.GreaterOrEqual(t, m.CookTime, lo, "%s %s", skill, m.Name)
				assert.LessOrEqual(t, m.CookTime, hi, "%s %s", skill, m.Name)
				assert.Equal(t, skill, m.Difficulty)
			}
		}
	})

	t.Run("TemplateFloorWins", func(t *testing.T) {
		meals := CatalogMeals(MealPlanRequest{PlanType: "healthy meals", MealsPerDay: 1, PeopleCount: 2, SkillLevel: SkillEasy})
		assert.Equal(t, 25, meals[0].CookTime)
		assert.Equal(t, 30, meals[1].CookTime)
		assert.Equal(t, 35, meals[2].CookTime)
	})

	t.Run("NoSkillKeepsTemplateDifficulty", func(t *testing.T) {
		meals := CatalogMeals(MealPlanRequest{PlanType: "pasta dishes", MealsPerDay: 1, PeopleCount: 2})
		assert.Equal(t, SkillMedium, meals[0].Difficulty)
		assert.Equal(t, 20, meals[0].CookTime)
		assert.Equal(t, SkillHard, meals[3].Difficulty)
		assert.Equal(t, 45, meals[3].CookTime)
	})

	t.Run("QuickMealsIgnoreSkill", func(t *testing.T) {
		meals := CatalogMeals(MealPlanRequest{PlanType: "quick meals", MealsPerDay: 1, PeopleCount: 2, SkillLevel: SkillHard})
		assert.Equal(t, 15, meals[0].CookTime)
		assert.Equal(t, SkillEasy, meals[0].Difficulty)
	})

	t.Run("TemplatesAreNotShared", func(t *testing.T) {
		meals := CatalogMeals(MealPlanRequest{PlanType: "pasta dishes", MealsPerDay: 1, PeopleCount: 2})
		meals[0].Ingredients[0] = "changed"
		again := CatalogMeals(MealPlanRequest{PlanType: "pasta dishes", MealsPerDay: 1, PeopleCount: 2})
		assert.Equal(t, "1 lb spaghetti", again[0].Ingredients[0])
	})
}

func TestCatalogMeal(t *testing.T) {
	meal := CatalogMeal(MealPlanRequest{PlanType: "quick meals", PeopleCount: 5})
	assert.True(t,
		strings.HasPrefix(meal.Name, "15-Minute Stir Fry") || strings.HasPrefix(meal.Name, "Quick Chicken Quesadillas"),
		"unexpected meal %q", meal.Name)
	assert.Equal(t, 5, meal.Servings)
	assert.NotEmpty(t, meal.Ingredients)
}
