package planner

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
)

const defaultTheme = "healthy meals"

type cookRule int

const (
	// atLeast keeps the skill minimum unless the dish needs longer.
	atLeast cookRule = iota
	// atMost keeps the skill maximum unless the dish is quicker.
	atMost
	// fixed ignores skill entirely, for both time and difficulty.
	fixed
)

type mealTemplate struct {
	name         string
	description  string
	rule         cookRule
	minutes      int
	difficulty   SkillLevel
	ingredients  []string
	instructions []string
}

// {people} in an ingredient is replaced by the requested head count.
var catalog = map[string][]mealTemplate{
	"pasta dishes": {
		{
			name: "Spaghetti Carbonara", description: "Classic Italian pasta with eggs, cheese, and pancetta",
			rule: atLeast, minutes: 20, difficulty: SkillMedium,
			ingredients:  []string{"1 lb spaghetti", "4 large eggs", "1 cup parmesan cheese", "8 oz pancetta", "black pepper"},
			instructions: []string{"Cook pasta", "Fry pancetta", "Mix eggs and cheese", "Combine with hot pasta"},
		},
		{
			name: "Penne Arrabbiata", description: "Spicy tomato pasta with garlic and red peppers",
			rule: atLeast, minutes: 25, difficulty: SkillEasy,
			ingredients:  []string{"1 lb penne pasta", "2 cans diced tomatoes", "4 cloves garlic", "red pepper flakes", "olive oil"},
			instructions: []string{"Cook pasta", "Sauté garlic", "Add tomatoes and spices", "Toss with pasta"},
		},
		{
			name: "Fettuccine Alfredo", description: "Creamy pasta with butter, cream, and parmesan",
			rule: atLeast, minutes: 15, difficulty: SkillEasy,
			ingredients:  []string{"1 lb fettuccine", "1/2 cup butter", "1 cup heavy cream", "1 cup parmesan cheese", "nutmeg"},
			instructions: []string{"Cook pasta", "Melt butter", "Add cream", "Toss with cheese and pasta"},
		},
		{
			name: "Lasagna Bolognese", description: "Layered pasta with meat sauce and cheese",
			rule: atMost, minutes: 90, difficulty: SkillHard,
			ingredients:  []string{"1 box lasagna sheets", "2 lbs ground beef", "3 cups tomato sauce", "2 cups mozzarella", "2 cups ricotta"},
			instructions: []string{"Make meat sauce", "Cook pasta", "Layer ingredients", "Bake until golden"},
		},
		{
			name: "Linguine with Clam Sauce", description: "Seafood pasta with white wine and herbs",
			rule: atLeast, minutes: 30, difficulty: SkillMedium,
			ingredients:  []string{"1 lb linguine", "2 lbs fresh clams", "1/2 cup white wine", "4 cloves garlic", "fresh parsley"},
			instructions: []string{"Cook pasta", "Steam clams", "Make wine sauce", "Combine and serve"},
		},
		{
			name: "Ravioli with Sage Butter", description: "Cheese-filled pasta with brown butter and sage",
			rule: atLeast, minutes: 15, difficulty: SkillEasy,
			ingredients:  []string{"2 lbs cheese ravioli", "1/2 cup butter", "fresh sage leaves", "parmesan cheese", "pine nuts"},
			instructions: []string{"Cook ravioli", "Brown butter", "Add sage", "Toss and garnish"},
		},
		{
			name: "Pasta Puttanesca", description: "Bold pasta with olives, capers, and anchovies",
			rule: atLeast, minutes: 25, difficulty: SkillMedium,
			ingredients:  []string{"1 lb spaghetti", "1/2 cup olives", "2 tbsp capers", "4 anchovy fillets", "2 cans tomatoes"},
			instructions: []string{"Cook pasta", "Sauté aromatics", "Add tomatoes", "Finish with olives and capers"},
		},
	},
	"healthy meals": {
		{
			name: "Quinoa Buddha Bowl", description: "Nutritious bowl with quinoa, vegetables, and tahini dressing",
			rule: atLeast, minutes: 25, difficulty: SkillEasy,
			ingredients:  []string{"2 cups quinoa", "4 cups kale", "1 can chickpeas", "2 avocados", "tahini"},
			instructions: []string{"Cook quinoa", "Massage kale", "Roast chickpeas", "Assemble bowl"},
		},
		{
			name: "Grilled Salmon with Vegetables", description: "Omega-3 rich salmon with roasted seasonal vegetables",
			rule: atLeast, minutes: 30, difficulty: SkillMedium,
			ingredients:  []string{"{people} salmon fillets", "2 cups broccoli", "2 sweet potatoes", "olive oil", "mixed herbs"},
			instructions: []string{"Season salmon", "Roast vegetables", "Grill fish", "Serve together"},
		},
		{
			name: "Mediterranean Chicken Bowl", description: "Lean protein with fresh vegetables and herbs",
			rule: atLeast, minutes: 35, difficulty: SkillEasy,
			ingredients:  []string{"{people} chicken breasts", "cucumber", "tomatoes", "feta cheese", "olive oil"},
			instructions: []string{"Season chicken", "Grill chicken", "Prepare vegetables", "Assemble bowl"},
		},
	},
	"quick meals": {
		{
			name: "15-Minute Stir Fry", description: "Fast and flavorful vegetable stir fry",
			rule: fixed, minutes: 15, difficulty: SkillEasy,
			ingredients:  []string{"2 cups mixed vegetables", "soy sauce", "2 cloves garlic", "fresh ginger", "2 cups cooked rice"},
			instructions: []string{"Heat oil", "Stir fry vegetables", "Add sauce", "Serve over rice"},
		},
		{
			name: "Quick Chicken Quesadillas", description: "Crispy tortillas with chicken and cheese",
			rule: fixed, minutes: 20, difficulty: SkillEasy,
			ingredients:  []string{"flour tortillas", "cooked chicken", "cheese", "bell peppers", "onions"},
			instructions: []string{"Prepare filling", "Assemble quesadillas", "Cook until crispy", "Slice and serve"},
		},
	},
}

func (t mealTemplate) render(skill SkillLevel, people int) GeneratedMeal {
	lo, hi := skill.TimeRange()

	cookTime := t.minutes
	difficulty := t.difficulty
	switch t.rule {
	case atLeast:
		cookTime = max(lo, t.minutes)
	case atMost:
		cookTime = min(hi, t.minutes)
	}
	if t.rule != fixed && skill.Valid() {
		difficulty = skill
	}

	ingredients := make([]string, len(t.ingredients))
	for i, ing := range t.ingredients {
		ingredients[i] = strings.ReplaceAll(ing, "{people}", strconv.Itoa(people))
	}

	return GeneratedMeal{
		Name:         t.name,
		Description:  t.description,
		CookTime:     cookTime,
		Servings:     people,
		Difficulty:   difficulty,
		Ingredients:  ingredients,
		Instructions: append([]string(nil), t.instructions...),
	}
}

// Themes returns the plan types the catalog has dedicated meals for.
func Themes() []string {
	return []string{"pasta dishes", "healthy meals", "quick meals"}
}

func templatesFor(planType string) []mealTemplate {
	if templates, ok := catalog[strings.ToLower(strings.TrimSpace(planType))]; ok {
		return templates
	}
	return catalog[defaultTheme]
}

// CatalogMeals fills req.MealCount() slots from the themed template list,
// cycling through it and suffixing " (Variation N)" once it wraps.
func CatalogMeals(req MealPlanRequest) []GeneratedMeal {
	templates := templatesFor(req.PlanType)
	count := req.MealCount()

	meals := make([]GeneratedMeal, 0, count)
	for i := 0; i < count; i++ {
		meal := templates[i%len(templates)].render(req.SkillLevel, req.PeopleCount)
		if i >= len(templates) {
			meal.Name = fmt.Sprintf("%s (Variation %d)", meal.Name, i/len(templates)+1)
		}
		meals = append(meals, meal)
	}
	return meals
}

// CatalogMeal picks one meal at random from the themed week.
func CatalogMeal(req MealPlanRequest) GeneratedMeal {
	if req.MealsPerDay < 1 {
		req.MealsPerDay = 1
	}
	meals := CatalogMeals(req)
	return meals[rand.IntN(len(meals))]
}
