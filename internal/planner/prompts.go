package planner

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"
)

var (
	//go:embed week_prompt.md
	weekPrompt string
	//go:embed meal_prompt.md
	mealPrompt string
	//go:embed shopping_prompt.md
	shoppingPrompt string
)

const skillGuide = "Easy: 15-30min simple recipes, Medium: 30-60min moderate complexity, Hard: 60+ min advanced techniques"

var promptFuncs = template.FuncMap{
	"join": func(items []string) string { return strings.Join(items, ", ") },
}

var (
	weekTmpl     = template.Must(template.New("week").Funcs(promptFuncs).Parse(weekPrompt))
	mealTmpl     = template.Must(template.New("meal").Funcs(promptFuncs).Parse(mealPrompt))
	shoppingTmpl = template.Must(template.New("shopping").Funcs(promptFuncs).Parse(shoppingPrompt))
)

type requestPromptData struct {
	MealPlanRequest
	MealCount  int
	SkillGuide string
}

type shoppingPromptData struct {
	MealCount   int
	Ingredients []string
}

func buildWeekPrompt(req MealPlanRequest) (string, error) {
	return render(weekTmpl, requestPromptData{
		MealPlanRequest: req,
		MealCount:       req.MealCount(),
		SkillGuide:      skillGuide,
	})
}

func buildMealPrompt(req MealPlanRequest) (string, error) {
	return render(mealTmpl, requestPromptData{
		MealPlanRequest: req,
		MealCount:       1,
		SkillGuide:      skillGuide,
	})
}

func buildShoppingPrompt(meals []GeneratedMeal) (string, error) {
	var ingredients []string
	for _, m := range meals {
		ingredients = append(ingredients, m.Ingredients...)
	}
	return render(shoppingTmpl, shoppingPromptData{
		MealCount:   len(meals),
		Ingredients: ingredients,
	})
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
