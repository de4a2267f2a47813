package console

import (
	"strings"

	"kitchen-ai/internal/planner"
	"kitchen-ai/internal/workflow"
)

func (c *Console) render(st workflow.State) {
	switch s := st.(type) {
	case workflow.Initial:
		c.printf("%s\n", c.style.title.Render("Welcome to Kitchen AI!"))
		c.printf("Press enter to start planning your week. Type help for commands.\n")

	case workflow.ChoosingPlanType:
		c.printf("%s\n", c.style.title.Render("What kind of meals would you like this week?"))
		for i, opt := range workflow.PlanOptions {
			c.printf("%2d. %s\n", i+1, opt)
		}
		c.printf("%s\n", c.style.dim.Render("Pick a number, or type custom for something else."))

	case workflow.EnteringCustomPlanType:
		c.printf("Type the kind of meals you'd like, or back for the list.\n")

	case workflow.ChoosingMealsPerDay:
		c.printf("%s it is! How many meals per day? (1-%d)\n", s.PlanType, len(c.engine.MealsPerDayOptions()))

	case workflow.ChoosingPeopleCount:
		c.printf("How many people are you cooking for?\n")

	case workflow.ChoosingSkillLevel:
		c.printf("What's your cooking skill level?\n")
		for i, lvl := range planner.SkillLevels {
			c.printf("%2d. %s: %s\n", i+1, lvl, lvl.Description())
		}

	case workflow.Generating:
		c.printf("%s\n", c.style.dim.Render("Generating your meal plan..."))

	case workflow.ReviewingMenu:
		c.printMenu(s.Week)
		c.printf("%s\n", c.style.dim.Render("r <n> swaps a meal, a accepts the menu."))

	case workflow.ReviewingShoppingList:
		c.printShopping(s.Week)
		c.printf("%s\n", c.style.dim.Render("t <n> ticks an item, q <n> <amount>, add <item>, rm <n>. next when you're done shopping."))

	case workflow.CheckingRecipes:
		c.printf("%s\n", c.style.title.Render("Recipe check"))
		for i, m := range s.Week.Meals {
			c.printf("%2d. %s: %s\n", i+1, workflow.MealLabel(i, s.Week.MealsPerDay), m.Name)
		}
		c.printf("%s\n", c.style.dim.Render("recipe <n> shows a recipe. ready when you're ready to cook."))

	case workflow.ExecutingWeek:
		c.printProgress(s.Week, s.Progress)
		c.printf("%s\n", c.style.dim.Render("done <n> <1-5> [notes] once you've cooked a meal."))

	case workflow.WeekCompleted:
		c.printf("%s\n", c.style.done.Render("Week complete!"))
		c.printLeftovers(s.Leftovers)
		c.printf("%s\n", c.style.dim.Render("save stores the week in your history."))
	}
}

func (c *Console) printMenu(w *workflow.WeekPlan) {
	c.printf("%s\n", c.style.title.Render("Your "+w.PlanType+" week"))
	for i, m := range w.Meals {
		day, slot := workflow.SlotLabel(i, w.MealsPerDay)
		if i%w.MealsPerDay == 0 {
			c.printf("%s\n", day)
		}
		c.printf("  %2d. %s: %s (%d min, %s)\n", i+1, slot, m.Name, m.CookTime, m.Difficulty)
	}
}

func (c *Console) printShopping(w *workflow.WeekPlan) {
	c.printf("%s\n", c.style.title.Render("Shopping list"))
	if len(w.ShoppingList) == 0 {
		c.printf("  (empty)\n")
	}
	for i, item := range w.ShoppingList {
		mark := "[ ]"
		if item.IsChecked {
			mark = "[x]"
		}
		c.printf("  %2d. %s %s", i+1, mark, item.Name)
		if item.Quantity != "" && item.Quantity != "1" {
			c.printf(" (%s)", item.Quantity)
		}
		c.printf("\n")
	}
}

func (c *Console) printRecipe(w *workflow.WeekPlan, i int) {
	m := w.Meals[i]
	c.printf("%s\n", c.style.title.Render(m.Name))
	c.printf("%s, %d min, serves %d, %s\n", workflow.MealLabel(i, w.MealsPerDay), m.CookTime, m.Servings, m.Difficulty)
	if m.Description != "" {
		c.printf("%s\n", m.Description)
	}
	c.printf("Ingredients:\n")
	for _, ing := range m.Ingredients {
		c.printf("  - %s\n", ing)
	}
	if len(m.Instructions) > 0 {
		c.printf("Steps:\n")
		for n, step := range m.Instructions {
			c.printf("  %d. %s\n", n+1, step)
		}
	}
}

func (c *Console) printProgress(w *workflow.WeekPlan, p workflow.Progress) {
	c.printf("%s\n", c.style.title.Render("Cooking progress"))
	c.printf("%d/%d meals cooked\n", len(p.Completed), len(w.Meals))
	for i, m := range w.Meals {
		label := workflow.MealLabel(i, w.MealsPerDay)
		if p.IsCompleted(i) {
			r := p.Ratings[i]
			line := label + ": " + m.Name + " " + strings.Repeat("*", r.Rating)
			if r.Notes != "" {
				line += " (" + r.Notes + ")"
			}
			c.printf("  %2d. %s\n", i+1, c.style.done.Render(line))
			continue
		}
		c.printf("  %2d. %s: %s\n", i+1, label, m.Name)
	}
}

func (c *Console) printLeftovers(items []string) {
	if len(items) == 0 {
		c.printf("No leftover ingredients.\n")
		return
	}
	c.printf("Possible leftovers:\n")
	for _, it := range items {
		c.printf("  - %s\n", it)
	}
}
