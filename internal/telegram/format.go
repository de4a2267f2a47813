package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"kitchen-ai/internal/history"
	"kitchen-ai/internal/planner"
	"kitchen-ai/internal/workflow"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const generatingText = "🧑‍🍳 *Generating your meal plan...*\n(This can take up to a minute)"

func esc(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func button(text, action, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, action+"|"+data)
}

// grid lays buttons out perRow to a row.
func grid(buttons []tgbotapi.InlineKeyboardButton, perRow int) [][]tgbotapi.InlineKeyboardButton {
	var rows [][]tgbotapi.InlineKeyboardButton
	for len(buttons) > 0 {
		n := min(perRow, len(buttons))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons[:n]...))
		buttons = buttons[n:]
	}
	return rows
}

func keyboard(rows ...[]tgbotapi.InlineKeyboardButton) *tgbotapi.InlineKeyboardMarkup {
	m := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &m
}

func startKeyboard() *tgbotapi.InlineKeyboardMarkup {
	return keyboard(tgbotapi.NewInlineKeyboardRow(button("🍽 Start planning", "start", "")))
}

// renderState returns the screen for st.
func renderState(st workflow.State, mealsPerDay []int) (string, *tgbotapi.InlineKeyboardMarkup) {
	switch s := st.(type) {
	case workflow.Initial:
		return "👋 *Welcome to Kitchen AI!*\n\nI'll plan a week of meals with you, build the shopping list and keep track of what you cook.", startKeyboard()

	case workflow.ChoosingPlanType:
		buttons := make([]tgbotapi.InlineKeyboardButton, len(workflow.PlanOptions))
		for i, opt := range workflow.PlanOptions {
			buttons[i] = button(opt, "plan", strconv.Itoa(i))
		}
		rows := grid(buttons, 2)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("✏️ Something else", "custom", "")))
		return "🍽 *What kind of meals would you like this week?*", keyboard(rows...)

	case workflow.EnteringCustomPlanType:
		return "✏️ Type the kind of meals you'd like, for example _thai street food_.",
			keyboard(tgbotapi.NewInlineKeyboardRow(button("⬅️ Back", "back", "")))

	case workflow.ChoosingMealsPerDay:
		buttons := make([]tgbotapi.InlineKeyboardButton, len(mealsPerDay))
		for i, n := range mealsPerDay {
			buttons[i] = button(strconv.Itoa(n), "meals", strconv.Itoa(n))
		}
		return fmt.Sprintf("*%s* it is! How many meals per day?", esc(s.PlanType)), keyboard(grid(buttons, 4)...)

	case workflow.ChoosingPeopleCount:
		buttons := make([]tgbotapi.InlineKeyboardButton, len(workflow.PeopleCountOptions))
		for i, n := range workflow.PeopleCountOptions {
			buttons[i] = button(strconv.Itoa(n), "people", strconv.Itoa(n))
		}
		return "👥 How many people are you cooking for?", keyboard(grid(buttons, 4)...)

	case workflow.ChoosingSkillLevel:
		var rows [][]tgbotapi.InlineKeyboardButton
		for _, lvl := range planner.SkillLevels {
			label := fmt.Sprintf("%s: %s", lvl, lvl.Description())
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(button(label, "skill", string(lvl))))
		}
		return "🔪 What's your cooking skill level?", keyboard(rows...)

	case workflow.Generating:
		return generatingText, nil
	case workflow.ReviewingMenu:
		return formatMenu(s.Week)
	case workflow.ReviewingShoppingList:
		return formatShoppingList(s.Week)
	case workflow.CheckingRecipes:
		return formatRecipeCheck(s.Week)
	case workflow.ExecutingWeek:
		return formatProgress(s.Week, s.Progress)
	case workflow.WeekCompleted:
		return formatCompleted(s)
	}
	return "", nil
}

func formatMenu(w *workflow.WeekPlan) (string, *tgbotapi.InlineKeyboardMarkup) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 *Your %s week*\n", esc(w.PlanType))

	buttons := make([]tgbotapi.InlineKeyboardButton, len(w.Meals))
	for i, m := range w.Meals {
		day, slot := workflow.SlotLabel(i, w.MealsPerDay)
		if i%w.MealsPerDay == 0 {
			fmt.Fprintf(&sb, "\n*%s*\n", day)
		}
		fmt.Fprintf(&sb, "%d. %s: %s (%d min)\n", i+1, slot, esc(m.Name), m.CookTime)
		buttons[i] = button("🔄 "+strconv.Itoa(i+1), "refresh", strconv.Itoa(i))
	}
	sb.WriteString("\nTap 🔄 to swap a meal, or accept the menu.")

	rows := grid(buttons, 7)
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("✅ Looks good", "accept", "")))
	return sb.String(), keyboard(rows...)
}

func formatShoppingList(w *workflow.WeekPlan) (string, *tgbotapi.InlineKeyboardMarkup) {
	text, toggles := shoppingLines(w)
	text += "\nTap a number to tick it off. /add <item>, /qty <n> <amount> and /remove <n> edit the list."

	rows := grid(toggles, 6)
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("▶️ Start the week", "startweek", "")))
	return text, keyboard(rows...)
}

func shoppingLines(w *workflow.WeekPlan) (string, []tgbotapi.InlineKeyboardButton) {
	var sb strings.Builder
	sb.WriteString("🛒 *Shopping List*\n\n")
	if len(w.ShoppingList) == 0 {
		sb.WriteString("_Empty_\n")
	}

	toggles := make([]tgbotapi.InlineKeyboardButton, len(w.ShoppingList))
	for i, item := range w.ShoppingList {
		mark := "⬜"
		if item.IsChecked {
			mark = "✅"
		}
		fmt.Fprintf(&sb, "%d. %s %s", i+1, mark, esc(item.Name))
		if item.Quantity != "" && item.Quantity != "1" {
			fmt.Fprintf(&sb, " (%s)", esc(item.Quantity))
		}
		sb.WriteString("\n")
		toggles[i] = button(mark+" "+strconv.Itoa(i+1), "toggle", item.ID)
	}
	return sb.String(), toggles
}

func formatRecipeCheck(w *workflow.WeekPlan) (string, *tgbotapi.InlineKeyboardMarkup) {
	var sb strings.Builder
	sb.WriteString("📖 *Recipe check*\n\nHave a look through this week's recipes before you start. Send /recipe <n> to read one.\n\n")
	for i, m := range w.Meals {
		fmt.Fprintf(&sb, "%d. %s: %s\n", i+1, workflow.MealLabel(i, w.MealsPerDay), esc(m.Name))
	}
	return sb.String(), keyboard(tgbotapi.NewInlineKeyboardRow(button("👩‍🍳 I'm ready to cook", "ready", "")))
}

// formatRecipe renders one meal in full.
func formatRecipe(w *workflow.WeekPlan, i int) string {
	m := w.Meals[i]
	var sb strings.Builder
	fmt.Fprintf(&sb, "🍽 *%s*\n_%s_\n\n", esc(m.Name), workflow.MealLabel(i, w.MealsPerDay))
	if m.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", esc(m.Description))
	}
	fmt.Fprintf(&sb, "⏱ %d min · 👥 %d · %s\n\n", m.CookTime, m.Servings, m.Difficulty)
	sb.WriteString("*Ingredients*\n")
	for _, ing := range m.Ingredients {
		fmt.Fprintf(&sb, "• %s\n", esc(ing))
	}
	if len(m.Instructions) > 0 {
		sb.WriteString("\n*Steps*\n")
		for n, step := range m.Instructions {
			fmt.Fprintf(&sb, "%d. %s\n", n+1, esc(step))
		}
	}
	return sb.String()
}

func stars(n int) string {
	return strings.Repeat("⭐", n)
}

func formatProgress(w *workflow.WeekPlan, p workflow.Progress) (string, *tgbotapi.InlineKeyboardMarkup) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🍳 *Cooking progress:* %d/%d\n\n", len(p.Completed), len(w.Meals))

	var buttons []tgbotapi.InlineKeyboardButton
	for i, m := range w.Meals {
		if p.IsCompleted(i) {
			fmt.Fprintf(&sb, "✅ %d. %s: %s %s\n", i+1, workflow.MealLabel(i, w.MealsPerDay), esc(m.Name), stars(p.Ratings[i].Rating))
			continue
		}
		fmt.Fprintf(&sb, "⬜ %d. %s: %s\n", i+1, workflow.MealLabel(i, w.MealsPerDay), esc(m.Name))
		buttons = append(buttons, button("✅ "+strconv.Itoa(i+1), "done", strconv.Itoa(i)))
	}
	sb.WriteString("\nTap a meal once you've cooked it.")
	return sb.String(), keyboard(grid(buttons, 7)...)
}

func formatCompleted(s workflow.WeekCompleted) (string, *tgbotapi.InlineKeyboardMarkup) {
	var sb strings.Builder
	sb.WriteString("🎉 *Week complete!*\n\n")

	total := 0
	for _, r := range s.Progress.Ratings {
		total += r.Rating
	}
	if n := len(s.Progress.Ratings); n > 0 {
		fmt.Fprintf(&sb, "Average rating: %.1f ⭐\n\n", float64(total)/float64(n))
	}
	sb.WriteString(formatLeftovers(s.Leftovers))

	return sb.String(), keyboard(tgbotapi.NewInlineKeyboardRow(button("💾 Save to history", "save", "")))
}

func formatLeftovers(items []string) string {
	if len(items) == 0 {
		return "🥡 No leftover ingredients.\n"
	}
	var sb strings.Builder
	sb.WriteString("🥡 *Possible leftovers*\n")
	for _, it := range items {
		fmt.Fprintf(&sb, "• %s\n", esc(it))
	}
	return sb.String()
}

// ratingKeyboard asks for a 1-5 rating of meal i.
func ratingKeyboard(i int) *tgbotapi.InlineKeyboardMarkup {
	buttons := make([]tgbotapi.InlineKeyboardButton, 5)
	for r := 1; r <= 5; r++ {
		buttons[r-1] = button(stars(r), "rate", fmt.Sprintf("%d|%d", i, r))
	}
	return keyboard(grid(buttons, 5)...)
}

func formatHistory(title string, entries []history.Entry) (string, *tgbotapi.InlineKeyboardMarkup) {
	if len(entries) == 0 {
		return "📚 Nothing saved yet. Finish a week to see it here.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📚 *%s*\n\n", title)
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, e := range entries {
		fav := ""
		if e.Favorite {
			fav = "⭐ "
		}
		fmt.Fprintf(&sb, "%d. %s%s (%d meals)\n", i+1, fav, esc(e.Title), len(e.Meals))

		n := strconv.Itoa(i + 1)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			button("📖 "+n, "hview", e.ID),
			button("🔁 "+n, "hreuse", e.ID),
			button("⭐ "+n, "hfav", e.ID),
			button("🗑 "+n, "hdel", e.ID),
		))
	}
	return sb.String(), keyboard(rows...)
}

func formatEntry(e history.Entry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 *%s*", esc(e.Title))
	if e.Favorite {
		sb.WriteString(" ⭐")
	}
	sb.WriteString("\n\n")
	for _, m := range e.Meals {
		fmt.Fprintf(&sb, "• %s\n", esc(m))
	}
	return sb.String()
}

const helpText = `*Kitchen AI commands*

/start - plan a week or resume where you left off
/reset - abandon the current plan
/recipe <n> - show recipe n of this week
/add <item> - add to the shopping list
/qty <n> <amount> - change the amount of item n
/remove <n> - remove item n
/leftovers - ingredients likely left over
/history - saved weeks
/favorites - favorite weeks
/search <text> - search saved weeks`
