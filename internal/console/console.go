// Package console runs the planning wizard in a terminal.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"kitchen-ai/internal/history"
	"kitchen-ai/internal/planner"
	"kitchen-ai/internal/workflow"

	"github.com/charmbracelet/lipgloss"
)

// HistoryBrowser serves the history commands.
type HistoryBrowser interface {
	List(ctx context.Context, owner string) ([]history.Entry, error)
	ListFavorites(ctx context.Context, owner string) ([]history.Entry, error)
	Search(ctx context.Context, owner, term string) ([]history.Entry, error)
	ToggleFavorite(ctx context.Context, owner, id string) (history.Entry, error)
	Delete(ctx context.Context, owner, id string) error
}

type styles struct {
	title lipgloss.Style
	dim   lipgloss.Style
	err   lipgloss.Style
	done  lipgloss.Style
}

// Console reads commands line by line and prints the wizard screens.
type Console struct {
	engine  *workflow.Engine
	history HistoryBrowser
	key     string
	in      *bufio.Scanner
	out     io.Writer
	style   styles

	// listed is the last history listing, so entries can be addressed by number.
	listed []history.Entry
}

// New creates a Console for session key.
func New(engine *workflow.Engine, hist HistoryBrowser, key string, in io.Reader, out io.Writer) *Console {
	r := lipgloss.NewRenderer(out)
	return &Console{
		engine:  engine,
		history: hist,
		key:     key,
		in:      bufio.NewScanner(in),
		out:     out,
		style: styles{
			title: r.NewStyle().Bold(true).Foreground(lipgloss.Color("51")),
			dim:   r.NewStyle().Foreground(lipgloss.Color("245")),
			err:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
			done:  r.NewStyle().Foreground(lipgloss.Color("46")),
		},
	}
}

// Run shows the current screen and handles input until EOF or "quit".
func (c *Console) Run(ctx context.Context) error {
	st, err := c.engine.State(ctx, c.key)
	if err != nil {
		return err
	}
	c.render(st)

	for {
		fmt.Fprint(c.out, "> ")
		if !c.in.Scan() {
			fmt.Fprintln(c.out)
			return c.in.Err()
		}
		line := strings.TrimSpace(c.in.Text())
		if line == "quit" || line == "exit" {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		c.handle(ctx, line)
	}
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) fail(err error) {
	if msg := workflow.UserMessage(err); msg != "" {
		c.printf("%s\n", c.style.err.Render(msg))
	}
}

// show prints the error, if any, and then the screen for st.
func (c *Console) show(st workflow.State, err error) {
	if err != nil {
		c.fail(err)
	}
	if st != nil {
		c.render(st)
	}
}

// number parses a 1-based choice in [1, n] and returns it 0-based.
func number(arg string, n int) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || v < 1 || v > n {
		return 0, fmt.Errorf("%w: %q", workflow.ErrInvalidSelection, arg)
	}
	return v - 1, nil
}

func (c *Console) handle(ctx context.Context, line string) {
	cmd, args, _ := strings.Cut(line, " ")
	args = strings.TrimSpace(args)

	if c.handleGlobal(ctx, cmd, args) {
		return
	}

	st, err := c.engine.State(ctx, c.key)
	if err != nil {
		c.fail(err)
		return
	}

	switch cur := st.(type) {
	case workflow.Initial:
		if line == "" || cmd == "start" || cmd == "y" || cmd == "yes" {
			c.show(c.engine.Start(ctx, c.key))
			return
		}
		c.text(ctx, line)

	case workflow.ChoosingPlanType:
		if cmd == "custom" || cmd == "c" {
			c.show(c.engine.RequestCustomPlanType(ctx, c.key))
			return
		}
		i, err := number(line, len(workflow.PlanOptions))
		if err != nil {
			c.fail(err)
			return
		}
		c.show(c.engine.ChoosePlanType(ctx, c.key, workflow.PlanOptions[i]))

	case workflow.EnteringCustomPlanType:
		if cmd == "back" {
			c.show(c.engine.BackToPlanTypes(ctx, c.key))
			return
		}
		c.text(ctx, line)

	case workflow.ChoosingMealsPerDay:
		n, err := strconv.Atoi(line)
		if err != nil {
			c.fail(workflow.ErrInvalidSelection)
			return
		}
		c.show(c.engine.ChooseMealsPerDay(ctx, c.key, n))

	case workflow.ChoosingPeopleCount:
		n, err := strconv.Atoi(line)
		if err != nil {
			c.fail(workflow.ErrInvalidSelection)
			return
		}
		c.show(c.engine.ChoosePeopleCount(ctx, c.key, n))

	case workflow.ChoosingSkillLevel:
		i, err := number(line, len(planner.SkillLevels))
		if err != nil {
			c.fail(err)
			return
		}
		c.printf("%s\n", c.style.dim.Render("Generating your meal plan..."))
		c.show(c.engine.ChooseSkillLevel(ctx, c.key, planner.SkillLevels[i]))

	case workflow.ReviewingMenu:
		switch cmd {
		case "r", "refresh":
			i, err := number(args, len(cur.Week.Meals))
			if err != nil {
				c.fail(err)
				return
			}
			c.show(c.engine.RefreshMeal(ctx, c.key, i))
		case "a", "accept":
			c.printf("%s\n", c.style.dim.Render("Building your shopping list..."))
			c.show(c.engine.AcceptMenu(ctx, c.key))
		default:
			c.text(ctx, line)
		}

	default:
		c.handleWeek(ctx, st, cmd, args, line)
	}
}

// handleWeek covers the screens after the shopping list exists.
func (c *Console) handleWeek(ctx context.Context, st workflow.State, cmd, args, line string) {
	week := workflow.WeekOf(st)
	if week == nil {
		c.text(ctx, line)
		return
	}

	switch cmd {
	case "t", "toggle", "q", "qty", "rm":
		pos, rest, _ := strings.Cut(args, " ")
		i, err := number(pos, len(week.ShoppingList))
		if err != nil {
			c.fail(workflow.ErrShoppingItemNotFound)
			return
		}
		id := week.ShoppingList[i].ID
		switch cmd {
		case "t", "toggle":
			c.show(c.engine.ToggleShoppingItem(ctx, c.key, id))
		case "q", "qty":
			c.show(c.engine.SetShoppingQuantity(ctx, c.key, id, rest))
		case "rm":
			c.show(c.engine.DeleteShoppingItem(ctx, c.key, id))
		}
	case "add":
		c.show(c.engine.AddShoppingItem(ctx, c.key, args))
	case "list":
		c.printShopping(week)
	case "recipe":
		i, err := number(args, len(week.Meals))
		if err != nil {
			c.fail(err)
			return
		}
		c.printRecipe(week, i)
	case "next":
		c.show(c.engine.StartWeek(ctx, c.key))
	case "ready":
		c.show(c.engine.ConfirmReady(ctx, c.key))
	case "done", "rate":
		i, rating, notes, err := parseRating(args, len(week.Meals))
		if err != nil {
			c.fail(err)
			return
		}
		if cmd == "done" {
			c.show(c.engine.CompleteMeal(ctx, c.key, i, rating, notes))
		} else {
			c.show(c.engine.RateMeal(ctx, c.key, i, rating, notes))
		}
	case "save":
		entry, err := c.engine.SaveWeek(ctx, c.key)
		if err != nil {
			c.fail(err)
			return
		}
		c.printf("%s\n%s\n", c.style.done.Render(workflow.SavedReply), c.style.dim.Render("Saved as "+entry.Title))
		c.render(workflow.Initial{})
	default:
		c.text(ctx, line)
	}
}

// parseRating reads "<meal> <rating> [notes...]".
func parseRating(args string, meals int) (int, int, string, error) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return 0, 0, "", fmt.Errorf("%w: expected <meal> <rating>", workflow.ErrInvalidSelection)
	}
	i, err := number(fields[0], meals)
	if err != nil {
		return 0, 0, "", err
	}
	rating, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, "", fmt.Errorf("%w: rating %q", workflow.ErrInvalidSelection, fields[1])
	}
	return i, rating, strings.Join(fields[2:], " "), nil
}

func (c *Console) text(ctx context.Context, line string) {
	st, reply, err := c.engine.HandleText(ctx, c.key, line)
	if err == nil && reply != "" {
		c.printf("%s\n", reply)
		return
	}
	c.show(st, err)
}

// handleGlobal runs the commands available on every screen.
func (c *Console) handleGlobal(ctx context.Context, cmd, args string) bool {
	switch cmd {
	case "help":
		c.printf("%s\n", helpText)
	case "reset":
		c.show(workflow.Initial{}, c.engine.Reset(ctx, c.key))
	case "leftovers":
		st, err := c.engine.State(ctx, c.key)
		if err != nil {
			c.fail(err)
			return true
		}
		done, ok := st.(workflow.WeekCompleted)
		if !ok {
			c.printf("Leftovers are worked out once every meal of the week is cooked.\n")
			return true
		}
		c.printLeftovers(done.Leftovers)
	case "history":
		c.listHistory(c.history.List(ctx, c.key))
	case "favorites":
		c.listHistory(c.history.ListFavorites(ctx, c.key))
	case "search":
		c.listHistory(c.history.Search(ctx, c.key, args))
	case "show", "fav", "delete", "reuse":
		i, err := number(args, len(c.listed))
		if err != nil {
			c.fail(history.ErrNotFound)
			return true
		}
		c.historyAction(ctx, cmd, c.listed[i])
	default:
		return false
	}
	return true
}

func (c *Console) listHistory(entries []history.Entry, err error) {
	if err != nil {
		c.fail(err)
		return
	}
	c.listed = entries
	if len(entries) == 0 {
		c.printf("Nothing saved yet.\n")
		return
	}
	for i, e := range entries {
		star := ""
		if e.Favorite {
			star = " *"
		}
		c.printf("%2d. %s%s (%d meals)\n", i+1, e.Title, star, len(e.Meals))
	}
	c.printf("%s\n", c.style.dim.Render("show <n>, reuse <n>, fav <n>, delete <n>"))
}

func (c *Console) historyAction(ctx context.Context, cmd string, e history.Entry) {
	switch cmd {
	case "show":
		c.printf("%s\n", c.style.title.Render(e.Title))
		for _, m := range e.Meals {
			c.printf("  %s\n", m)
		}
	case "fav":
		updated, err := c.history.ToggleFavorite(ctx, c.key, e.ID)
		if err != nil {
			c.fail(err)
			return
		}
		if updated.Favorite {
			c.printf("Added %s to favorites.\n", updated.Title)
		} else {
			c.printf("Removed %s from favorites.\n", updated.Title)
		}
	case "reuse":
		c.show(c.engine.ReuseEntry(ctx, c.key, e))
	case "delete":
		if err := c.history.Delete(ctx, c.key, e.ID); err != nil {
			c.fail(err)
			return
		}
		c.listed = nil
		c.printf("Deleted %s.\n", e.Title)
	}
}

const helpText = `Anywhere: help, reset, history, favorites, search <text>, show|reuse|fav|delete <n>, leftovers, quit
Menu review: r <n> to swap a meal, a to accept
Shopping list: t <n>, q <n> <amount>, add <item>, rm <n>, list, next
Cooking: recipe <n>, ready, done <n> <1-5> [notes], rate <n> <1-5> [notes], save`
