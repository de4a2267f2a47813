package workflow

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"kitchen-ai/internal/planner"

	"github.com/google/uuid"
)

// editShopping applies fn to a copy of the shopping list. Edits are
// possible from the moment the list exists until the week is saved.
func (e *Engine) editShopping(ctx context.Context, key string, fn func([]planner.ShoppingListEntry) ([]planner.ShoppingListEntry, error)) (State, error) {
	return e.transition(ctx, key, func(cur State) (State, error) {
		week := WeekOf(cur)
		if week == nil || cur.Step() == StepMenuReview {
			return nil, invalid(cur, "edit shopping list")
		}
		next := week.clone()
		items, err := fn(next.ShoppingList)
		if err != nil {
			return nil, err
		}
		next.ShoppingList = items
		return withWeek(cur, next), nil
	})
}

func findItem(items []planner.ShoppingListEntry, id string) (int, error) {
	i := slices.IndexFunc(items, func(it planner.ShoppingListEntry) bool { return it.ID == id })
	if i < 0 {
		return 0, fmt.Errorf("%w: %s", ErrShoppingItemNotFound, id)
	}
	return i, nil
}

func (e *Engine) ToggleShoppingItem(ctx context.Context, key, id string) (State, error) {
	return e.editShopping(ctx, key, func(items []planner.ShoppingListEntry) ([]planner.ShoppingListEntry, error) {
		i, err := findItem(items, id)
		if err != nil {
			return nil, err
		}
		items[i].IsChecked = !items[i].IsChecked
		return items, nil
	})
}

// SetShoppingQuantity replaces the free-form quantity of an item.
func (e *Engine) SetShoppingQuantity(ctx context.Context, key, id, quantity string) (State, error) {
	quantity = strings.TrimSpace(quantity)
	return e.editShopping(ctx, key, func(items []planner.ShoppingListEntry) ([]planner.ShoppingListEntry, error) {
		if quantity == "" {
			return nil, fmt.Errorf("%w: empty quantity", ErrInvalidSelection)
		}
		i, err := findItem(items, id)
		if err != nil {
			return nil, err
		}
		items[i].Quantity = quantity
		return items, nil
	})
}

// AddShoppingItem appends an unchecked item with quantity "1".
func (e *Engine) AddShoppingItem(ctx context.Context, key, name string) (State, error) {
	name = strings.TrimSpace(name)
	return e.editShopping(ctx, key, func(items []planner.ShoppingListEntry) ([]planner.ShoppingListEntry, error) {
		if name == "" {
			return nil, fmt.Errorf("%w: empty item name", ErrInvalidSelection)
		}
		return append(items, planner.ShoppingListEntry{ID: uuid.NewString(), Name: name, Quantity: "1"}), nil
	})
}

func (e *Engine) DeleteShoppingItem(ctx context.Context, key, id string) (State, error) {
	return e.editShopping(ctx, key, func(items []planner.ShoppingListEntry) ([]planner.ShoppingListEntry, error) {
		i, err := findItem(items, id)
		if err != nil {
			return nil, err
		}
		return slices.Delete(items, i, i+1), nil
	})
}
