package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	t.Run("CleanObject", func(t *testing.T) {
		ex, err := ExtractJSON(`{"items": ["milk"]}`)
		require.NoError(t, err)
		assert.Equal(t, `{"items": ["milk"]}`, ex.JSON)
		assert.Empty(t, ex.Repairs)
	})

	t.Run("FencedWithProse", func(t *testing.T) {
		raw := "Here is your plan:\n```json\n{\n  \"items\": [\"milk\", \"eggs\",],\n}\n```\nEnjoy!"
		ex, err := ExtractJSON(raw)
		require.NoError(t, err)
		assert.Equal(t, `{ "items": ["milk", "eggs"]}`, ex.JSON)
		assert.Equal(t, []Repair{RepairStripFences, RepairTrimToBraces, RepairTrailingCommas, RepairCollapseSpacing}, ex.Repairs)
	})

	t.Run("PlainFence", func(t *testing.T) {
		ex, err := ExtractJSON("```\n{\"name\": \"Soup\"}\n```")
		require.NoError(t, err)
		assert.Equal(t, `{"name": "Soup"}`, ex.JSON)
		assert.Contains(t, ex.Repairs, RepairStripFences)
	})

	t.Run("NoBraces", func(t *testing.T) {
		_, err := ExtractJSON("I cannot help with that.")
		assert.ErrorIs(t, err, ErrNoJSON)
	})

	t.Run("ReversedBraces", func(t *testing.T) {
		_, err := ExtractJSON("} nothing {")
		assert.ErrorIs(t, err, ErrNoJSON)
	})
}

func TestDecodeCompletion(t *testing.T) {
	t.Run("TrailingCommaInMeal", func(t *testing.T) {
		var meal GeneratedMeal
		_, err := decodeCompletion(`{"name": "Oats", "cookTime": 10, "ingredients": ["oats",],}`, &meal)
		require.NoError(t, err)
		assert.Equal(t, "Oats", meal.Name)
		assert.Equal(t, 10, meal.CookTime)
		assert.Equal(t, []string{"oats"}, meal.Ingredients)
	})

	t.Run("SyntaxErrorAfterRepair", func(t *testing.T) {
		var meal GeneratedMeal
		_, err := decodeCompletion(`{"name": Oats}`, &meal)
		assert.Error(t, err)
	})
}
