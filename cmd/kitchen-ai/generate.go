package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"kitchen-ai/internal/planner"
	"kitchen-ai/internal/workflow"

	"github.com/spf13/cobra"
)

var (
	genPlanType    string
	genMealsPerDay int
	genPeople      int
	genSkill       string
	genShopping    bool
	genOutputJSON  bool
	genDiet        []string
	genAllergies   []string
	genPreferences []string
)

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVar(&genPlanType, "plan", "healthy meals", "Meal theme")
	generateCmd.Flags().IntVar(&genMealsPerDay, "meals", 3, "Meals per day")
	generateCmd.Flags().IntVar(&genPeople, "people", 2, "People to cook for")
	generateCmd.Flags().StringVar(&genSkill, "skill", string(planner.SkillMedium), "Skill level: Easy, Medium or Hard")
	generateCmd.Flags().StringArrayVar(&genDiet, "diet", nil, "Dietary restriction (repeatable)")
	generateCmd.Flags().StringArrayVar(&genAllergies, "allergy", nil, "Allergy to avoid (repeatable)")
	generateCmd.Flags().StringArrayVar(&genPreferences, "prefer", nil, "Preference such as a cuisine or ingredient (repeatable)")
	generateCmd.Flags().BoolVar(&genShopping, "shopping", false, "Also build the consolidated shopping list")
	generateCmd.Flags().BoolVar(&genOutputJSON, "json", false, "Output results as JSON")
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a week of meals without the wizard",
	Long: `Generate one week of meals and print it. Nothing is saved.

Examples:
  # Three quick meals a day for four people
  kitchen-ai generate --plan "quick meals" --people 4

  # Include the shopping list, as JSON
  kitchen-ai generate --shopping --json

  # Vegetarian, nut-free, leaning Thai
  kitchen-ai generate --diet vegetarian --allergy peanuts --allergy cashews --prefer thai`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		d, err := setup(ctx, true)
		if err != nil {
			return err
		}
		defer d.Close()

		req := generateRequest()
		if req.MealsPerDay > d.cfg.Planner.MaxMealsPerDay {
			return fmt.Errorf("at most %d meals per day are allowed", d.cfg.Planner.MaxMealsPerDay)
		}

		week, err := d.planner.GenerateWeek(ctx, req)
		if err != nil {
			return err
		}
		var items []string
		if genShopping {
			items = d.planner.ConsolidateShoppingList(ctx, week.Meals).Items
		}

		out := cmd.OutOrStdout()
		if genOutputJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Meals        []planner.GeneratedMeal `json:"meals"`
				ShoppingList []string                `json:"shoppingList,omitempty"`
				Source       string                  `json:"source"`
			}{week.Meals, items, string(week.Meta.Outcome)})
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SLOT\tMEAL\tMINUTES\tDIFFICULTY")
		for i, m := range week.Meals {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", workflow.MealLabel(i, req.MealsPerDay), m.Name, m.CookTime, m.Difficulty)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		if genShopping {
			fmt.Fprintln(out, "\nShopping list:")
			for _, it := range items {
				fmt.Fprintf(out, "  - %s\n", it)
			}
		}
		return nil
	},
}

func generateRequest() planner.MealPlanRequest {
	return planner.MealPlanRequest{
		PlanType:    genPlanType,
		MealsPerDay: genMealsPerDay,
		PeopleCount: genPeople,
		SkillLevel:  planner.SkillLevel(genSkill),

		DietaryRestrictions: genDiet,
		Allergies:           genAllergies,
		Preferences:         genPreferences,
	}
}
