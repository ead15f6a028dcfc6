package main

import (
	"errors"
	"fmt"
	"strings"

	"meal-planner/internal/meals"
	"meal-planner/internal/tools"

	"github.com/spf13/cobra"
)

var (
	listLimit  int
	listStart  string
	listEnd    string
	listSearch string

	updateID          string
	updateName        string
	updateDate        string
	updateHeure       string
	updateIngredients []string
	updateRecipe      string

	addDate        string
	addHeure       string
	addIngredients []string
	addRecipe      string
	addFromURL     string
)

func init() {
	mealsCmd.AddCommand(mealsListCmd)
	mealsCmd.AddCommand(mealsUpdateCmd)
	mealsCmd.AddCommand(mealsAddCmd)

	f := mealsListCmd.Flags()
	f.IntVar(&listLimit, "limit", 30, "maximum number of meals")
	f.StringVar(&listStart, "start", "", "earliest date (YYYY-MM-DD)")
	f.StringVar(&listEnd, "end", "", "latest date (YYYY-MM-DD)")
	f.StringVar(&listSearch, "search", "", "text the meal name must contain")

	f = mealsUpdateCmd.Flags()
	f.StringVar(&updateID, "id", "", "meal id; otherwise the meal is found by name")
	f.StringVar(&updateName, "name", "", "new name")
	f.StringVar(&updateDate, "date", "", "new date (YYYY-MM-DD)")
	f.StringVar(&updateHeure, "heure", "", "new time slot (Midi or Soir)")
	f.StringSliceVar(&updateIngredients, "ingredient", nil, "replace the ingredient tags (repeatable)")
	f.StringVar(&updateRecipe, "recipe", "", "new recipe link")

	f = mealsAddCmd.Flags()
	f.StringVar(&addDate, "date", "", "date eaten (YYYY-MM-DD)")
	f.StringVar(&addHeure, "heure", meals.HeureSoir, "time slot (Midi or Soir)")
	f.StringSliceVar(&addIngredients, "ingredient", nil, "ingredient tag (repeatable)")
	f.StringVar(&addRecipe, "recipe", "", "recipe link")
	f.StringVar(&addFromURL, "from-url", "", "fill name, ingredients and link from a recipe page")
}

var mealsCmd = &cobra.Command{
	Use:   "meals",
	Short: "Browse and edit the meal history",
}

var mealsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent meals",
	Long: `List meals from the history, most recent first.

Examples:
  meal-planner meals list --limit 10
  meal-planner meals list --start 2026-02-01 --search gratin`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		q := meals.Query{Limit: listLimit, StartDate: listStart, EndDate: listEnd, Search: listSearch}
		found, err := e.app.MealStore().ListMeals(cmd.Context(), q)
		if err != nil {
			return err
		}
		fmt.Print(tools.RenderMeals(found, q))
		return nil
	},
}

var mealsUpdateCmd = &cobra.Command{
	Use:   "update [name search]",
	Short: "Change a meal found by id or by name",
	Long: `Change a meal. Without --id the most recent meal whose name contains
the search text is updated.

Examples:
  meal-planner meals update "gratin" --date 2026-03-04 --heure Midi
  meal-planner meals update --id 1f0c... --ingredient poireaux --ingredient crème`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var search string
		if len(args) == 1 {
			search = args[0]
		}
		if updateID == "" && search == "" {
			return errors.New("either --id or a name search is required")
		}

		var u meals.Update
		flags := cmd.Flags()
		if flags.Changed("name") {
			u.Name = &updateName
		}
		if flags.Changed("date") {
			u.Date = &updateDate
		}
		if flags.Changed("heure") {
			u.Heure = &updateHeure
		}
		if flags.Changed("ingredient") {
			u.Ingredients = updateIngredients
		}
		if flags.Changed("recipe") {
			u.Recipe = &updateRecipe
		}
		if u.IsEmpty() {
			fmt.Println("No changes requested.")
			return nil
		}

		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		store := e.app.MealStore()
		id, err := meals.ResolveTarget(cmd.Context(), store, updateID, search)
		if err != nil {
			return err
		}
		m, err := store.UpdateMeal(cmd.Context(), id, u)
		if err != nil {
			return err
		}
		fmt.Printf("Updated meal:\n\n%s", tools.RenderMeal(m))
		return nil
	},
}

var mealsAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Record a meal in the history",
	Long: `Record a meal. With --from-url the name, ingredients and recipe link are
taken from the recipe page; flags still override them.

Examples:
  meal-planner meals add "Soupe de potiron" --date 2026-03-02
  meal-planner meals add --from-url https://example.com/blanquette --date 2026-03-05`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		var m meals.Meal
		if addFromURL != "" {
			if m, err = e.app.ClipRecipe(cmd.Context(), addFromURL); err != nil {
				return err
			}
		}
		if len(args) == 1 {
			m.Name = strings.TrimSpace(args[0])
		}
		m.Date = addDate
		m.Heure = addHeure
		if len(addIngredients) > 0 {
			m.Ingredients = addIngredients
		}
		if addRecipe != "" {
			m.Recipe = addRecipe
		}
		if m.Name == "" || m.Date == "" {
			return errors.New("name and date are required")
		}

		added, err := e.app.MealStore().AddMeal(cmd.Context(), m)
		if err != nil {
			return err
		}
		fmt.Printf("Added meal:\n\n%s", tools.RenderMeal(added))
		return nil
	},
}
