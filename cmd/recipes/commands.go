package main

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pkordes/betterrecipe/internal/domain"
	"github.com/pkordes/betterrecipe/internal/service"
)

func (a *app) listCmd() *cobra.Command {
	var search, sort string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recipes as the catalog displays them",
		Long: `List recipes matching --search, ordered by --sort.

The INDEX column is the row's position in this view; pass it to
"recipes delete" together with the same --search and --sort flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withCatalog(cmd.Context(), search, sort, func(c *service.Catalog) error {
				rows := c.List()
				if a.asJSON {
					return a.printJSON(rows)
				}
				if len(rows) == 0 {
					fmt.Fprintln(a.out, "No recipes.")
					return nil
				}
				tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "INDEX\tFAV\tTITLE\tID")
				for _, r := range rows {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.Index, star(r.IsFavorite), r.Title, r.ID)
				}
				return tw.Flush()
			})
		},
	}
	addViewFlags(cmd, &search, &sort)
	return cmd
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withCatalog(cmd.Context(), "", "", func(c *service.Catalog) error {
				r, err := c.Get(id)
				if err != nil {
					return err
				}
				return a.printRecipe(r)
			})
		},
	}
}

func (a *app) addCmd() *cobra.Command {
	var (
		ingredients  []string
		instructions string
		favorite     bool
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withCatalog(ctx, "", "", func(c *service.Catalog) error {
				s := c.BeginCreate()
				if err := s.SetTitle(ctx, args[0]); err != nil {
					return err
				}
				for _, item := range ingredients {
					if err := s.AddIngredient(ctx, item); err != nil {
						return err
					}
				}
				if err := s.SetInstructions(ctx, instructions); err != nil {
					return err
				}
				if favorite {
					if err := s.ToggleFavorite(ctx); err != nil {
						return err
					}
				}
				if err := s.Commit(ctx); err != nil {
					return err
				}
				a.log.Debug("recipe created", "id", s.RecipeID())
				if a.asJSON {
					return a.printJSON(s.Recipe())
				}
				fmt.Fprintf(a.out, "Created %q (%s)\n", args[0], s.RecipeID())
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVarP(&ingredients, "ingredient", "i", nil, "Ingredient to add (repeatable)")
	cmd.Flags().StringVar(&instructions, "instructions", "", "Preparation instructions")
	cmd.Flags().BoolVar(&favorite, "favorite", false, "Mark the recipe as a favorite")
	return cmd
}

func (a *app) editCmd() *cobra.Command {
	var (
		title        string
		instructions string
		add          []string
		remove       []int
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit an existing recipe",
		Long: `Edit an existing recipe. Every change is saved as it is applied.

Ingredient removals refer to positions in the list before the edit and are
applied before additions.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return a.withCatalog(ctx, "", "", func(c *service.Catalog) error {
				s, err := c.Open(id)
				if err != nil {
					return err
				}
				if err := s.ToggleEdit(); err != nil {
					return err
				}
				var newTitle, newInstructions *string
				if cmd.Flags().Changed("title") {
					newTitle = &title
				}
				if cmd.Flags().Changed("instructions") {
					newInstructions = &instructions
				}
				if err := s.Update(ctx, newTitle, newInstructions); err != nil {
					return err
				}
				// Highest index first so earlier positions stay valid.
				order := slices.Clone(remove)
				slices.Sort(order)
				slices.Reverse(order)
				for _, i := range slices.Compact(order) {
					if err := s.RemoveIngredient(ctx, i); err != nil {
						return err
					}
				}
				for _, item := range add {
					if err := s.AddIngredient(ctx, item); err != nil {
						return err
					}
				}
				return a.printRecipe(s.Recipe())
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&instructions, "instructions", "", "New instructions")
	cmd.Flags().StringArrayVar(&add, "add-ingredient", nil, "Ingredient to append (repeatable)")
	cmd.Flags().IntSliceVar(&remove, "remove-ingredient", nil, "Ingredient position to remove (repeatable)")
	return cmd
}

func (a *app) favoriteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "favorite <id>",
		Short: "Toggle a recipe's favorite flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withCatalog(cmd.Context(), "", "", func(c *service.Catalog) error {
				if err := c.ToggleFavorite(cmd.Context(), id); err != nil {
					return err
				}
				r, err := c.Get(id)
				if err != nil {
					return err
				}
				if a.asJSON {
					return a.printJSON(r)
				}
				if r.IsFavorite {
					fmt.Fprintf(a.out, "%q is now a favorite\n", r.Title)
				} else {
					fmt.Fprintf(a.out, "%q is no longer a favorite\n", r.Title)
				}
				return nil
			})
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	var search, sort string
	cmd := &cobra.Command{
		Use:   "delete <index>",
		Short: "Delete the recipe shown at index by list",
		Long: `Delete the recipe displayed at <index> by "recipes list" run with the
same --search and --sort flags.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("%w: index must be an integer", domain.ErrValidation)
			}
			return a.withCatalog(cmd.Context(), search, sort, func(c *service.Catalog) error {
				rows := c.List()
				if err := c.DeleteAt(cmd.Context(), index); err != nil {
					return err
				}
				// DeleteAt validated index, so rows[index] is the deleted row.
				if a.asJSON {
					return a.printJSON(rows[index])
				}
				fmt.Fprintf(a.out, "Deleted %q\n", rows[index].Title)
				return nil
			})
		},
	}
	addViewFlags(cmd, &search, &sort)
	return cmd
}

// ---- output helpers --------------------------------------------------------

func addViewFlags(cmd *cobra.Command, search, sort *string) {
	cmd.Flags().StringVarP(search, "search", "s", "", "Only recipes whose title contains this text (case-insensitive)")
	cmd.Flags().StringVar(sort, "sort", "none", "Sort mode: none, alphabetical or favorites")
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printRecipe(r domain.Recipe) error {
	if a.asJSON {
		return a.printJSON(r)
	}
	fmt.Fprintf(a.out, "%s %s\n", star(r.IsFavorite), r.Title)
	fmt.Fprintf(a.out, "id: %s\n", r.ID)
	if len(r.Ingredients) > 0 {
		fmt.Fprintln(a.out, "\nIngredients:")
		for i, item := range r.Ingredients {
			fmt.Fprintf(a.out, "  %d. %s\n", i, item)
		}
	}
	if r.Instructions != "" {
		fmt.Fprintf(a.out, "\nInstructions:\n%s\n", r.Instructions)
	}
	return nil
}

func star(favorite bool) string {
	if favorite {
		return "*"
	}
	return "-"
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q is not a recipe id", domain.ErrValidation, s)
	}
	return id, nil
}
