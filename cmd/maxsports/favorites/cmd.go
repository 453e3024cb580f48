// Package favoritescmd implements `maxsports favorites` and its
// subcommands.
package favoritescmd

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/maxsports/cmd/maxsports/shared"
	"github.com/sakif/maxsports/internal/app"
	"github.com/sakif/maxsports/internal/listing"
	"github.com/sakif/maxsports/internal/model"
	"github.com/sakif/maxsports/internal/service"
)

// Command implements `maxsports favorites`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	query   listing.Query
	tags    []string
	text    string
	json    bool
	outFile string
	yes     bool
}

// New creates the favorites command tree.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "favorites",
		Short: "Manage your favorite exercises",
		RunE:  func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List favorites",
		Args:  cobra.NoArgs,
		RunE:  c.withUser(c.list),
	}
	lf := list.Flags()
	lf.StringVar(&c.query.Search, "search", "", "Text to search for in title, level, equipment and tags")
	lf.StringVar(&c.query.Category, "category", "", "Only favorites with this tag")
	lf.StringVar(&c.query.Sort, "sort", listing.SortAddedAt, "Sort by: addedAt, title, level")
	lf.StringVar(&c.query.Order, "order", listing.OrderDesc, "Sort order: asc, desc")
	lf.StringSliceVar(&c.tags, "tag", nil, "Only favorites with any of these tags (repeatable or comma-separated)")
	lf.StringVarP(&c.text, "query", "q", "", "Free-text match on title, level, equipment and tags")
	lf.BoolVar(&c.json, "json", false, "Print as JSON")

	add := &cobra.Command{
		Use:   "add <exercise-id>",
		Short: "Add an exercise to your favorites",
		Args:  cobra.ExactArgs(1),
		RunE:  c.withUser(c.add),
	}
	remove := &cobra.Command{
		Use:   "remove <exercise-id>",
		Short: "Remove an exercise from your favorites",
		Args:  cobra.ExactArgs(1),
		RunE:  c.withUser(c.remove),
	}
	toggle := &cobra.Command{
		Use:   "toggle <exercise-id>",
		Short: "Add the exercise if it is not a favorite, remove it if it is",
		Args:  cobra.ExactArgs(1),
		RunE:  c.withUser(c.toggle),
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Summarize your favorites",
		Args:  cobra.NoArgs,
		RunE:  c.withUser(c.stats),
	}
	stats.Flags().BoolVar(&c.json, "json", false, "Print as JSON")

	export := &cobra.Command{
		Use:   "export",
		Short: "Export your favorites as JSON",
		Args:  cobra.NoArgs,
		RunE:  c.withUser(c.export),
	}
	export.Flags().StringVarP(&c.outFile, "out", "o", "", "Write to this file instead of stdout")

	clearAll := &cobra.Command{
		Use:   "clear",
		Short: "Remove all favorites",
		Args:  cobra.NoArgs,
		RunE:  c.withUser(c.clear),
	}
	clearAll.Flags().BoolVar(&c.yes, "yes", false, "Confirm removing every favorite")

	c.cmd.AddCommand(list, add, remove, toggle, stats, export, clearAll)
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

type action func(cmd *cobra.Command, a *app.App, user *model.User, args []string) error

// withUser opens the app and resolves the logged-in user before running fn.
func (c *Command) withUser(fn action) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := c.ctx.Open(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := shared.CurrentUser(cmd, a)
		if err != nil {
			return err
		}
		return fn(cmd, a, user, args)
	}
}

func (c *Command) list(cmd *cobra.Command, a *app.App, user *model.User, _ []string) error {
	entries, err := c.find(cmd, a, user)
	if err != nil {
		return err
	}
	if c.json {
		return shared.PrintJSON(cmd.OutOrStdout(), entries)
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No favorites yet.")
		return nil
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.Itoa(e.ID),
			e.Title,
			e.Level,
			e.Equipment,
			strings.Join(e.Tags, ", "),
			e.AddedAt.Local().Format(time.DateOnly),
		})
	}
	shared.PrintTable(out, []string{"ID", "TITLE", "LEVEL", "EQUIPMENT", "TAGS", "ADDED"}, rows)
	fmt.Fprintf(out, "%d favorites\n", len(entries))
	return nil
}

// find picks the lookup for the list flags: --tag, then --query, then the
// search/category/sort query. --sort and --order apply to all three.
func (c *Command) find(cmd *cobra.Command, a *app.App, user *model.User) ([]model.FavoriteEntry, error) {
	var (
		entries []model.FavoriteEntry
		err     error
	)
	switch {
	case cmd.Flags().Changed("tag"):
		entries, err = a.Favorites.ByTags(cmd.Context(), user.ID, c.tags)
	case cmd.Flags().Changed("query"):
		entries, err = a.Favorites.Search(cmd.Context(), user.ID, c.text)
	default:
		return a.Favorites.Query(cmd.Context(), user.ID, c.query)
	}
	if err != nil {
		return nil, err
	}
	listing.SortItems(entries, c.query.Sort, c.query.Order)
	return entries, nil
}

func (c *Command) add(cmd *cobra.Command, a *app.App, user *model.User, args []string) error {
	card, err := lookup(cmd, a, args[0])
	if err != nil {
		return err
	}
	added, notice, err := a.Favorites.Add(cmd.Context(), user.ID, *card)
	if err != nil {
		return err
	}
	if !added {
		fmt.Fprintln(cmd.OutOrStdout(), notice)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s to favorites\n", card.Title)
	return nil
}

func (c *Command) remove(cmd *cobra.Command, a *app.App, user *model.User, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := a.Favorites.Remove(cmd.Context(), user.ID, id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed exercise %d from favorites\n", id)
	return nil
}

func (c *Command) toggle(cmd *cobra.Command, a *app.App, user *model.User, args []string) error {
	card, err := lookup(cmd, a, args[0])
	if err != nil {
		return err
	}
	nowFavorite, err := a.Catalog.ToggleFavorite(cmd.Context(), user.ID, *card)
	if err != nil {
		return err
	}
	if nowFavorite {
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s to favorites\n", card.Title)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from favorites\n", card.Title)
	}
	return nil
}

func (c *Command) stats(cmd *cobra.Command, a *app.App, user *model.User, _ []string) error {
	stats, err := a.Favorites.Stats(cmd.Context(), user.ID)
	if err != nil {
		return err
	}
	if c.json {
		return shared.PrintJSON(cmd.OutOrStdout(), stats)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Total: %d\n", stats.Total)
	printCounts(cmd, "By level", stats.ByLevel)
	printCounts(cmd, "By equipment", stats.ByEquipment)
	printCounts(cmd, "By tag", stats.ByTag)
	fmt.Fprintf(out, "Added in the last 7 days: %d\n", len(stats.Recent))
	return nil
}

func (c *Command) export(cmd *cobra.Command, a *app.App, user *model.User, _ []string) error {
	snapshot, err := a.Favorites.Export(cmd.Context(), user.ID)
	if errors.Is(err, service.ErrNothingToExport) {
		fmt.Fprintln(cmd.OutOrStdout(), "No favorites to export.")
		return nil
	}
	if err != nil {
		return err
	}
	if c.outFile == "" {
		return shared.PrintJSON(cmd.OutOrStdout(), snapshot)
	}

	f, err := os.Create(c.outFile)
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", c.outFile, err)
	}
	if err := shared.PrintJSON(f, snapshot); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d favorites to %s\n", snapshot.Count, c.outFile)
	return nil
}

func (c *Command) clear(cmd *cobra.Command, a *app.App, user *model.User, _ []string) error {
	if !c.yes {
		return errors.New("refusing to remove every favorite without --yes")
	}
	n, err := a.Favorites.ClearAll(cmd.Context(), user.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d favorites\n", n)
	return nil
}

func lookup(cmd *cobra.Command, a *app.App, arg string) (*model.ExerciseCard, error) {
	id, err := parseID(arg)
	if err != nil {
		return nil, err
	}
	return a.Catalog.Lookup(cmd.Context(), id)
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid exercise id %q", arg)
	}
	return id, nil
}

func printCounts(cmd *cobra.Command, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(cmd.OutOrStdout(), "%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-16s %d\n", k, counts[k])
	}
}
