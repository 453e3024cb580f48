// Package exercisescmd implements `maxsports exercises`.
package exercisescmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sakif/maxsports/cmd/maxsports/shared"
	"github.com/sakif/maxsports/internal/apperror"
	"github.com/sakif/maxsports/internal/catalog"
)

// Command implements `maxsports exercises`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	query catalog.ViewQuery
	json  bool
}

// New creates the exercises command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "exercises",
		Short: "Browse the exercise catalog",
		Long: `Show one page of the exercise catalog. When logged in, favorites are
marked with a star.`,
		Args: cobra.NoArgs,
		RunE: c.run,
	}

	f := c.cmd.Flags()
	f.IntVar(&c.query.Page, "page", 1, "Page number")
	f.IntVar(&c.query.Limit, "limit", 0, "Exercises per page (default: config catalog.page_size)")
	f.StringVar(&c.query.Search, "search", "", "Text to search for")
	f.StringVar(&c.query.Category, "category", "", "Only exercises with this tag")
	f.StringVar(&c.query.Sort, "sort", "", "Sort by: title, level")
	f.StringVar(&c.query.Order, "order", "", "Sort order: asc, desc")
	f.BoolVar(&c.json, "json", false, "Print the page as JSON")

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	a, err := c.ctx.Open(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	var userID string
	user, err := a.Auth.Current(cmd.Context())
	switch {
	case err == nil:
		userID = user.ID
	case !errors.Is(err, apperror.ErrUnauthorized):
		return err
	}

	page, err := a.Catalog.Load(cmd.Context(), userID, c.query)
	if err != nil {
		return err
	}
	if c.json {
		return shared.PrintJSON(cmd.OutOrStdout(), page)
	}

	out := cmd.OutOrStdout()
	if len(page.Cards) == 0 {
		fmt.Fprintln(out, "No exercises found.")
		return nil
	}

	rows := make([][]string, 0, len(page.Cards))
	for _, card := range page.Cards {
		rows = append(rows, []string{
			strconv.Itoa(card.ID),
			card.Title,
			card.Level,
			card.Equipment,
			card.TimeReq,
			strings.Join(card.Tags, ", "),
			shared.Star(card.IsFavorite),
		})
	}
	shared.PrintTable(out, []string{"ID", "TITLE", "LEVEL", "EQUIPMENT", "TIME", "TAGS", "FAV"}, rows)
	fmt.Fprintf(out, "Page %d of %d (%d exercises)\n", page.Page, page.TotalPages, page.Total)
	if len(page.Categories) > 0 {
		fmt.Fprintf(out, "Categories: %s\n", strings.Join(page.Categories, ", "))
	}
	return nil
}
