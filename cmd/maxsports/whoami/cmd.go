// Package whoamicmd implements `maxsports whoami`.
package whoamicmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sakif/maxsports/cmd/maxsports/shared"
)

// Command implements `maxsports whoami`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	json bool
}

// New creates the whoami command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	c.cmd.Flags().BoolVar(&c.json, "json", false, "Print the user as JSON")
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

	user, err := shared.CurrentUser(cmd, a)
	if err != nil {
		return err
	}
	if c.json {
		return shared.PrintJSON(cmd.OutOrStdout(), user.Public())
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (@%s)\n", user.Name(), user.Username)
	fmt.Fprintf(out, "Email:     %s\n", user.Email)
	fmt.Fprintf(out, "Favorites: %d\n", user.Profile.FavoritesCount)
	return nil
}
