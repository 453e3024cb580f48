// Package logincmd implements `maxsports login`.
package logincmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sakif/maxsports/cmd/maxsports/shared"
)

// Command implements `maxsports login`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	password string
	remember bool
}

// New creates the login command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "login <username-or-email>",
		Short: "Log in",
		Long: `Log in with a username or an email.

Without --remember the session lives in memory and ends with this command,
so the other commands will not see it.`,
		Args: cobra.ExactArgs(1),
		RunE: c.run,
	}

	f := c.cmd.Flags()
	f.StringVar(&c.password, "password", "", "Password (prompted when omitted)")
	f.BoolVar(&c.remember, "remember", false, "Stay logged in after this command")

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	password, err := c.ctx.Password(cmd, c.password, "Password: ")
	if err != nil {
		return err
	}

	a, err := c.ctx.Open(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Auth.Login(cmd.Context(), args[0], password, c.remember)
	if err != nil {
		return err
	}

	// Bookmark sync needs a token from the remote API too. A failure there
	// leaves the local login in place.
	if a.Remote != nil && a.Config.Catalog.SyncBookmarks {
		if _, err := a.Remote.Login(cmd.Context(), res.User.Username, password); err != nil {
			a.Logger.Warn("remote login failed, bookmarks stay local",
				slog.String("username", res.User.Username),
				slog.String("error", err.Error()),
			)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", res.User.Name())
	if !c.remember {
		fmt.Fprintln(cmd.OutOrStdout(), "Session ends with this command; use --remember to stay logged in.")
	}
	return nil
}
