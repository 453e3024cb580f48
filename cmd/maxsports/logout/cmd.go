// Package logoutcmd implements `maxsports logout`.
package logoutcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sakif/maxsports/cmd/maxsports/shared"
)

// Command implements `maxsports logout`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the logout command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "logout",
		Short: "End the remembered session",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
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

	if err := a.Auth.Logout(cmd.Context()); err != nil {
		return err
	}
	if a.Remote != nil {
		if err := a.Remote.Logout(cmd.Context()); err != nil {
			return err
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
	return nil
}
