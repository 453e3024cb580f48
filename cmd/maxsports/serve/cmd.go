// Package servecmd implements `maxsports serve`.
package servecmd

import (
	"github.com/spf13/cobra"

	"github.com/sakif/maxsports/cmd/maxsports/shared"
	"github.com/sakif/maxsports/internal/server"
)

// Command implements `maxsports serve`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	port int
}

// New creates the serve command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the local JSON API until interrupted",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	c.cmd.Flags().IntVar(&c.port, "port", 0, "Port to listen on (default: $PORT → config → 8080)")
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

	if c.port != 0 {
		a.Config.Server.Port = c.port
	}
	return server.New(a).Start(cmd.Context())
}
