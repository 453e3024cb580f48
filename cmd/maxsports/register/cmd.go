// Package registercmd implements `maxsports register`.
package registercmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sakif/maxsports/cmd/maxsports/shared"
	"github.com/sakif/maxsports/internal/service"
)

// Command implements `maxsports register`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	username string
	email    string
	phone    string
	password string
	remember bool
}

// New creates the register command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}

	f := c.cmd.Flags()
	f.StringVar(&c.username, "username", "", "Username, 3-20 letters, digits or underscores (required)")
	f.StringVar(&c.email, "email", "", "Email address (required)")
	f.StringVar(&c.phone, "phone", "", "Phone number")
	f.StringVar(&c.password, "password", "", "Password (prompted when omitted)")
	f.BoolVar(&c.remember, "remember", false, "Stay logged in after this command")

	_ = c.cmd.MarkFlagRequired("username")
	_ = c.cmd.MarkFlagRequired("email")

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	password, confirm := c.password, c.password
	if password == "" {
		var err error
		if password, err = c.ctx.Password(cmd, "", "Password: "); err != nil {
			return err
		}
		if confirm, err = c.ctx.Password(cmd, "", "Confirm password: "); err != nil {
			return err
		}
	}

	a, err := c.ctx.Open(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Auth.Register(cmd.Context(), service.RegisterInput{
		Username:        c.username,
		Email:           c.email,
		Password:        password,
		ConfirmPassword: confirm,
		Phone:           c.phone,
	}, c.remember)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (id: %s)\n", res.User.Username, res.User.ID)
	if !c.remember {
		fmt.Fprintln(cmd.OutOrStdout(), "Run `maxsports login --remember` to stay logged in.")
	}
	return nil
}
