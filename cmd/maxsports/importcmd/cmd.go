// Package importcmd implements `maxsports import`.
package importcmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/maxsports/cmd/maxsports/shared"
)

// Command implements `maxsports import`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	usersFile     string
	favoritesFile string
}

// New creates the import command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "import",
		Short: "Import users and favorites exported from the browser app",
		Long: `Import the maxSports_users and maxSports_favorites values saved by the
browser version of MAX Sports. Accounts that already exist are skipped, and
so are favorites already in the list.`,
		Args: cobra.NoArgs,
		RunE: c.run,
	}

	f := c.cmd.Flags()
	f.StringVar(&c.usersFile, "users", "", "JSON file with the maxSports_users value (required)")
	f.StringVar(&c.favoritesFile, "favorites", "", "JSON file with the maxSports_favorites value")
	_ = c.cmd.MarkFlagRequired("users")

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	users, err := os.ReadFile(c.usersFile)
	if err != nil {
		return fmt.Errorf("failed to read users file %q: %w", c.usersFile, err)
	}
	var favorites []byte
	if c.favoritesFile != "" {
		if favorites, err = os.ReadFile(c.favoritesFile); err != nil {
			return fmt.Errorf("failed to read favorites file %q: %w", c.favoritesFile, err)
		}
	}

	a, err := c.ctx.Open(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.ImportLegacy(cmd.Context(), users, favorites)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d users and %d favorites\n", res.Users, res.Favorites)
	return nil
}
