// Package rootcmd wires the root cobra.Command for the maxsports binary.
package rootcmd

import (
	"github.com/spf13/cobra"

	exercisescmd "github.com/sakif/maxsports/cmd/maxsports/exercises"
	favoritescmd "github.com/sakif/maxsports/cmd/maxsports/favorites"
	importcmd "github.com/sakif/maxsports/cmd/maxsports/importcmd"
	logincmd "github.com/sakif/maxsports/cmd/maxsports/login"
	logoutcmd "github.com/sakif/maxsports/cmd/maxsports/logout"
	profilecmd "github.com/sakif/maxsports/cmd/maxsports/profile"
	registercmd "github.com/sakif/maxsports/cmd/maxsports/register"
	servecmd "github.com/sakif/maxsports/cmd/maxsports/serve"
	"github.com/sakif/maxsports/cmd/maxsports/shared"
	whoamicmd "github.com/sakif/maxsports/cmd/maxsports/whoami"
)

// New creates the root command with default shared state.
func New() *cobra.Command {
	return NewWith(&shared.Context{})
}

// NewWith creates the root command around ctx, so tests can swap the
// password prompt and the HTTP client.
func NewWith(ctx *shared.Context) *cobra.Command {
	root := &cobra.Command{
		Use:           "maxsports",
		Short:         "MAX Sports: browse exercises and keep your favorites",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}

	f := root.PersistentFlags()
	f.StringVar(&ctx.ConfigPath, "config", "", "Config file (default ~/.maxsports/config.yaml)")
	f.StringVar(&ctx.DataDir, "data-dir", "", "Data directory (default: $MAXSPORTS_DATA_DIR → config → ~/.maxsports)")
	f.BoolVar(&ctx.Offline, "offline", false, "Use the built-in exercise list instead of the remote API")

	root.AddCommand(
		servecmd.New(ctx).Cmd(),
		registercmd.New(ctx).Cmd(),
		logincmd.New(ctx).Cmd(),
		logoutcmd.New(ctx).Cmd(),
		whoamicmd.New(ctx).Cmd(),
		exercisescmd.New(ctx).Cmd(),
		favoritescmd.New(ctx).Cmd(),
		profilecmd.New(ctx).Cmd(),
		importcmd.New(ctx).Cmd(),
	)

	return root
}
