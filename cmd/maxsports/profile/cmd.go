// Package profilecmd implements `maxsports profile` and its subcommands.
package profilecmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sakif/maxsports/cmd/maxsports/shared"
	"github.com/sakif/maxsports/internal/app"
	"github.com/sakif/maxsports/internal/model"
	"github.com/sakif/maxsports/internal/service"
)

// Command implements `maxsports profile`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	json bool

	displayName string
	phone       string
	bio         string

	notifications bool
	newsletter    bool
	theme         string

	current string
	next    string
}

// New creates the profile command tree.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "profile",
		Short: "Show or edit your profile",
		RunE:  func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show your profile",
		Args:  cobra.NoArgs,
		RunE:  c.withUser(c.show),
	}
	show.Flags().BoolVar(&c.json, "json", false, "Print as JSON")

	update := &cobra.Command{
		Use:   "update",
		Short: "Change display name, phone or bio; omitted flags keep their value",
		Args:  cobra.NoArgs,
		RunE:  c.withUser(c.update),
	}
	uf := update.Flags()
	uf.StringVar(&c.displayName, "display-name", "", "Display name, 1-30 characters")
	uf.StringVar(&c.phone, "phone", "", "Phone number")
	uf.StringVar(&c.bio, "bio", "", "Short bio, up to 200 characters")

	prefs := &cobra.Command{
		Use:   "prefs",
		Short: "Change notification settings and theme; omitted flags keep their value",
		Args:  cobra.NoArgs,
		RunE:  c.withUser(c.prefs),
	}
	pf := prefs.Flags()
	pf.BoolVar(&c.notifications, "notifications", true, "Receive notifications")
	pf.BoolVar(&c.newsletter, "newsletter", false, "Receive the newsletter")
	pf.StringVar(&c.theme, "theme", "", "Theme: light, dark, auto")

	password := &cobra.Command{
		Use:   "password",
		Short: "Change your password",
		Args:  cobra.NoArgs,
		RunE:  c.withUser(c.password),
	}
	pwf := password.Flags()
	pwf.StringVar(&c.current, "current", "", "Current password (prompted when omitted)")
	pwf.StringVar(&c.next, "new", "", "New password (prompted twice when omitted)")

	c.cmd.AddCommand(show, update, prefs, password)
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

type action func(cmd *cobra.Command, a *app.App, user *model.User) error

func (c *Command) withUser(fn action) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		a, err := c.ctx.Open(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := shared.CurrentUser(cmd, a)
		if err != nil {
			return err
		}
		return fn(cmd, a, user)
	}
}

func (c *Command) show(cmd *cobra.Command, _ *app.App, user *model.User) error {
	if c.json {
		return shared.PrintJSON(cmd.OutOrStdout(), user.Public())
	}

	avatar := "default"
	if user.Profile.Avatar != nil && *user.Profile.Avatar != "" {
		avatar = "custom"
	}
	prefs := user.Profile.Preferences

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Username:      %s\n", user.Username)
	fmt.Fprintf(out, "Display name:  %s\n", user.Name())
	fmt.Fprintf(out, "Email:         %s\n", user.Email)
	fmt.Fprintf(out, "Phone:         %s\n", user.Phone)
	fmt.Fprintf(out, "Bio:           %s\n", user.Profile.Bio)
	fmt.Fprintf(out, "Avatar:        %s\n", avatar)
	fmt.Fprintf(out, "Favorites:     %d\n", user.Profile.FavoritesCount)
	fmt.Fprintf(out, "Notifications: %t\n", prefs.Notifications)
	fmt.Fprintf(out, "Newsletter:    %t\n", prefs.Newsletter)
	fmt.Fprintf(out, "Theme:         %s\n", prefs.EffectiveTheme())
	fmt.Fprintf(out, "Member since:  %s\n", user.CreatedAt.Local().Format("January 2006"))
	return nil
}

func (c *Command) update(cmd *cobra.Command, a *app.App, user *model.User) error {
	in := service.ProfileInput{
		DisplayName: user.Name(),
		Phone:       user.Phone,
		Bio:         user.Profile.Bio,
	}
	f := cmd.Flags()
	if f.Changed("display-name") {
		in.DisplayName = c.displayName
	}
	if f.Changed("phone") {
		in.Phone = c.phone
	}
	if f.Changed("bio") {
		in.Bio = c.bio
	}

	updated, err := a.Profiles.UpdateProfile(cmd.Context(), user.ID, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Profile updated for %s\n", updated.Name())
	return nil
}

func (c *Command) prefs(cmd *cobra.Command, a *app.App, user *model.User) error {
	current := user.Profile.Preferences
	in := service.PreferencesInput{
		Notifications: current.Notifications,
		Newsletter:    current.Newsletter,
		Theme:         current.EffectiveTheme(),
	}
	f := cmd.Flags()
	if f.Changed("notifications") {
		in.Notifications = c.notifications
	}
	if f.Changed("newsletter") {
		in.Newsletter = c.newsletter
	}
	if f.Changed("theme") {
		in.Theme = c.theme
	}

	updated, err := a.Profiles.UpdatePreferences(cmd.Context(), user.ID, in)
	if err != nil {
		return err
	}
	p := updated.Profile.Preferences
	fmt.Fprintf(cmd.OutOrStdout(), "Preferences saved: notifications=%t newsletter=%t theme=%s\n",
		p.Notifications, p.Newsletter, p.Theme)
	return nil
}

func (c *Command) password(cmd *cobra.Command, a *app.App, user *model.User) error {
	current, err := c.ctx.Password(cmd, c.current, "Current password: ")
	if err != nil {
		return err
	}
	next, confirm := c.next, c.next
	if next == "" {
		if next, err = c.ctx.Password(cmd, "", "New password: "); err != nil {
			return err
		}
		if confirm, err = c.ctx.Password(cmd, "", "Confirm new password: "); err != nil {
			return err
		}
	}

	if err := a.Profiles.ChangePassword(cmd.Context(), user.ID, current, next, confirm); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Password changed")
	return nil
}
