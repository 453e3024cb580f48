// Package shared holds the state every maxsports command receives from the
// root command, and the helpers they use to open the application.
package shared

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sakif/maxsports/internal/app"
	"github.com/sakif/maxsports/internal/apperror"
	"github.com/sakif/maxsports/internal/config"
	"github.com/sakif/maxsports/internal/logging"
	"github.com/sakif/maxsports/internal/model"
)

// Context carries the root command's flags.
type Context struct {
	// ConfigPath is the YAML config file. Empty means config.DefaultPath().
	ConfigPath string
	// DataDir overrides storage.data_dir from the file and the environment.
	DataDir string
	// Offline serves the catalog from the embedded seed.
	Offline bool

	// Options is passed to app.New; tests replace the HTTP client here.
	Options app.Options

	// ReadPassword prompts for a secret. nil uses the terminal without echo,
	// or reads a line from the command's input when it is not a terminal.
	ReadPassword func(cmd *cobra.Command, prompt string) (string, error)

	stdin *bufio.Reader
}

// Config resolves the configuration: file, then environment, then flags.
func (c *Context) Config() (*config.Config, error) {
	path := c.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if c.DataDir != "" {
		cfg.Storage.DataDir = c.DataDir
	}
	if c.Offline {
		cfg.Catalog.Offline = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Open builds the application. Logs go to the command's stderr. The caller
// closes the App.
func (c *Context) Open(cmd *cobra.Command) (*app.App, error) {
	cfg, err := c.Config()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	return app.New(cmd.Context(), cfg, logger, c.Options)
}

// CurrentUser returns the stored record of the logged-in user, or an error
// telling the user to log in. Only remembered logins outlive a command, see
// the login command.
func CurrentUser(cmd *cobra.Command, a *app.App) (*model.User, error) {
	user, err := a.Auth.Current(cmd.Context())
	if errors.Is(err, apperror.ErrUnauthorized) {
		return nil, ErrNotLoggedIn
	}
	if err != nil {
		return nil, err
	}
	// The session holds a snapshot; the store has the current counts.
	return a.Users.FindByID(cmd.Context(), user.ID)
}

// ErrNotLoggedIn is returned by commands that need a remembered login.
var ErrNotLoggedIn = errors.New("not logged in: run `maxsports login --remember` first")

// Password returns value when it is set, and prompts for it otherwise.
func (c *Context) Password(cmd *cobra.Command, value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}
	if c.ReadPassword != nil {
		return c.ReadPassword(cmd, prompt)
	}
	return c.readPassword(cmd, prompt)
}

func (c *Context) readPassword(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)

	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}

	if c.stdin == nil {
		c.stdin = bufio.NewReader(cmd.InOrStdin())
	}
	line, err := c.stdin.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

