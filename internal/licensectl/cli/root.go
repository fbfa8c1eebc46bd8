// Package cli implements the licensectl command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/alekostrader/alkadmin/internal/licensectl/app"
	"github.com/alekostrader/alkadmin/pkg/slogx"
	"github.com/spf13/cobra"
)

// Output formats for commands that print licenses.
const (
	OutputTable = "table"
	OutputJSON  = "json"
)

type rootFlags struct {
	envFile    string
	apiURL     string
	mode       string
	tokenStore string
	logLevel   string
}

// state is shared by every command of one invocation.
type state struct {
	flags rootFlags
	app   *app.Application
}

// skipApp marks commands that run without config, token store or API client.
const skipApp = "licensectl/skip-app"

// Execute runs licensectl with args and releases the token store afterwards.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	root, s := newRootCommand()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	configureColors(stdout)

	err := root.ExecuteContext(ctx)
	if s.app != nil {
		if closeErr := s.app.Close(); err == nil {
			err = closeErr
		}
	}
	return err
}

func newRootCommand() (*cobra.Command, *state) {
	s := &state{}

	root := &cobra.Command{
		Use:   "licensectl",
		Short: "Administer AlekosTrader licenses",
		Long: `licensectl manages AlekosTrader licenses through the admin API.

Log in once; the session token is kept (encrypted) in the local token store and
used by every later command until you log out.

Configuration is read from the environment and an optional .env file:
  LICENSECTL_MODE          production or development (default production)
  LICENSECTL_API_URL       overrides the mode's API URL (ignored when --mode is given)
  LICENSECTL_TOKEN_STORE   sqlite, redis or memory (default sqlite)
  LICENSECTL_MASTER_KEY_FILE
                           key that seals the stored token; with the redis
                           store every machine sharing the session needs a
                           copy of the same file
`,
		SilenceUsage:      true,
		PersistentPreRunE: s.setup,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	pf := root.PersistentFlags()
	pf.StringVar(&s.flags.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	pf.StringVar(&s.flags.apiURL, "api-url", "", "admin API base URL (overrides LICENSECTL_API_URL and --mode)")
	pf.StringVar(&s.flags.mode, "mode", "", "production or development; selects that mode's API URL, overriding LICENSECTL_MODE and LICENSECTL_API_URL")
	pf.StringVar(&s.flags.tokenStore, "token-store", "", "sqlite, redis or memory (overrides LICENSECTL_TOKEN_STORE)")
	pf.StringVar(&s.flags.logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")

	root.AddCommand(
		s.loginCommand(),
		s.logoutCommand(),
		s.statusCommand(),
		s.createCommand(),
		s.listCommand(),
		s.actionCommand(activateAction),
		s.actionCommand(deactivateAction),
		s.actionCommand(resetHardwareAction),
		versionCommand(),
	)

	return root, s
}

func (s *state) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[skipApp] == "true" || cmd.Name() == "help" {
		return nil
	}

	if err := app.LoadDotEnv(s.flags.envFile); err != nil {
		return err
	}

	cfg := app.LoadConfig()
	if s.flags.apiURL != "" {
		cfg.APIURL = s.flags.apiURL
	}
	if s.flags.mode != "" {
		// An explicit --mode picks that mode's URL unless --api-url is also given.
		cfg.Mode = s.flags.mode
		if s.flags.apiURL == "" {
			cfg.APIURL = ""
		}
	}
	if s.flags.tokenStore != "" {
		cfg.TokenStore = s.flags.tokenStore
	}
	if s.flags.logLevel != "" {
		cfg.LogLevel = s.flags.logLevel
	}

	application, err := app.New(cmd.Context(), cfg, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	s.app = application

	cmd.SetContext(slogx.WithContext(cmd.Context(), application.Logger()))
	return nil
}

var errNotLoggedIn = errors.New("not logged in: run `licensectl login` first")

// requireLogin fails fast instead of letting the API answer 401.
func (s *state) requireLogin(cmd *cobra.Command) error {
	loggedIn, err := s.app.Session().IsLoggedIn(cmd.Context())
	if err != nil {
		return err
	}
	if !loggedIn {
		return errNotLoggedIn
	}
	return nil
}

func outputFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "output", "o", OutputTable, "output format: table or json")
}

func checkOutput(format string) error {
	switch format {
	case OutputTable, OutputJSON:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want table or json)", format)
	}
}
