package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alekostrader/alkadmin/pkg/cryptox"
	"github.com/alekostrader/alkadmin/pkg/jwtx"
	"github.com/spf13/cobra"
)

func (s *state) loginCommand() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as an admin and store the session token",
		Long: `Authenticate against the admin API and store the returned token.

The password is read from --password, or prompted for on stdin when omitted.
A successful login replaces any previously stored token.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				var err error
				password, err = readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
				if err != nil {
					return err
				}
			}
			if password == "" {
				return errors.New("password is required")
			}

			_, err := s.app.Client().Login(cmd.Context(), s.app.TokenStore(), username, password)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "admin username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "admin password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func (s *state) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Long:  `Delete the stored token. The server is not contacted.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := s.app.Session().Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

type statusView struct {
	LoggedIn    bool       `json:"loggedIn"`
	APIURL      string     `json:"apiUrl"`
	TokenStore  string     `json:"tokenStore"`
	Fingerprint string     `json:"tokenFingerprint,omitempty"`
	User        string     `json:"user,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	Expired     bool       `json:"expired,omitempty"`
}

func (s *state) statusCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether a session token is stored",
		Long: `Report whether a session token is stored, with the user and expiry it
claims when it is a JWT.

The claims are read without verifying the token; only the server can say
whether it is still accepted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}

			token, err := s.app.Session().Token(cmd.Context())
			if err != nil {
				return err
			}

			view := statusView{
				LoggedIn:   token != "",
				APIURL:     s.app.Client().BaseURL,
				TokenStore: s.app.Config().TokenStore,
			}

			if token != "" {
				view.Fingerprint = cryptox.FingerprintToken(token)[:12]

				if claims, err := jwtx.Peek(token); err == nil {
					view.User = claims.Name()
					if exp := claims.Expiry(); !exp.IsZero() {
						view.ExpiresAt = &exp
						view.Expired = errors.Is(claims.ValidateExpiryWithLeeway(time.Now(), 0), jwtx.ErrExpired)
					}
				} else if !errors.Is(err, jwtx.ErrNotJWT) {
					s.app.Logger().Debug("token claims unreadable", "error", err)
				}
			}

			if output == OutputJSON {
				return writeJSON(cmd.OutOrStdout(), view)
			}
			printStatus(cmd, view)
			return nil
		},
	}

	outputFlag(cmd, &output)
	return cmd
}

func printStatus(cmd *cobra.Command, v statusView) {
	var b strings.Builder

	if !v.LoggedIn {
		b.WriteString("Not logged in\n")
	} else {
		fmt.Fprintf(&b, "Logged in (token %s)\n", v.Fingerprint)
	}
	fmt.Fprintf(&b, "API:         %s\n", v.APIURL)
	fmt.Fprintf(&b, "Token store: %s\n", v.TokenStore)

	if v.User != "" {
		fmt.Fprintf(&b, "User:        %s\n", v.User)
	}
	if v.ExpiresAt != nil {
		suffix := ""
		if v.Expired {
			suffix = " (expired)"
		}
		fmt.Fprintf(&b, "Expires:     %s%s\n", v.ExpiresAt.UTC().Format(time.RFC3339), suffix)
	}

	fmt.Fprint(cmd.OutOrStdout(), b.String())
}
