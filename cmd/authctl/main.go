package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/redmonkez12/signup-api/cmd/authctl/ui"
	"github.com/redmonkez12/signup-api/internal/auth"
	"github.com/redmonkez12/signup-api/internal/client"
)

const defaultAPIURL = "http://localhost:4000"

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var apiURL, sessionPath string

	newClient := func() (*client.Client, error) {
		path := sessionPath
		if path == "" {
			p, err := client.DefaultSessionPath()
			if err != nil {
				return nil, err
			}
			path = p
		}
		return client.New(apiURL, client.NewFileSession(path)), nil
	}

	rootCmd := &cobra.Command{
		Use:           "authctl",
		Short:         "Sign up, log in and inspect your session against the signup API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", envOr("AUTHCTL_API_URL", defaultAPIURL), "API base URL")
	rootCmd.PersistentFlags().StringVar(&sessionPath, "session", os.Getenv("AUTHCTL_SESSION"), "Session file (defaults to the user config dir)")

	rootCmd.AddCommand(
		signupCmd(newClient),
		loginCmd(newClient),
		logoutCmd(newClient),
		whoamiCmd(newClient),
		resendCmd(newClient),
	)
	return rootCmd
}

type clientFactory func() (*client.Client, error)

func signupCmd(newClient clientFactory) *cobra.Command {
	var req auth.SignupRequest

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ui.SignupForm(&req); err != nil {
				return fmt.Errorf("form cancelled: %w", err)
			}

			c, err := newClient()
			if err != nil {
				return err
			}

			msg, err := c.Signup(cmd.Context(), req)
			if err != nil {
				return err
			}

			ui.PrintSuccess(cmd.OutOrStdout(), msg)
			ui.PrintHint(cmd.OutOrStdout(), "Follow the link sent to " + strings.ToLower(strings.TrimSpace(req.Email)) + ", then run: authctl login")
			return nil
		},
	}

	// Flags for non-interactive mode (CI/scripting)
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&req.Username, "username", "", "Username")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password")
	return cmd
}

func loginCmd(newClient clientFactory) *cobra.Command {
	var identifier, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with your email or username",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ui.LoginForm(&identifier, &password); err != nil {
				return fmt.Errorf("form cancelled: %w", err)
			}

			c, err := newClient()
			if err != nil {
				return err
			}

			view, err := c.Login(cmd.Context(), identifier, password)
			if err != nil {
				return err
			}

			ui.PrintUser(cmd.OutOrStdout(), "Logged in", view)
			return nil
		},
	}

	cmd.Flags().StringVarP(&identifier, "user", "u", "", "Email or username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password")
	return cmd
}

func logoutCmd(newClient clientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			if err := c.Logout(); err != nil {
				return err
			}
			ui.PrintSuccess(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func whoamiCmd(newClient clientFactory) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}

			view, err := c.CurrentUser()
			if remote && err == nil {
				view, err = c.Me(cmd.Context())
			}
			if errors.Is(err, client.ErrNotLoggedIn) {
				ui.PrintHint(cmd.OutOrStdout(), "Not logged in. Run: authctl login")
				return nil
			}
			if err != nil {
				return err
			}

			ui.PrintUser(cmd.OutOrStdout(), "Current user", view)
			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Validate the stored token against the API")
	return cmd
}

func resendCmd(newClient clientFactory) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "resend-verification",
		Short: "Request a new email verification link",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ui.EmailForm(&email); err != nil {
				return fmt.Errorf("form cancelled: %w", err)
			}

			c, err := newClient()
			if err != nil {
				return err
			}

			msg, err := c.ResendVerification(cmd.Context(), email)
			if err != nil {
				return err
			}
			ui.PrintSuccess(cmd.OutOrStdout(), msg)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
