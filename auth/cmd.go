package auth

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/malv/aichat/internal/cli"
)

// NewLoginCmd instantiates and returns the login command.
func NewLoginCmd(client *Client) *cobra.Command {
	var opts struct {
		Email  string
		NoSave bool
	}
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			client.SetPersist(!opts.NoSave)

			email := opts.Email
			var err error
			if email == "" {
				if email, err = cli.PromptInput("Email:"); err != nil {
					return err
				}
			}
			password, err := cli.PromptPassword("Password:")
			if err != nil {
				return err
			}

			session, err := client.SignIn(cmd.Context(), email, password)
			if err != nil {
				return errors.Wrap(err, "signing in")
			}
			cli.Success("Signed in as %s", session.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Email, "email", "", "email address")
	cmd.Flags().BoolVar(&opts.NoSave, "no-save", false, "do not persist the session to disk")
	return cmd
}

// NewSignupCmd instantiates and returns the signup command.
func NewSignupCmd(client *Client) *cobra.Command {
	var opts struct {
		Email  string
		NoSave bool
	}
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			client.SetPersist(!opts.NoSave)

			email := opts.Email
			var err error
			if email == "" {
				if email, err = cli.PromptInput("Email:"); err != nil {
					return err
				}
			}
			password, err := cli.PromptPassword("Password:")
			if err != nil {
				return err
			}
			confirm, err := cli.PromptPassword("Confirm password:")
			if err != nil {
				return err
			}
			// Validated locally; nothing is sent when the passwords differ.
			if password != confirm {
				return errors.New("passwords do not match")
			}

			session, err := client.SignUp(cmd.Context(), email, password)
			if err != nil {
				return errors.Wrap(err, "signing up")
			}
			if session == nil {
				cli.Info("Account created. Check your email to verify your account.")
				return nil
			}
			cli.Success("Signed up and signed in as %s", session.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Email, "email", "", "email address")
	cmd.Flags().BoolVar(&opts.NoSave, "no-save", false, "do not persist the session to disk")
	return cmd
}

// NewLogoutCmd instantiates and returns the logout command.
func NewLogoutCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and discard the persisted session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.LoadSession(cmd.Context()); err != nil {
				// A stale session still gets its file removed by LoadSession.
				cli.Muted("Session already expired.")
				return nil
			}
			if !client.IsAuthenticated() {
				cli.Muted("Not signed in.")
				return nil
			}
			if err := client.SignOut(cmd.Context()); err != nil {
				return errors.Wrap(err, "signing out")
			}
			cli.Success("Signed out.")
			return nil
		},
	}
}

// NewWhoamiCmd instantiates and returns the whoami command.
func NewWhoamiCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.LoadSession(cmd.Context()); err != nil {
				return err
			}
			session := client.Session()
			if session == nil {
				cli.Muted("Not signed in. Run `aichat login`.")
				return nil
			}
			cli.Info("%s (%s)", session.User.Email, session.User.ID)
			return nil
		},
	}
}
