package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/indicompute/indicompute/internal/views"
)

func (a *App) newLoginCommand() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and keep the session for later commands",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, _ []string) error {
			var err error
			if email, err = a.prompt.line("Email", email); err != nil {
				return err
			}
			if password, err = a.prompt.secret("Password", password); err != nil {
				return err
			}

			v := views.NewLogin(a.env)
			err = v.Submit(ctx, email, password)
			a.frame(v.Title(), v.Render)
			if err != nil {
				return reported(err)
			}
			return v.Redirect(ctx)
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func (a *App) newSignupCommand() *cobra.Command {
	var form views.SignupForm
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, _ []string) error {
			var err error
			if form.FullName, err = a.prompt.line("Full name", form.FullName); err != nil {
				return err
			}
			if form.Email, err = a.prompt.line("Email", form.Email); err != nil {
				return err
			}
			if form.Username, err = a.prompt.line("Username", form.Username); err != nil {
				return err
			}
			if form.Password, err = a.prompt.secret("Password", form.Password); err != nil {
				return err
			}

			v := views.NewSignup(a.env)
			err = v.Submit(ctx, form)
			a.frame(v.Title(), v.Render)
			if err != nil {
				return reported(err)
			}
			return v.Redirect(ctx)
		}),
	}
	cmd.Flags().StringVar(&form.FullName, "full-name", "", "your full name")
	cmd.Flags().StringVar(&form.Email, "email", "", "account email")
	cmd.Flags().StringVar(&form.Username, "username", "", "public username")
	cmd.Flags().StringVar(&form.Password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func (a *App) newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, _ []string) error {
			if err := a.env.Guard.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "👋 Logged out.")
			return nil
		}),
	}
}
