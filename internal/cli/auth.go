package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TiwariV18/FinTrack/internal/domain"
	apiclient "github.com/TiwariV18/FinTrack/pkg/api/client"
	jwtpkg "github.com/TiwariV18/FinTrack/pkg/jwt"
	"github.com/TiwariV18/FinTrack/pkg/session"
)

func newRegisterCommand(opts *RootOptions) *cobra.Command {
	var reg domain.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			if reg.Password == "" {
				secret, err := opts.readPassword(cmd)
				if err != nil {
					return err
				}
				reg.Password = secret
			}
			client, err := opts.client("")
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()
			resp, err := client.Register(ctx, reg)
			if err != nil {
				return err
			}
			return opts.saveLogin(cmd, client, resp)
		},
	}
	cmd.Flags().StringVar(&reg.Name, "name", "", "display name")
	cmd.Flags().StringVar(&reg.Email, "email", "", "email address")
	cmd.Flags().StringVar(&reg.Password, "password", "", "password (prompted when omitted)")
	cmd.Flags().StringVar(&reg.ProfileImageURL, "image", "", "profile image URL")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLoginCommand(opts *RootOptions) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(email) == "" {
				return errors.New("--email is required")
			}
			if password == "" {
				secret, err := opts.readPassword(cmd)
				if err != nil {
					return err
				}
				password = secret
			}
			client, err := opts.client("")
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()
			resp, err := client.Login(ctx, email, password)
			if err != nil {
				return err
			}
			return opts.saveLogin(cmd, client, resp)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	return cmd
}

func (o *RootOptions) saveLogin(cmd *cobra.Command, client *apiclient.Client, resp apiclient.AuthResponse) error {
	sess := session.Session{
		APIBaseURL: client.BaseURL(),
		Token:      resp.Token,
		User:       resp.User,
		IssuedAt:   o.now().UTC(),
	}
	if exp, err := jwtpkg.ExpiresAt(resp.Token); err == nil {
		sess.ExpiresAt = exp
	}
	if err := o.store().Save(sess); err != nil {
		return err
	}
	return o.print(cmd, resp.User, func(p *printer) {
		p.linef("Logged in as %s <%s>", resp.User.Name, resp.User.Email)
	})
}

func newLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.store().Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.authed()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()
			var user domain.PublicUser
			if err := a.guard(func(token string) error {
				user, err = a.client.Me(ctx, token)
				return err
			}); err != nil {
				return err
			}
			return opts.print(cmd, user, func(p *printer) {
				p.linef("%s <%s>", user.Name, user.Email)
				p.linef("id: %s", user.ID)
			})
		},
	}
}
