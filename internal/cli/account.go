package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/okian/trendscope/internal/domain/model"
	"github.com/okian/trendscope/internal/domain/types"
)

// credentialFlags are shared by login and register.
type credentialFlags struct {
	username      string
	passwordStdin bool
}

func (f *credentialFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.username, "username", "u", "", "account username (prompted when omitted)")
	cmd.Flags().BoolVar(&f.passwordStdin, "password-stdin", false, "read the password from stdin")
}

// ask prompts on the terminal for a value.
func ask(label string, mask rune, validate promptui.ValidateFunc) (string, error) {
	p := promptui.Prompt{Label: label, Mask: mask, Validate: validate}
	v, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("%s: %w", strings.ToLower(label), err)
	}
	return v, nil
}

func notEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("must not be empty")
	}
	return nil
}

func (a *cliApp) username(f credentialFlags) (string, error) {
	if f.username != "" {
		return f.username, nil
	}
	return ask("Username", 0, notEmpty)
}

func (a *cliApp) password(f credentialFlags) (string, error) {
	if !f.passwordStdin {
		return ask("Password", '*', notEmpty)
	}
	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *cliApp) loginCmd() *cobra.Command {
	var f credentialFlags
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Start a session",
		Args:  validArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, err := a.username(f)
			if err != nil {
				return err
			}
			pw, err := a.password(f)
			if err != nil {
				return err
			}
			u, err := a.svc.Login(cmd.Context(), model.Credentials{Username: name, Password: pw})
			if err != nil {
				return err //nolint:wrapcheck // rendered by report
			}
			if u != nil {
				name = u.Username
			}
			a.out.Success("Logged in as %s", a.out.Bold(name))
			return a.renderStatus(cmd)
		},
	}
	f.bind(cmd)
	return cmd
}

func (a *cliApp) registerCmd() *cobra.Command {
	var f credentialFlags
	var email string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and start a session",
		Args:  validArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, err := a.username(f)
			if err != nil {
				return err
			}
			if email == "" {
				if email, err = ask("Email", 0, notEmpty); err != nil {
					return err
				}
			}
			pw, err := a.password(f)
			if err != nil {
				return err
			}
			u, err := a.svc.Register(cmd.Context(), model.Registration{Username: name, Email: email, Password: pw})
			if err != nil {
				return err //nolint:wrapcheck // rendered by report
			}
			if u != nil {
				name = u.Username
			}
			a.out.Success("Registered and logged in as %s", a.out.Bold(name))
			return a.renderStatus(cmd)
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVar(&email, "email", "", "account email (prompted when omitted)")
	return cmd
}

func (a *cliApp) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the stored token",
		Args:  validArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.svc.Logout(cmd.Context()); err != nil {
				return err //nolint:wrapcheck // rendered by report
			}
			a.out.Success("Logged out")
			return nil
		},
	}
}

func (a *cliApp) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session state",
		Args:  validArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.renderStatus(cmd)
		},
	}
}

func (a *cliApp) renderStatus(cmd *cobra.Command) error {
	st := a.svc.Status(cmd.Context())
	return a.out.Render(st, func(t *Table) {
		t.Header("FIELD", "VALUE")
		t.AddRow("authenticated", fmt.Sprint(st.Authenticated))
		if st.Username != "" {
			t.AddRow("username", st.Username)
		}
		if st.ExpiresAt != nil {
			left := time.Until(*st.ExpiresAt).Round(time.Minute)
			t.AddRow("expires", fmt.Sprintf("%s (in %s)", st.ExpiresAt.Local().Format(time.DateTime), left))
		}
		t.AddRow("api", a.cfg.BaseURL)
	})
}

func (a *cliApp) refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Trade the refresh token for a new access token",
		Args:  validArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.svc.Refresh(cmd.Context()); err != nil {
				return err //nolint:wrapcheck // rendered by report
			}
			a.out.Success("Session refreshed")
			return a.renderStatus(cmd)
		},
	}
}

func (a *cliApp) resetPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password EMAIL",
		Short: "Request a password reset mail",
		Args:  validArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.svc.ResetPassword(cmd.Context(), args[0]); err != nil {
				return err //nolint:wrapcheck // rendered by report
			}
			a.out.Success("If %s belongs to an account, a reset mail is on its way", args[0])
			return nil
		},
	}
}

func (a *cliApp) profileCmd() *cobra.Command {
	var email, geo, timeframe string
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update the profile of the logged-in user",
		Long: `Update the email, default region or default timeframe of the account.
Only the flags given are changed. Pass --geo "" to reset the default region
to worldwide.`,
		Args: validArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			var p model.ProfileUpdate
			p.Email = email
			if cmd.Flags().Changed("geo") {
				g, err := types.ParseGeo(geo)
				if err != nil {
					return usage("%v", err)
				}
				p.DefaultGeo = &g
			}
			if timeframe != "" {
				tf, err := types.ParseTimeframe(timeframe)
				if err != nil {
					return usage("%v", err)
				}
				p.DefaultTimeframe = tf
			}
			u, err := a.svc.UpdateProfile(cmd.Context(), p)
			if err != nil {
				return err //nolint:wrapcheck // rendered by report
			}
			a.out.Success("Profile updated")
			if u == nil {
				return nil
			}
			return a.out.Render(u, func(t *Table) {
				t.Header("USERNAME", "EMAIL", "GEO", "TIMEFRAME")
				t.AddRow(u.Username, u.Email, u.DefaultGeo.String(), string(u.DefaultTimeframe))
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "new email address")
	cmd.Flags().StringVar(&geo, "geo", "", "default region code")
	cmd.Flags().StringVar(&timeframe, "timeframe", "", "default timeframe, e.g. \"today 12-m\"")
	return cmd
}
