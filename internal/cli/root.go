// Package cli implements the fintrack command line client.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	apiclient "github.com/TiwariV18/FinTrack/pkg/api/client"
	"github.com/TiwariV18/FinTrack/pkg/config"
	"github.com/TiwariV18/FinTrack/pkg/session"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	APIBaseURL  string
	SessionPath string
	Timeout     time.Duration
	Format      string // "json" | "text"

	now          func() time.Time
	readPassword func(cmd *cobra.Command) (string, error)
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the fintrack CLI.
func NewRootCommand() *cobra.Command {
	cfg := config.LoadClientConfig()
	opts := &RootOptions{now: time.Now, readPassword: promptPassword}

	cmd := &cobra.Command{
		Use:           "fintrack",
		Short:         "Track income and expenses from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.APIBaseURL, "api", cfg.APIBaseURL, "API base URL (env FINTRACK_API)")
	cmd.PersistentFlags().StringVar(&opts.SessionPath, "session", cfg.SessionPath, "session file (env FINTRACK_SESSION)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", cfg.RequestTimeout, "per-request timeout")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newRegisterCommand(opts))
	cmd.AddCommand(newLoginCommand(opts))
	cmd.AddCommand(newLogoutCommand(opts))
	cmd.AddCommand(newWhoamiCommand(opts))
	cmd.AddCommand(newKindCommand(opts, "income"))
	cmd.AddCommand(newKindCommand(opts, "expense"))
	cmd.AddCommand(newStatsCommand(opts))
	cmd.AddCommand(newCategoriesCommand(opts))
	cmd.AddCommand(newExportCommand(opts))

	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context, stderr io.Writer) int {
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func (o *RootOptions) store() *session.Store {
	return session.NewStore(o.SessionPath)
}

func (o *RootOptions) client(base string) (*apiclient.Client, error) {
	if strings.TrimSpace(o.APIBaseURL) != "" {
		base = o.APIBaseURL
	}
	return apiclient.New(base, apiclient.WithTimeout(o.Timeout))
}

// authed is the entry point of every command that needs a login.
type authed struct {
	client *apiclient.Client
	sess   session.Session
	store  *session.Store
}

func (o *RootOptions) authed() (authed, error) {
	store := o.store()
	sess, err := store.Load()
	if err != nil {
		return authed{}, err
	}
	client, err := o.client(sess.APIBaseURL)
	if err != nil {
		return authed{}, err
	}
	return authed{client: client, sess: sess, store: store}, nil
}

// guard runs fn with the stored token and clears the session when the API answers 401.
func (a authed) guard(fn func(token string) error) error {
	return a.store.Guard(fn(a.sess.Token))
}

func (o *RootOptions) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if o.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.Timeout)
}

func promptPassword(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	defer fmt.Fprintln(cmd.ErrOrStderr())
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(secret), nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
