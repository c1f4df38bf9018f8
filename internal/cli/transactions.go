package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TiwariV18/FinTrack/internal/domain"
)

func newKindCommand(opts *RootOptions, name string) *cobra.Command {
	kind := domain.Kind(name)
	cmd := &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Manage %s entries", kind.Plural()),
	}
	cmd.AddCommand(newAddCommand(opts, kind))
	cmd.AddCommand(newListCommand(opts, kind))
	cmd.AddCommand(newUpdateCommand(opts, kind))
	cmd.AddCommand(newDeleteCommand(opts, kind))
	return cmd
}

type transactionFlags struct {
	title, amount, category, date string
}

func (f *transactionFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "title")
	cmd.Flags().StringVar(&f.amount, "amount", "", "amount, e.g. 150 or 89.50")
	cmd.Flags().StringVar(&f.category, "category", "", "category")
	cmd.Flags().StringVar(&f.date, "date", "", "date as YYYY-MM-DD")
}

// input parses the flags. An empty date falls back to today when defaultDate is set.
func (f transactionFlags) input(defaultDate domain.Date) (domain.TransactionInput, error) {
	in := domain.TransactionInput{Title: f.title, Category: f.category}
	if strings.TrimSpace(f.amount) != "" {
		amount, err := domain.ParseAmount(f.amount)
		if err != nil {
			return in, err
		}
		in.Amount = &amount
	}
	switch {
	case strings.TrimSpace(f.date) != "":
		date, err := domain.ParseDate(f.date)
		if err != nil {
			return in, err
		}
		in.Date = &date
	case !defaultDate.IsZero():
		in.Date = &defaultDate
	}
	if _, err := in.Validate(); err != nil {
		return in, err
	}
	return in, nil
}

func newAddCommand(opts *RootOptions, kind domain.Kind) *cobra.Command {
	var flags transactionFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: fmt.Sprintf("Record a new %s", kind),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := flags.input(domain.DateOf(opts.now()))
			if err != nil {
				return err
			}
			a, err := opts.authed()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()
			var created domain.Transaction
			if err := a.guard(func(token string) error {
				created, err = a.client.CreateTransaction(ctx, token, kind, in)
				return err
			}); err != nil {
				return err
			}
			return opts.print(cmd, created, func(p *printer) {
				p.linef("Added %s %s", kind, created.ID)
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

func newListCommand(opts *RootOptions, kind domain.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %s, newest first", kind.Plural()),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.authed()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()
			var items []domain.Transaction
			if err := a.guard(func(token string) error {
				items, err = a.client.ListTransactions(ctx, token, kind)
				return err
			}); err != nil {
				return err
			}
			if opts.Format == "json" {
				return opts.print(cmd, items, nil)
			}
			return writeTransactionTable(cmd.OutOrStdout(), kind, items)
		},
	}
}

func newUpdateCommand(opts *RootOptions, kind domain.Kind) *cobra.Command {
	var flags transactionFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: fmt.Sprintf("Replace the fields of an %s", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := flags.input(domain.Date{})
			if err != nil {
				return err
			}
			a, err := opts.authed()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()
			var updated domain.Transaction
			if err := a.guard(func(token string) error {
				updated, err = a.client.UpdateTransaction(ctx, token, kind, args[0], in)
				return err
			}); err != nil {
				return err
			}
			return opts.print(cmd, updated, func(p *printer) {
				p.linef("%s updated successfully", kind.Label())
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

func newDeleteCommand(opts *RootOptions, kind domain.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: fmt.Sprintf("Delete an %s", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if id == "" {
				return errors.New("id is required")
			}
			a, err := opts.authed()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()
			if err := a.guard(func(token string) error {
				return a.client.DeleteTransaction(ctx, token, kind, id)
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s deleted successfully\n", kind.Label())
			return nil
		},
	}
}
