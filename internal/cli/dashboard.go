package cli

import (
	"github.com/spf13/cobra"

	"github.com/TiwariV18/FinTrack/internal/domain"
)

func newStatsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show total income, total expense and balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.authed()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()
			var stats domain.Stats
			if err := a.guard(func(token string) error {
				stats, err = a.client.Stats(ctx, token)
				return err
			}); err != nil {
				return err
			}
			if opts.Format == "json" {
				return opts.print(cmd, stats, nil)
			}
			return writeStats(cmd.OutOrStdout(), stats)
		},
	}
}

func newCategoriesCommand(opts *RootOptions) *cobra.Command {
	var kindName string
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Show totals per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseKind(kindName)
			if err != nil {
				return err
			}
			a, err := opts.authed()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()
			var totals []domain.CategoryTotal
			if err := a.guard(func(token string) error {
				totals, err = a.client.Categories(ctx, token, kind)
				return err
			}); err != nil {
				return err
			}
			if opts.Format == "json" {
				return opts.print(cmd, totals, nil)
			}
			return writeCategories(cmd.OutOrStdout(), totals)
		},
	}
	cmd.Flags().StringVar(&kindName, "kind", string(domain.KindExpense), "income or expense")
	return cmd
}
