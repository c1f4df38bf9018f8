package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/TiwariV18/FinTrack/internal/domain"
)

var csvHeader = []string{"id", "title", "amount", "category", "date", "createdAt", "updatedAt"}

func newExportCommand(opts *RootOptions) *cobra.Command {
	var kindName, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write transactions to a CSV file",
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
			var items []domain.Transaction
			if err := a.guard(func(token string) error {
				items, err = a.client.ListTransactions(ctx, token, kind)
				return err
			}); err != nil {
				return err
			}

			if output == "" {
				output = kind.Plural() + "_backup.csv"
			}
			if output == "-" {
				return writeCSV(cmd.OutOrStdout(), items)
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := writeCSV(f, items); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d %s to %s\n", len(items), kind.Plural(), output)
			return nil
		},
	}
	cmd.Flags().StringVar(&kindName, "kind", string(domain.KindExpense), "income or expense")
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination file, - for stdout (default <kind>s_backup.csv)")
	return cmd
}

func writeCSV(w io.Writer, items []domain.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, item := range items {
		record := []string{
			item.ID,
			item.Title,
			item.Amount.String(),
			item.Category,
			item.Date.String(),
			item.CreatedAt.UTC().Format(time.RFC3339),
			item.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
