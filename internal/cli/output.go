package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/TiwariV18/FinTrack/internal/domain"
)

// printer buffers aligned text output for one command.
type printer struct {
	tw *tabwriter.Writer
}

func newPrinter(w io.Writer) *printer {
	return &printer{tw: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (p *printer) linef(format string, args ...any) {
	fmt.Fprintf(p.tw, format+"\n", args...)
}

func (p *printer) flush() error {
	return p.tw.Flush()
}

// print renders v as JSON when --format json is set, otherwise through text.
func (o *RootOptions) print(cmd *cobra.Command, v any, text func(p *printer)) error {
	out := cmd.OutOrStdout()
	if o.Format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	p := newPrinter(out)
	text(p)
	return p.flush()
}

func writeTransactionTable(w io.Writer, kind domain.Kind, items []domain.Transaction) error {
	p := newPrinter(w)
	p.linef("DATE\tCATEGORY\tAMOUNT\tTITLE")
	total := domain.Amount{}
	for _, item := range items {
		p.linef("%s\t%s\t%s\t%s", item.Date, item.Category, item.Amount, item.Title)
		total = total.Add(item.Amount)
	}
	if err := p.flush(); err != nil {
		return err
	}
	noun := kind.Plural()
	if len(items) == 1 {
		noun = string(kind)
	}
	_, err := fmt.Fprintf(w, "\n%d %s, total %s\n", len(items), noun, total)
	return err
}

func writeStats(w io.Writer, stats domain.Stats) error {
	p := newPrinter(w)
	p.linef("Total income\t%s", stats.TotalIncome)
	p.linef("Total expense\t%s", stats.TotalExpense)
	p.linef("Balance\t%s", stats.Balance)
	return p.flush()
}

func writeCategories(w io.Writer, totals []domain.CategoryTotal) error {
	p := newPrinter(w)
	p.linef("CATEGORY\tTOTAL\tCOUNT")
	for _, t := range totals {
		p.linef("%s\t%s\t%d", t.Category, t.Total, t.Count)
	}
	return p.flush()
}
