package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/registru/internal/journal"
	"github.com/cleared-dev/registru/internal/model"
	"github.com/cleared-dev/registru/internal/money"
)

func newEntriesCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "entries",
		Aliases: []string{"entry"},
		Short:   "Post and inspect journal entries",
	}
	cmd.AddCommand(
		newEntriesPostCommand(opts),
		newEntriesGetCommand(opts),
		newEntriesListCommand(opts),
		newEntriesReverseCommand(opts),
		newEntriesExportCommand(opts),
		newEntriesImportCommand(opts),
	)
	return cmd
}

// parseLine parses "<account code>=<amount>".
func parseLine(raw string, debit bool) (journal.LineInput, error) {
	code, amount, ok := strings.Cut(raw, "=")
	if !ok || strings.TrimSpace(code) == "" {
		return journal.LineInput{}, fmt.Errorf("line %q: expected <account>=<amount>", raw)
	}
	a, err := money.Parse(strings.TrimSpace(amount))
	if err != nil {
		return journal.LineInput{}, fmt.Errorf("line %q: %w", raw, err)
	}
	line := journal.LineInput{AccountCode: strings.TrimSpace(code)}
	if debit {
		line.Debit = a
	} else {
		line.Credit = a
	}
	return line, nil
}

func newEntriesPostCommand(opts *globalOptions) *cobra.Command {
	var date, description, reference string
	var debits, credits []string

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post a balanced journal entry",
		Example: `  registru entries post --date 2024-12-20 --description "Factura 12" \
    --debit 411=3332.00 --credit 704=2800.00 --credit 4427=532.00`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := dateFlag(date, today())
			if err != nil {
				return err
			}
			params := journal.PostParams{Date: d, Description: description, Reference: reference}
			for _, raw := range debits {
				line, err := parseLine(raw, true)
				if err != nil {
					return err
				}
				params.Lines = append(params.Lines, line)
			}
			for _, raw := range credits {
				line, err := parseLine(raw, false)
				if err != nil {
					return err
				}
				params.Lines = append(params.Lines, line)
			}

			return withProject(opts, func(p *project) error {
				e, err := p.books.Journal.Post(cmd.Context(), params)
				if err != nil {
					return err
				}
				p.record("entry.post", e.Number, fmt.Sprintf("%s, %s", e.Description, e.TotalDebit()))
				fmt.Fprintf(cmd.OutOrStdout(), "Posted %s (%s, %s)\n", e.Number, model.FormatDate(e.Date), e.TotalDebit())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "entry date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&description, "description", "", "entry description")
	cmd.Flags().StringVar(&reference, "reference", "", "supporting document reference")
	cmd.Flags().StringArrayVar(&debits, "debit", nil, "debit line <account>=<amount>, repeatable")
	cmd.Flags().StringArrayVar(&credits, "credit", nil, "credit line <account>=<amount>, repeatable")
	return cmd
}

func printEntry(w io.Writer, e model.JournalEntry) error {
	fmt.Fprintf(w, "Entry:       %s\n", e.Number)
	fmt.Fprintf(w, "Date:        %s\n", model.FormatDate(e.Date))
	fmt.Fprintf(w, "Description: %s\n", e.Description)
	if e.Reference != "" {
		fmt.Fprintf(w, "Reference:   %s\n", e.Reference)
	}
	if e.Reverses != "" {
		fmt.Fprintf(w, "Reverses:    %s\n", e.Reverses)
	}
	fmt.Fprintln(w)

	tw := newTable(w)
	fmt.Fprintln(tw, "ACCOUNT\tDESCRIPTION\tDEBIT\tCREDIT")
	for _, l := range e.Lines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", l.AccountCode, l.Description, amountOrBlank(l.Debit), amountOrBlank(l.Credit))
	}
	fmt.Fprintf(tw, "\tTotal\t%s\t%s\n", e.TotalDebit(), e.TotalCredit())
	return tw.Flush()
}

func amountOrBlank(a money.Amount) string {
	if a.IsZero() {
		return ""
	}
	return a.String()
}

func newEntriesGetCommand(opts *globalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get <number>",
		Short: "Show one journal entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(opts, func(p *project) error {
				e, err := p.books.Journal.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), e)
				}
				return printEntry(cmd.OutOrStdout(), e)
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func dateRangeFlags(from, to string) (model.DateRange, error) {
	var (
		r   model.DateRange
		err error
	)
	if r.From, err = dateFlag(from, time.Time{}); err != nil {
		return r, err
	}
	if r.To, err = dateFlag(to, time.Time{}); err != nil {
		return r, err
	}
	return r, nil
}

func newEntriesListCommand(opts *globalOptions) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journal entries in number order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := dateRangeFlags(from, to)
			if err != nil {
				return err
			}
			return withProject(opts, func(p *project) error {
				entries, err := p.books.Journal.List(cmd.Context(), r)
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "NUMBER\tDATE\tDESCRIPTION\tAMOUNT\tREVERSES")
				for _, e := range entries {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Number, model.FormatDate(e.Date), e.Description, e.TotalDebit(), e.Reverses)
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first date YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last date YYYY-MM-DD")
	return cmd
}

func newEntriesReverseCommand(opts *globalOptions) *cobra.Command {
	var date, description string

	cmd := &cobra.Command{
		Use:   "reverse <number>",
		Short: "Post an entry that cancels another",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := dateFlag(date, time.Time{})
			if err != nil {
				return err
			}
			return withProject(opts, func(p *project) error {
				e, err := p.books.Journal.Reverse(cmd.Context(), args[0], journal.ReverseParams{Date: d, Description: description})
				if err != nil {
					return err
				}
				p.record("entry.reverse", e.Number, "reverses "+args[0])
				fmt.Fprintf(cmd.OutOrStdout(), "Posted %s reversing %s\n", e.Number, args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "reversal date YYYY-MM-DD (default: the reversed entry's date)")
	cmd.Flags().StringVar(&description, "description", "", "description (default: generated)")
	return cmd
}

func newEntriesExportCommand(opts *globalOptions) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "export [file.csv]",
		Short: "Write journal lines as CSV (stdout by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := dateRangeFlags(from, to)
			if err != nil {
				return err
			}
			var path string
			if len(args) > 0 {
				path = args[0]
			}
			return withProject(opts, func(p *project) error {
				entries, err := p.books.Journal.List(cmd.Context(), r)
				if err != nil {
					return err
				}
				w, closeFn, err := createOutput(path, cmd.OutOrStdout())
				if err != nil {
					return err
				}
				if err := journal.WriteLines(w, entries); err != nil {
					_ = closeFn()
					return err
				}
				return closeFn()
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first date YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last date YYYY-MM-DD")
	return cmd
}
