package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/registru/internal/model"
	"github.com/cleared-dev/registru/internal/money"
)

func newBalanceCommand(opts *globalOptions) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "balance [code]",
		Short: "Show account balances as of a date",
		Long:  "Show one account's balance, or every account with postings when no code is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := dateFlag(asOf, today())
			if err != nil {
				return err
			}
			return withProject(opts, func(p *project) error {
				ctx := cmd.Context()
				var snaps []model.BalanceSnapshot
				if len(args) == 1 {
					acct, err := p.books.Accounts.GetByCode(ctx, args[0])
					if err != nil {
						return err
					}
					s, err := p.books.Balances.BalanceAsOf(ctx, acct.ID, d)
					if err != nil {
						return err
					}
					snaps = append(snaps, s)
				} else {
					all, err := p.books.Balances.BalanceAsOfAll(ctx, d)
					if err != nil {
						return err
					}
					for _, s := range all.Sorted() {
						if s.Lines > 0 {
							snaps = append(snaps, s)
						}
					}
				}

				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintf(tw, "AS OF %s\n", model.FormatDate(d))
				fmt.Fprintln(tw, "CODE\tNAME\tTYPE\tDEBIT\tCREDIT\tBALANCE")
				for _, s := range snaps {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", s.Code, s.Name, s.Type, s.DebitTotal, s.CreditTotal, s.NetBalance)
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "balance date YYYY-MM-DD (default today)")
	return cmd
}

func newReportCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Financial statements",
	}
	cmd.AddCommand(
		newTrialBalanceCommand(opts),
		newIncomeStatementCommand(opts),
		newBalanceSheetCommand(opts),
	)
	return cmd
}

func newTrialBalanceCommand(opts *globalOptions) *cobra.Command {
	var asOf string
	var asJSON, strict bool

	cmd := &cobra.Command{
		Use:   "trial-balance",
		Short: "Debit and credit balances of every account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := dateFlag(asOf, today())
			if err != nil {
				return err
			}
			return withProject(opts, func(p *project) error {
				tb, err := p.books.Reports.TrialBalance(cmd.Context(), d)
				if err != nil {
					return err
				}
				if asJSON {
					err = printJSON(cmd.OutOrStdout(), tb)
				} else {
					err = printTrialBalance(cmd.OutOrStdout(), tb)
				}
				if err != nil {
					return err
				}
				if strict {
					return tb.Err()
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "report date YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit with an error when the trial balance does not balance")
	return cmd
}

func printTrialBalance(w io.Writer, tb model.TrialBalance) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "TRIAL BALANCE AS OF %s\n", model.FormatDate(tb.AsOf))
	fmt.Fprintln(tw, "CODE\tNAME\tDEBIT\tCREDIT")
	for _, r := range tb.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Code, r.Name, r.DebitBalance, r.CreditBalance)
	}
	fmt.Fprintf(tw, "\tTotal\t%s\t%s\n", tb.TotalDebit, tb.TotalCredit)
	if !tb.Balanced {
		fmt.Fprintf(tw, "\tNOT BALANCED\t\t\n")
	}
	return tw.Flush()
}

func newIncomeStatementCommand(opts *globalOptions) *cobra.Command {
	var start, end string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "income-statement",
		Short: "Revenue and expenses within a period",
		Long:  "Revenue and expenses within a period. The period defaults to the current fiscal year up to today.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := dateFlag(end, today())
			if err != nil {
				return err
			}
			return withProject(opts, func(p *project) error {
				yearStart, err := p.cfg.Fiscal.FiscalYearStart(e)
				if err != nil {
					return err
				}
				s, err := dateFlag(start, yearStart)
				if err != nil {
					return err
				}
				is, err := p.books.Reports.IncomeStatement(cmd.Context(), s, e)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), is)
				}
				return printIncomeStatement(cmd.OutOrStdout(), is)
			})
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "first day YYYY-MM-DD (default: fiscal year start)")
	cmd.Flags().StringVar(&end, "end", "", "last day YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func printLines(w io.Writer, title string, lines []model.StatementLine, total money.Amount) {
	fmt.Fprintf(w, "%s\t\t\n", title)
	for _, l := range lines {
		fmt.Fprintf(w, "  %s\t%s\t%s\n", l.Code, l.Name, l.Amount)
	}
	fmt.Fprintf(w, "\tTotal %s\t%s\n", title, total)
}

func printIncomeStatement(w io.Writer, is model.IncomeStatement) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "INCOME STATEMENT %s TO %s\n", model.FormatDate(is.PeriodStart), model.FormatDate(is.PeriodEnd))
	printLines(tw, "Revenue", is.Revenue, is.TotalRevenue)
	printLines(tw, "Expenses", is.Expenses, is.TotalExpenses)
	fmt.Fprintf(tw, "\tNet income\t%s\n", is.NetIncome)
	return tw.Flush()
}

func newBalanceSheetCommand(opts *globalOptions) *cobra.Command {
	var asOf string
	var asJSON, strict bool

	cmd := &cobra.Command{
		Use:   "balance-sheet",
		Short: "Assets, liabilities and equity at a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := dateFlag(asOf, today())
			if err != nil {
				return err
			}
			return withProject(opts, func(p *project) error {
				bs, err := p.books.Reports.BalanceSheet(cmd.Context(), d)
				if err != nil {
					return err
				}
				if asJSON {
					err = printJSON(cmd.OutOrStdout(), bs)
				} else {
					err = printBalanceSheet(cmd.OutOrStdout(), bs)
				}
				if err != nil {
					return err
				}
				if strict {
					return bs.Err()
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "report date YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit with an error when the balance sheet does not balance")
	return cmd
}

func printBalanceSheet(w io.Writer, bs model.BalanceSheet) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "BALANCE SHEET AS OF %s\n", model.FormatDate(bs.AsOf))
	printLines(tw, "Assets", bs.Assets, bs.TotalAssets)
	printLines(tw, "Liabilities", bs.Liabilities, bs.TotalLiabilities)
	fmt.Fprintf(tw, "Equity\t\t\n")
	for _, l := range bs.Equity {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", l.Code, l.Name, l.Amount)
	}
	fmt.Fprintf(tw, "  \tCurrent earnings\t%s\n", bs.CurrentEarnings)
	fmt.Fprintf(tw, "\tTotal Equity\t%s\n", bs.TotalEquity)
	if !bs.Balanced {
		fmt.Fprintf(tw, "\tNOT BALANCED, discrepancy\t%s\n", bs.Discrepancy)
	}
	return tw.Flush()
}
