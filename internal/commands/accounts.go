package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/registru/internal/accounts"
	"github.com/cleared-dev/registru/internal/model"
)

func newAccountsCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "accounts",
		Aliases: []string{"account"},
		Short:   "Manage the chart of accounts",
	}
	cmd.AddCommand(
		newAccountsCreateCommand(opts),
		newAccountsListCommand(opts),
		newAccountsDeactivateCommand(opts),
		newAccountsReactivateCommand(opts),
		newAccountsMoveCommand(opts),
		newAccountsRetypeCommand(opts),
		newAccountsImportCommand(opts),
		newAccountsExportCommand(opts),
	)
	return cmd
}

func newAccountsCreateCommand(opts *globalOptions) *cobra.Command {
	var typ, parent, description string

	cmd := &cobra.Command{
		Use:   "create <code> <name>",
		Short: "Add an account to the chart",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := model.ParseAccountType(typ)
			if err != nil {
				return err
			}
			return withProject(opts, func(p *project) error {
				ctx := cmd.Context()
				params := accounts.CreateParams{Code: args[0], Name: args[1], Type: t, Description: description}
				if parent != "" {
					pa, err := p.books.Accounts.GetByCode(ctx, parent)
					if err != nil {
						return err
					}
					params.ParentID = pa.ID
				}
				acct, err := p.books.Accounts.Create(ctx, params)
				if err != nil {
					return err
				}
				p.record("account.create", acct.Code, acct.Name)
				fmt.Fprintf(cmd.OutOrStdout(), "Created account %s %s (%s)\n", acct.Code, acct.Name, acct.Type)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&typ, "type", "", "account type: "+model.AccountTypeNames()+" (required)")
	_ = cmd.MarkFlagRequired("type")
	cmd.Flags().StringVar(&parent, "parent", "", "parent account code")
	cmd.Flags().StringVar(&description, "description", "", "description")
	return cmd
}

func newAccountsListCommand(opts *globalOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts ordered by code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(opts, func(p *project) error {
				accts, err := p.books.Accounts.List(cmd.Context(), all)
				if err != nil {
					return err
				}
				codes := make(map[string]string, len(accts))
				for _, a := range accts {
					codes[a.ID] = a.Code
				}

				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "CODE\tNAME\tTYPE\tPARENT\tACTIVE")
				for _, a := range accts {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", a.Code, a.Name, a.Type, codes[a.ParentID], yesNo(a.Active))
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include inactive accounts")
	return cmd
}

func newAccountsDeactivateCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <code>",
		Short: "Deactivate an account with a zero balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(opts, func(p *project) error {
				ctx := cmd.Context()
				acct, err := p.books.Accounts.GetByCode(ctx, args[0])
				if err != nil {
					return err
				}
				if _, err := p.books.Accounts.Deactivate(ctx, acct.ID); err != nil {
					return err
				}
				p.record("account.deactivate", acct.Code, "")
				fmt.Fprintf(cmd.OutOrStdout(), "Deactivated account %s\n", acct.Code)
				return nil
			})
		},
	}
}

func newAccountsReactivateCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reactivate <code>",
		Short: "Reactivate an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(opts, func(p *project) error {
				ctx := cmd.Context()
				acct, err := p.books.Accounts.GetByCode(ctx, args[0])
				if err != nil {
					return err
				}
				if _, err := p.books.Accounts.Reactivate(ctx, acct.ID); err != nil {
					return err
				}
				p.record("account.reactivate", acct.Code, "")
				fmt.Fprintf(cmd.OutOrStdout(), "Reactivated account %s\n", acct.Code)
				return nil
			})
		},
	}
}

func newAccountsMoveCommand(opts *globalOptions) *cobra.Command {
	var parent string

	cmd := &cobra.Command{
		Use:   "move <code>",
		Short: "Move an account under another parent, or to the top level without --parent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProject(opts, func(p *project) error {
				ctx := cmd.Context()
				acct, err := p.books.Accounts.GetByCode(ctx, args[0])
				if err != nil {
					return err
				}
				var parentID string
				if parent != "" {
					pa, err := p.books.Accounts.GetByCode(ctx, parent)
					if err != nil {
						return err
					}
					parentID = pa.ID
				}
				if _, err := p.books.Accounts.SetParent(ctx, acct.ID, parentID); err != nil {
					return err
				}
				p.record("account.move", acct.Code, "parent "+parent)
				if parent == "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Moved account %s to the top level\n", acct.Code)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Moved account %s under %s\n", acct.Code, parent)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&parent, "parent", "", "new parent account code")
	return cmd
}

func newAccountsRetypeCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "retype <code> <type>",
		Short: "Change the type of an account without postings",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := model.ParseAccountType(args[1])
			if err != nil {
				return err
			}
			return withProject(opts, func(p *project) error {
				ctx := cmd.Context()
				acct, err := p.books.Accounts.GetByCode(ctx, args[0])
				if err != nil {
					return err
				}
				if _, err := p.books.Accounts.ChangeType(ctx, acct.ID, t); err != nil {
					return err
				}
				p.record("account.retype", acct.Code, string(t))
				fmt.Fprintf(cmd.OutOrStdout(), "Account %s is now %s\n", acct.Code, t)
				return nil
			})
		},
	}
}

func newAccountsImportCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Create accounts from a CSV file, all or nothing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()

			records, err := accounts.ReadAccounts(f)
			if err != nil {
				return err
			}
			return withProject(opts, func(p *project) error {
				created, err := p.books.Accounts.Import(cmd.Context(), records)
				if err != nil {
					return err
				}
				p.record("account.import", args[0], fmt.Sprintf("%d accounts", len(created)))
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d accounts\n", len(created))
				return nil
			})
		},
	}
}

func newAccountsExportCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file.csv]",
		Short: "Write the chart of accounts as CSV (stdout by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) > 0 {
				path = args[0]
			}
			return withProject(opts, func(p *project) error {
				accts, err := p.books.Accounts.List(cmd.Context(), true)
				if err != nil {
					return err
				}
				w, closeFn, err := createOutput(path, cmd.OutOrStdout())
				if err != nil {
					return err
				}
				if err := accounts.WriteAccounts(w, accts); err != nil {
					_ = closeFn()
					return err
				}
				return closeFn()
			})
		},
	}
}
