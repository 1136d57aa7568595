package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/registru/internal/accounts"
	"github.com/cleared-dev/registru/internal/auditlog"
	"github.com/cleared-dev/registru/internal/config"
	"github.com/cleared-dev/registru/internal/ledger"
	"github.com/cleared-dev/registru/internal/logging"
)

func newInitCommand() *cobra.Command {
	var name, entityType, fiscalCode string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new registru project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			n, err := runInit(cmd.Context(), absDir, name, entityType, fiscalCode)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized registru project at %s (%d accounts)\n", absDir, n)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "business name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&entityType, "entity-type", accounts.EntitySRL, "entity type (srl, pfa)")
	cmd.Flags().StringVar(&fiscalCode, "fiscal-code", "", "fiscal identification code (CUI)")

	return cmd
}

func runInit(ctx context.Context, dir, name, entityType, fiscalCode string) (int, error) {
	if entityType != accounts.EntitySRL && entityType != accounts.EntityPFA {
		return 0, fmt.Errorf("unknown entity type %q, expected %s or %s", entityType, accounts.EntitySRL, accounts.EntityPFA)
	}

	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return 0, fmt.Errorf("%s already exists", cfgPath)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("checking %s: %w", cfgPath, err)
	}

	for _, d := range []string{"accounts", "exports", "import", "logs"} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return 0, fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	// Write registru.yaml.
	cfg := config.Default(name, entityType)
	cfg.Business.FiscalCode = fiscalCode
	if err := config.Save(cfgPath, cfg); err != nil {
		return 0, fmt.Errorf("writing config: %w", err)
	}

	// Write .gitignore.
	gitignore := "registru.db\nregistru.db-*\n.env\nexports/\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return 0, fmt.Errorf("writing .gitignore: %w", err)
	}

	// Create the database and the default chart of accounts.
	books, err := ledger.Open(cfg, dir, logging.Discard())
	if err != nil {
		return 0, err
	}
	defer books.Close()

	n, err := books.SeedDefaultChart(ctx, entityType)
	if err != nil {
		return 0, err
	}

	// Keep a readable copy of the chart next to the database.
	accts, err := books.Accounts.List(ctx, true)
	if err != nil {
		return 0, err
	}
	f, err := os.Create(filepath.Join(dir, "accounts", "chart-of-accounts.csv"))
	if err != nil {
		return 0, fmt.Errorf("writing chart of accounts: %w", err)
	}
	if err := accounts.WriteAccounts(f, accts); err != nil {
		f.Close()
		return 0, fmt.Errorf("writing chart of accounts: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("writing chart of accounts: %w", err)
	}

	if err := auditlog.New(dir, "cli").Record("project.init", name, fmt.Sprintf("%s, %d accounts", entityType, n)); err != nil {
		return 0, err
	}
	return n, nil
}
