package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/registru/internal/auditlog"
	"github.com/cleared-dev/registru/internal/buildinfo"
	"github.com/cleared-dev/registru/internal/config"
	"github.com/cleared-dev/registru/internal/ledger"
	"github.com/cleared-dev/registru/internal/logging"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	dir     string
	verbose bool
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "registru",
		Short:   "Double-entry bookkeeping for Romanian small businesses",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.dir, "dir", ".", "project directory")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at the configured level instead of warnings only")

	rootCmd.AddCommand(
		newInitCommand(),
		newAccountsCommand(opts),
		newEntriesCommand(opts),
		newBalanceCommand(opts),
		newReportCommand(opts),
		newServeCommand(opts),
	)

	return rootCmd
}

// project is an opened project directory.
type project struct {
	dir   string
	cfg   *config.Config
	log   *slog.Logger
	books *ledger.Books
	audit *auditlog.Log
}

// openProject loads <dir>/registru.yaml and opens its books. Unless
// verbose, CLI commands log warnings only.
func openProject(opts *globalOptions, verbose bool) (*project, error) {
	dir, err := filepath.Abs(opts.dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := config.LoadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no %s in %s, run registru init first", config.FileName, dir)
	}
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if !verbose && !opts.verbose {
		level = "warn"
	}
	log := logging.New(logging.Config{Level: level, Format: cfg.Log.Format, Output: os.Stderr, Service: "registru"})

	books, err := ledger.Open(cfg, dir, log)
	if err != nil {
		return nil, err
	}
	return &project{
		dir:   dir,
		cfg:   cfg,
		log:   log,
		books: books,
		audit: auditlog.New(dir, "cli"),
	}, nil
}

// record writes an audit entry. Failures are logged, not returned.
func (p *project) record(action, subject, details string) {
	if err := p.audit.Record(action, subject, details); err != nil {
		p.log.Warn("writing audit log", "action", action, "subject", subject, "error", err)
	}
}

func (p *project) Close() error {
	return p.books.Close()
}

// withProject opens the project, runs fn and closes the books.
func withProject(opts *globalOptions, fn func(p *project) error) error {
	p, err := openProject(opts, false)
	if err != nil {
		return err
	}
	defer p.Close()
	return fn(p)
}
