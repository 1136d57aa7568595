package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/registru/internal/importer"
)

func newEntriesImportCommand(opts *globalOptions) *cobra.Command {
	var format, bankAccount, suspenseAccount string
	var scan bool

	cmd := &cobra.Command{
		Use:   "import [file.csv]",
		Short: "Post entries from a journal or bank statement CSV",
		Long: `Post entries from a CSV file.

The journal format is the one written by "entries export". The bank format
has the columns date,description,amount,reference; each row is booked
between the bank account and the suspense account.

With --scan, every CSV in the project's import/ directory is posted and
then moved to import/processed/.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if scan == (len(args) == 1) {
				return errors.New("give either a file or --scan")
			}
			registry := importer.DefaultRegistry(bankAccount, suspenseAccount)
			parser := registry.Get(format)
			if parser == nil {
				return fmt.Errorf("unknown import format %q, expected one of %s", format, strings.Join(registry.Formats(), ", "))
			}

			return withProject(opts, func(p *project) error {
				imp := &fileImporter{p: p, parser: parser, out: cmd.OutOrStdout()}
				if !scan {
					return imp.importFile(cmd, args[0])
				}

				files, err := importer.Scan(p.dir)
				if err != nil {
					return err
				}
				if len(files) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing to import.")
					return nil
				}
				for _, f := range files {
					if err := imp.importFile(cmd, f.Path); err != nil {
						return fmt.Errorf("%s: %w", f.Name, err)
					}
					if err := importer.MarkProcessed(p.dir, f.Name); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	formats := strings.Join(importer.DefaultRegistry("", "").Formats(), ", ")
	cmd.Flags().StringVar(&format, "format", "journal", "file format ("+formats+")")
	cmd.Flags().StringVar(&bankAccount, "bank-account", "5121", "bank account code for the bank format")
	cmd.Flags().StringVar(&suspenseAccount, "suspense-account", "473", "account for unidentified bank transactions")
	cmd.Flags().BoolVar(&scan, "scan", false, "import every CSV in import/")
	return cmd
}

type fileImporter struct {
	p      *project
	parser importer.Parser
	out    io.Writer
}

func (i *fileImporter) importFile(cmd *cobra.Command, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	entries, err := i.parser.Parse(f)
	f.Close()
	if err != nil {
		return err
	}

	posted, err := importer.Post(cmd.Context(), i.p.books.Journal, entries)
	for _, e := range posted {
		i.p.record("entry.import", e.Number, fmt.Sprintf("%s, %s", i.parser.Format(), e.TotalDebit()))
	}
	if err != nil {
		return fmt.Errorf("posted %d entries before failing: %w", len(posted), err)
	}
	fmt.Fprintf(i.out, "Imported %d entries from %s\n", len(posted), path)
	return nil
}
