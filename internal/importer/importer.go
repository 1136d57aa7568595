// Package importer turns CSV files into journal postings.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cleared-dev/registru/internal/journal"
	"github.com/cleared-dev/registru/internal/model"
)

// Parser converts a CSV file into postings.
type Parser interface {
	Parse(r io.Reader) ([]journal.PostParams, error)
	Format() string
}

// Poster posts one entry. *journal.Ledger implements it.
type Poster interface {
	Post(ctx context.Context, p journal.PostParams) (model.JournalEntry, error)
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// FileInfo describes a CSV file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// Formats lists the registered formats in order.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.parsers))
	for k := range r.parsers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DefaultRegistry returns a registry with the journal parser and a bank
// parser booking against bankAccount and suspenseAccount.
func DefaultRegistry(bankAccount, suspenseAccount string) *Registry {
	r := NewRegistry()
	r.Register(&JournalParser{})
	r.Register(&BankParser{BankAccount: bankAccount, SuspenseAccount: suspenseAccount})
	return r
}

// Post posts entries in order and returns the ones committed. It stops at
// the first rejected entry; entries already posted stay posted.
func Post(ctx context.Context, poster Poster, entries []journal.PostParams) ([]model.JournalEntry, error) {
	posted := make([]model.JournalEntry, 0, len(entries))
	for i, p := range entries {
		e, err := poster.Post(ctx, p)
		if err != nil {
			return posted, fmt.Errorf("entry %d of %d: %w", i+1, len(entries), err)
		}
		posted = append(posted, e)
	}
	return posted, nil
}

// importDir is the subdirectory for import CSVs.
const importDir = "import"

// processedDir is the subdirectory for processed CSVs.
const processedDir = "import/processed"

// Scan returns CSV files in <dir>/import/, ordered by name.
func Scan(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(filepath.Join(dir, importDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, importDir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(dir, fileName string) error {
	dstDir := filepath.Join(dir, processedDir)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}
	src := filepath.Join(dir, importDir, fileName)
	if err := os.Rename(src, filepath.Join(dstDir, fileName)); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
