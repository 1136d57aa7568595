package id

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// SeqWidth is the zero-padded width of the per-year entry sequence.
const SeqWidth = 6

// FormatEntryNumber returns an entry number like "2024-000001".
func FormatEntryNumber(year, seq int) string {
	return fmt.Sprintf("%04d-%0*d", year, SeqWidth, seq)
}

// ParseEntryNumber parses "2024-000001" into year and seq.
func ParseEntryNumber(number string) (year, seq int, err error) {
	parts := strings.SplitN(strings.TrimSpace(number), "-", 2)
	if len(parts) != 2 || len(parts[0]) != 4 || parts[1] == "" {
		return 0, 0, fmt.Errorf("invalid entry number format: %q", number)
	}

	year, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year in entry number %q: %w", number, err)
	}

	seq, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid sequence in entry number %q: %w", number, err)
	}
	if seq < 1 {
		return 0, 0, fmt.Errorf("invalid sequence in entry number %q", number)
	}

	return year, seq, nil
}

// New returns a fresh opaque identifier for accounts and entries.
func New() string {
	return uuid.NewString()
}
