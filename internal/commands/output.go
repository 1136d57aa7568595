package commands

import (
	"encoding/json"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/cleared-dev/registru/internal/model"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// dateFlag parses a YYYY-MM-DD flag value, falling back to def when empty.
func dateFlag(value string, def time.Time) (time.Time, error) {
	if value == "" {
		return def, nil
	}
	return model.ParseDate(value)
}

func today() time.Time { return model.Date(time.Now()) }

// createOutput opens path for writing, or returns stdout for "" and "-".
func createOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
