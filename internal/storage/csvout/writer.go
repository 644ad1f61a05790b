// Package csvout is a storage.Repository that writes rewritten rows as CSV
// to a file or stdout. It registers the "csv" kind.
package csvout

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"parsenumber/internal/storage"
)

// Stdout selects standard output as the destination.
const Stdout = "-"

// Writer writes one header line followed by the rows of every CopyFrom.
type Writer struct {
	mu          sync.Mutex
	w           *csv.Writer
	closer      io.Closer
	wroteHeader bool
}

// NewWriter wraps w. closer may be nil.
func NewWriter(w io.Writer, closer io.Closer) *Writer {
	return &Writer{w: csv.NewWriter(w), closer: closer}
}

// Open creates path, or uses stdout when path is "" or "-".
func Open(path string) (*Writer, error) {
	if path == "" || path == Stdout {
		return NewWriter(os.Stdout, nil), nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv sink: %w", err)
	}
	return NewWriter(f, f), nil
}

// CopyFrom writes the header on the first call, then rows, and flushes.
func (w *Writer) CopyFrom(_ context.Context, columns []string, rows [][]any) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.wroteHeader {
		if err := w.w.Write(columns); err != nil {
			return 0, fmt.Errorf("csv sink: header: %w", err)
		}
		w.wroteHeader = true
	}

	rec := make([]string, len(columns))
	var n int64
	for _, row := range rows {
		if len(row) != len(columns) {
			w.w.Flush()
			return n, fmt.Errorf("csv sink: row length %d != columns length %d", len(row), len(columns))
		}
		for i, v := range row {
			rec[i] = format(v)
		}
		if err := w.w.Write(rec); err != nil {
			return n, fmt.Errorf("csv sink: write: %w", err)
		}
		n++
	}
	w.w.Flush()
	if err := w.w.Error(); err != nil {
		return n, fmt.Errorf("csv sink: flush: %w", err)
	}
	return n, nil
}

// Exec is a no-op; a CSV file has no schema to create.
func (w *Writer) Exec(context.Context, string) error { return nil }

// Close flushes and closes the underlying file, if any.
func (w *Writer) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.w.Flush()
	if w.closer != nil {
		_ = w.closer.Close()
		w.closer = nil
	}
}

// format renders a cell. A missing value is an empty field.
func format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

var _ storage.Repository = (*Writer)(nil)

func init() {
	storage.Register("csv", func(_ context.Context, cfg storage.Config) (storage.Repository, error) {
		return Open(cfg.DSN)
	})
	storage.RegisterDDL("csv", func(context.Context, storage.Repository, storage.Config) error {
		return nil
	})
}
