// Package parser turns a raw input stream into a row-set header and rows.
package parser

import (
	"context"
	"fmt"
	"io"

	"parsenumber/internal/config"
	"parsenumber/internal/parser/csv"
	"parsenumber/internal/parser/json"
	"parsenumber/internal/rowset"
)

// RowReader exposes the input header before any row is streamed, so
// operators can be configured against it.
type RowReader interface {
	Header() *rowset.Header
	// Stream sends rows to out in input order. Recoverable per-record
	// problems go to onErr; the returned error is fatal.
	Stream(ctx context.Context, out chan<- *rowset.Row, onErr func(line int, err error)) error
}

// New builds the reader configured by p over src. src is owned by the
// returned reader.
func New(p config.Parser, src io.ReadCloser) (RowReader, error) {
	switch p.Kind {
	case "csv":
		r, err := csv.NewReader(src, p.Options)
		if err != nil {
			return nil, err
		}
		return r, nil
	case "json":
		r, err := json.NewReader(src, p.Options)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		src.Close()
		return nil, fmt.Errorf("parser: unsupported kind %q", p.Kind)
	}
}
