// Package csv reads delimited text into row-set rows whose columns are all
// text columns.
//
// The header is read up front so the operator can be configured before any
// row is streamed. Empty cells carry no value.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"parsenumber/internal/config"
	"parsenumber/internal/logging"
	"parsenumber/internal/rowset"
)

const utf8BOM = "\uFEFF"

// logEveryN is the reader heartbeat interval in rows.
const logEveryN = 50_000

// Reader streams CSV records as rows. Options (all optional):
//
//   - has_header (bool; default true). Without a header columns are
//     named col1..colN from the width of the first record.
//   - comma (string; first rune used; default ',')
//   - trim_space (bool; default false). Values are passed through
//     verbatim otherwise, so " 3" stays malformed for integer parsing.
//   - lazy_quotes (bool; default false)
//   - header_map (object) renames source headers.
type Reader struct {
	src     io.Closer
	cr      *csv.Reader
	header  *rowset.Header
	columns []rowset.TypedColumn[string]
	trim    bool

	// pending holds the first data record of a headerless input, which had
	// to be read to learn the width.
	pending []string
	pendLn  int
}

// NewReader decodes the header from src. src is closed by Stream, or
// immediately when NewReader fails.
func NewReader(src io.ReadCloser, opt config.Options) (*Reader, error) {
	// BOMOverride drops a UTF-8 BOM and decodes UTF-16 input marked by one.
	in := transform.NewReader(src, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(in)
	cr.Comma = opt.Rune("comma", ',')
	cr.LazyQuotes = opt.Bool("lazy_quotes", false)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	r := &Reader{src: src, cr: cr, trim: opt.Bool("trim_space", false)}

	first, err := cr.Read()
	if err != nil && !errors.Is(err, io.EOF) {
		src.Close()
		return nil, fmt.Errorf("csv: read header: %w", err)
	}

	var names []string
	switch {
	case errors.Is(err, io.EOF):
		// empty input: no columns, no rows
	case opt.Bool("has_header", true):
		names = normalizeHeader(first, opt.StringMap("header_map"))
	default:
		names = make([]string, len(first))
		for i := range first {
			names[i] = "col" + strconv.Itoa(i+1)
		}
		r.pending = append([]string(nil), first...)
		r.pendLn, _ = cr.FieldPos(0)
	}

	cols := make([]rowset.Column, len(names))
	r.columns = make([]rowset.TypedColumn[string], len(names))
	for i, n := range names {
		c := rowset.NewStringColumn(n)
		cols[i], r.columns[i] = c, c
	}
	h, err := rowset.NewHeader(cols...)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("csv: header: %w", err)
	}
	r.header = h
	return r, nil
}

// normalizeHeader trims names, strips a stray BOM, applies NFC so visually
// equal names compare equal, and renames through hm.
func normalizeHeader(rec []string, hm map[string]string) []string {
	out := make([]string, len(rec))
	for i, h := range rec {
		h = strings.TrimSpace(strings.TrimPrefix(h, utf8BOM))
		h = norm.NFC.String(h)
		if mapped, ok := hm[h]; ok && mapped != "" {
			h = mapped
		}
		out[i] = h
	}
	return out
}

// Header returns the input header. Every column is a text column.
func (r *Reader) Header() *rowset.Header { return r.header }

// Stream sends one row per record to out until EOF. Malformed records are
// reported through onErr and skipped; I/O errors and cancellation end the
// stream. Stream closes the source.
func (r *Reader) Stream(ctx context.Context, out chan<- *rowset.Row, onErr func(line int, err error)) error {
	defer r.src.Close()

	emitted := 0
	emit := func(line int, rec []string) error {
		row := rowset.NewRow(line)
		for i, c := range r.columns {
			if i >= len(rec) {
				break
			}
			v := rec[i]
			if r.trim {
				v = strings.TrimSpace(v)
			}
			if v == "" {
				continue
			}
			rowset.SetValue(row, c, v)
		}
		select {
		case out <- row:
		case <-ctx.Done():
			return ctx.Err()
		}
		emitted++
		if emitted%logEveryN == 0 {
			logging.L().WithFields(logrus.Fields{"line": line, "emitted": emitted}).Debug("csv reader progress")
		}
		return nil
	}

	if r.pending != nil {
		if err := emit(r.pendLn, r.pending); err != nil {
			return err
		}
		r.pending = nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := r.cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				if onErr != nil {
					onErr(pe.Line, fmt.Errorf("csv read: %w", err))
				}
				continue
			}
			return fmt.Errorf("csv read: %w", err)
		}
		line, _ := r.cr.FieldPos(0)
		if err := emit(line, rec); err != nil {
			return err
		}
	}
}
