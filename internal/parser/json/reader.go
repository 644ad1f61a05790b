// Package json reads a JSON array of objects, or a stream of objects
// (NDJSON), into row-set rows.
//
// Column order is the order in which keys are first seen. A column's type is
// Bool or Double when every non-null value has that JSON type, and text
// otherwise; nested values are kept as their JSON text. Because types are
// only known after the last record, the whole input is decoded up front.
package json

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"parsenumber/internal/config"
	"parsenumber/internal/rowset"
)

type field struct {
	key string
	val any
}

// Reader replays decoded records as rows.
type Reader struct {
	header  *rowset.Header
	columns []rowset.Column
	records [][]field
}

// NewReader decodes all of src and closes it. Options:
//
//   - header_map (object) renames keys.
func NewReader(src io.ReadCloser, opt config.Options) (*Reader, error) {
	defer src.Close()

	hm := opt.StringMap("header_map")
	dec := json.NewDecoder(src)
	dec.UseNumber()

	records, err := decodeRecords(dec)
	if err != nil {
		return nil, err
	}

	var order []string
	kinds := map[string]rowset.ColumnType{}
	for _, rec := range records {
		for i := range rec {
			if mapped, ok := hm[rec[i].key]; ok && mapped != "" {
				rec[i].key = mapped
			}
			k, v := rec[i].key, rec[i].val
			prev, seen := kinds[k]
			if !seen {
				order = append(order, k)
			}
			if v == nil {
				if !seen {
					kinds[k] = 0
				}
				continue
			}
			t := typeOf(v)
			switch {
			case prev == 0:
				kinds[k] = t
			case prev != t:
				kinds[k] = rowset.TypeString
			}
		}
	}

	r := &Reader{records: records, columns: make([]rowset.Column, len(order))}
	for i, name := range order {
		t := kinds[name]
		if t == 0 {
			t = rowset.TypeString
		}
		c, err := rowset.ColumnOf(name, t)
		if err != nil {
			return nil, fmt.Errorf("json: column %q: %w", name, err)
		}
		r.columns[i] = c
	}
	h, err := rowset.NewHeader(r.columns...)
	if err != nil {
		return nil, fmt.Errorf("json: header: %w", err)
	}
	r.header = h
	return r, nil
}

// decodeRecords reads either one top-level array of objects or a sequence of
// top-level objects. Keys keep their document order.
func decodeRecords(dec *json.Decoder) ([][]field, error) {
	var out [][]field

	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("json: decode root: %w", err)
	}

	switch tok {
	case json.Delim('['):
		for dec.More() {
			if err := expectDelim(dec, '{'); err != nil {
				return nil, fmt.Errorf("json: record %d: %w", len(out)+1, err)
			}
			rec, err := decodeObject(dec)
			if err != nil {
				return nil, fmt.Errorf("json: record %d: %w", len(out)+1, err)
			}
			out = append(out, rec)
		}
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("json: close array: %w", err)
		}
		return out, nil

	case json.Delim('{'):
		for {
			rec, err := decodeObject(dec)
			if err != nil {
				return nil, fmt.Errorf("json: record %d: %w", len(out)+1, err)
			}
			out = append(out, rec)

			err = expectDelim(dec, '{')
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			if err != nil {
				return nil, fmt.Errorf("json: record %d: %w", len(out)+1, err)
			}
		}

	default:
		return nil, fmt.Errorf("json: unsupported root %v (want object or array)", tok)
	}
}

func expectDelim(dec *json.Decoder, d json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok != d {
		return fmt.Errorf("got %v, want %v", tok, d)
	}
	return nil
}

// decodeObject reads the members of an object whose opening brace has been
// consumed, through the closing brace.
func decodeObject(dec *json.Decoder) ([]field, error) {
	var rec []field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key %v is not a string", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("value of %q: %w", key, err)
		}
		rec = append(rec, field{key: key, val: v})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return rec, nil
}

func typeOf(v any) rowset.ColumnType {
	switch v.(type) {
	case bool:
		return rowset.TypeBool
	case json.Number:
		return rowset.TypeDouble
	default:
		return rowset.TypeString
	}
}

// Header returns the inferred header.
func (r *Reader) Header() *rowset.Header { return r.header }

// Stream sends the decoded records as rows. Line is the 1-based record
// index. Numbers that do not fit a float64 are reported through onErr and
// left without a value.
func (r *Reader) Stream(ctx context.Context, out chan<- *rowset.Row, onErr func(line int, err error)) error {
	byName := make(map[string]rowset.Column, len(r.columns))
	for _, c := range r.columns {
		byName[c.Name()] = c
	}

	for i, rec := range r.records {
		line := i + 1
		row := rowset.NewRow(line)
		for _, f := range rec {
			if f.val == nil {
				continue
			}
			c := byName[f.key]
			v, err := convert(c.Type(), f.val)
			if err != nil {
				if onErr != nil {
					onErr(line, fmt.Errorf("json: %q: %w", f.key, err))
				}
				continue
			}
			row.Set(c, v)
		}
		select {
		case out <- row:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func convert(t rowset.ColumnType, v any) (any, error) {
	switch t {
	case rowset.TypeBool:
		return v.(bool), nil
	case rowset.TypeDouble:
		return v.(json.Number).Float64()
	}
	switch x := v.(type) {
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case bool:
		return strconv.FormatBool(x), nil
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
}
