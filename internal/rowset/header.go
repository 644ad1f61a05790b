package rowset

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateColumn is returned when a column name is already in use.
	ErrDuplicateColumn = errors.New("duplicate column")
	// ErrUnknownColumn is returned when a column is not part of the header.
	ErrUnknownColumn = errors.New("unknown column")
)

// Header is the ordered, editable set of columns of a row set.
type Header struct {
	cols []Column
}

// NewHeader builds a header from cols, rejecting duplicate names.
func NewHeader(cols ...Column) (*Header, error) {
	h := &Header{}
	if err := h.AddColumns(cols...); err != nil {
		return nil, err
	}
	return h, nil
}

// Columns returns a copy of the current columns in order.
func (h *Header) Columns() []Column {
	out := make([]Column, len(h.cols))
	copy(out, h.cols)
	return out
}

// Len returns the number of columns.
func (h *Header) Len() int { return len(h.cols) }

// Names returns the column names in order.
func (h *Header) Names() []string {
	out := make([]string, len(h.cols))
	for i, c := range h.cols {
		out[i] = c.Name()
	}
	return out
}

// Lookup finds a column by name.
func (h *Header) Lookup(name string) (Column, bool) {
	if i := h.index(name); i >= 0 {
		return h.cols[i], true
	}
	return nil, false
}

// AddColumns appends cols. Either all columns are added or none.
func (h *Header) AddColumns(cols ...Column) error {
	seen := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		if _, dup := seen[c.Name()]; dup || h.index(c.Name()) >= 0 {
			return fmt.Errorf("add %q: %w", c.Name(), ErrDuplicateColumn)
		}
		seen[c.Name()] = struct{}{}
	}
	h.cols = append(h.cols, cols...)
	return nil
}

// DeleteColumns removes cols. Either all columns are removed or none.
//
// Rows keep their values for deleted columns so that row operators can still
// read them; deleted columns are dropped when rows are projected.
func (h *Header) DeleteColumns(cols ...Column) error {
	drop := make(map[int]struct{}, len(cols))
	for _, c := range cols {
		i := h.index(c.Name())
		if i < 0 || h.cols[i].Type() != c.Type() {
			return fmt.Errorf("delete %q: %w", c.Name(), ErrUnknownColumn)
		}
		if _, dup := drop[i]; dup {
			return fmt.Errorf("delete %q twice: %w", c.Name(), ErrUnknownColumn)
		}
		drop[i] = struct{}{}
	}
	kept := h.cols[:0]
	for i, c := range h.cols {
		if _, gone := drop[i]; !gone {
			kept = append(kept, c)
		}
	}
	clear(h.cols[len(kept):])
	h.cols = kept
	return nil
}

func (h *Header) index(name string) int {
	for i, c := range h.cols {
		if c.Name() == name {
			return i
		}
	}
	return -1
}
