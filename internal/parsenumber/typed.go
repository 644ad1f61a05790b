package parsenumber

import (
	"fmt"

	"parsenumber/internal/rowset"
)

// Stats counts row outcomes of a transform. Missing and Malformed rows are
// both left without a target value; the split exists for diagnostics only.
type Stats struct {
	Parsed    int64
	Missing   int64
	Malformed int64
}

// Rows is the total number of rows handled.
func (s Stats) Rows() int64 { return s.Parsed + s.Missing + s.Malformed }

// transform is the type-independent view of a typedTransform.
type transform interface {
	HandleColumns(h *rowset.Header) error
	HandleRow(r *rowset.Row)
	Target() rowset.Column
	Stats() Stats
}

// typedTransform replaces a text column with a column of type T, parsing
// each row's text with parser.
type typedTransform[T Number] struct {
	parser Parser[T]
	source rowset.TypedColumn[string]
	target rowset.TypedColumn[T]
	stats  Stats
}

func newTypedTransform[T Number](p Parser[T], source rowset.TypedColumn[string]) *typedTransform[T] {
	return &typedTransform[T]{
		parser: p,
		source: source,
		target: p.TargetColumn(source.Name()),
	}
}

// HandleColumns removes the source column and adds the target column. h is
// left unchanged on error.
func (t *typedTransform[T]) HandleColumns(h *rowset.Header) error {
	if _, clash := h.Lookup(t.target.Name()); clash {
		return fmt.Errorf("replace %q: add %q: %w", t.source.Name(), t.target.Name(), rowset.ErrDuplicateColumn)
	}
	if err := h.DeleteColumns(t.source); err != nil {
		return fmt.Errorf("replace %q: %w", t.source.Name(), err)
	}
	if err := h.AddColumns(t.target); err != nil {
		return fmt.Errorf("replace %q: %w", t.source.Name(), err)
	}
	return nil
}

// HandleRow parses the source value into the target column. Rows without a
// source value or with an unparsable one are left untouched.
func (t *typedTransform[T]) HandleRow(r *rowset.Row) {
	text, ok := rowset.GetValue(r, t.source)
	if !ok {
		t.stats.Missing++
		return
	}
	v, ok := t.parser.TryParse(text)
	if !ok {
		t.stats.Malformed++
		return
	}
	rowset.SetValue(r, t.target, v)
	t.stats.Parsed++
}

func (t *typedTransform[T]) Target() rowset.Column { return t.target }
func (t *typedTransform[T]) Stats() Stats          { return t.stats }
