package rowset

// Row is a single editable row. Values are keyed by column name; a column
// without an entry has no value (which is different from a zero value).
//
// Line is the 1-based source line or record number, for diagnostics only.
type Row struct {
	Line   int
	values map[string]any
}

// NewRow returns an empty row for the given source line.
func NewRow(line int) *Row {
	return &Row{Line: line, values: make(map[string]any)}
}

// GetValue returns the value of c in r. ok is false when the row has no
// value for c or when the stored value is not a T.
func GetValue[T Value](r *Row, c TypedColumn[T]) (v T, ok bool) {
	raw, exists := r.values[c.name]
	if !exists {
		return v, false
	}
	v, ok = raw.(T)
	return v, ok
}

// SetValue stores v as the value of c in r.
func SetValue[T Value](r *Row, c TypedColumn[T], v T) {
	r.values[c.name] = v
}

// HasValue reports whether r holds any value for c.
func (r *Row) HasValue(c Column) bool {
	_, ok := r.values[c.Name()]
	return ok
}

// Project returns the row's values aligned to h. Columns without a value
// project to nil.
func (r *Row) Project(h *Header) []any {
	out := make([]any, len(h.cols))
	for i, c := range h.cols {
		if v, ok := r.values[c.Name()]; ok {
			out[i] = v
		}
	}
	return out
}

// Set stores v for c after checking that v's Go type matches c.Type().
// It reports whether the value was stored.
func (r *Row) Set(c Column, v any) bool {
	var ok bool
	switch c.Type() {
	case TypeString:
		_, ok = v.(string)
	case TypeInt:
		_, ok = v.(int)
	case TypeDouble:
		_, ok = v.(float64)
	case TypeBool:
		_, ok = v.(bool)
	}
	if ok {
		r.values[c.Name()] = v
	}
	return ok
}
