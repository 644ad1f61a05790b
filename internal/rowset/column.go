// Package rowset is the host's in-memory table model: typed column
// descriptors, an editable header, and editable rows.
//
// Operators never own columns or rows. They receive a *Header once to
// rewrite the schema and then one *Row at a time to rewrite values.
package rowset

import "fmt"

// ColumnType enumerates the value types a column can hold.
type ColumnType uint8

const (
	TypeString ColumnType = iota + 1
	TypeInt
	TypeDouble
	TypeBool
)

func (t ColumnType) String() string {
	switch t {
	case TypeString:
		return "String"
	case TypeInt:
		return "Int"
	case TypeDouble:
		return "Double"
	case TypeBool:
		return "Bool"
	default:
		return fmt.Sprintf("ColumnType(%d)", uint8(t))
	}
}

// Value is the set of Go types a row cell can hold.
type Value interface {
	string | int | float64 | bool
}

// Column is a named, typed schema entry. Names are unique within a Header.
type Column interface {
	Name() string
	Type() ColumnType
}

// TypedColumn is a Column whose Go value type is fixed at compile time.
// It is a small value type; copies refer to the same logical column.
type TypedColumn[T Value] struct {
	name string
}

// NewColumn returns a descriptor for a column named name holding T values.
func NewColumn[T Value](name string) TypedColumn[T] {
	return TypedColumn[T]{name: name}
}

func NewStringColumn(name string) TypedColumn[string]  { return NewColumn[string](name) }
func NewIntColumn(name string) TypedColumn[int]        { return NewColumn[int](name) }
func NewDoubleColumn(name string) TypedColumn[float64] { return NewColumn[float64](name) }
func NewBoolColumn(name string) TypedColumn[bool]      { return NewColumn[bool](name) }

func (c TypedColumn[T]) Name() string { return c.name }

func (c TypedColumn[T]) Type() ColumnType {
	var zero T
	switch any(zero).(type) {
	case string:
		return TypeString
	case int:
		return TypeInt
	case float64:
		return TypeDouble
	case bool:
		return TypeBool
	}
	return 0
}

func (c TypedColumn[T]) String() string {
	return fmt.Sprintf("%s(%s)", c.name, c.Type())
}

// ColumnOf returns the typed descriptor for name and t. Readers use it to
// build columns from runtime type information.
func ColumnOf(name string, t ColumnType) (Column, error) {
	switch t {
	case TypeString:
		return NewStringColumn(name), nil
	case TypeInt:
		return NewIntColumn(name), nil
	case TypeDouble:
		return NewDoubleColumn(name), nil
	case TypeBool:
		return NewBoolColumn(name), nil
	default:
		return nil, fmt.Errorf("column %q: unsupported type %s", name, t)
	}
}
