// Package parsenumber implements the "Parse number" operator: it replaces a
// text column with an Int or Double column holding the parsed values.
//
// Rows whose text is missing or does not parse keep no value in the new
// column; they never fail the operator. Only argument validation can fail.
package parsenumber

import (
	"errors"
	"fmt"
	"strings"

	"parsenumber/internal/operator"
	"parsenumber/internal/rowset"
)

// Kind is the registry key of the operator in pipeline configuration.
const Kind = "parse_number"

// Name is the operator name shown by the host.
const Name = "Parse number"

var (
	// ErrInvalidColumn is returned when the selected column is not a text column.
	ErrInvalidColumn = errors.New("selected column is not a text column")
	// ErrInvalidTargetType is returned when the selected target type is not
	// one of the declared options.
	ErrInvalidTargetType = errors.New("selected target type is invalid")
	// ErrUnsupportedTargetType is returned when a TargetType value has no
	// parser, which only happens when callers bypass the declared options.
	ErrUnsupportedTargetType = errors.New("target type is not supported")
)

// TargetType selects the numeric type text is parsed into.
type TargetType uint8

const (
	TargetInt TargetType = iota + 1
	TargetDouble
)

// targetTypes is the declaration order of the dropdown; the first entry is
// the default.
var targetTypes = []TargetType{TargetInt, TargetDouble}

func (t TargetType) String() string {
	switch t {
	case TargetInt:
		return "Int"
	case TargetDouble:
		return "Double"
	default:
		return fmt.Sprintf("TargetType(%d)", uint8(t))
	}
}

// ParseTargetType maps a dropdown value (case-insensitive) to a TargetType.
func ParseTargetType(s string) (TargetType, error) {
	for _, t := range targetTypes {
		if strings.EqualFold(s, t.String()) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidTargetType, s)
}

func init() {
	operator.Register(Kind, operator.Metadata{Name: Name}, func() operator.Operator { return New() })
}

// Operator is the host-facing front end. It declares the arguments, binds a
// typed transform once arguments are known, and then delegates all column
// and row edits to it.
type Operator struct {
	columnArg *operator.ColumnArgument
	typeArg   *operator.StringDropdownArgument

	// set once by OnArgumentsProcessed
	transform transform
}

var (
	_ operator.Operator       = (*Operator)(nil)
	_ operator.ColumnOperator = (*Operator)(nil)
	_ operator.RowOperator    = (*Operator)(nil)
)

// New returns an operator with its arguments declared.
func New() *Operator {
	options := make([]string, len(targetTypes))
	for i, t := range targetTypes {
		options[i] = t.String()
	}
	return &Operator{
		columnArg: &operator.ColumnArgument{
			Name:       "Text column",
			ConfigKey:  "column",
			IsRequired: true,
			Types:      []rowset.ColumnType{rowset.TypeString},
		},
		typeArg: &operator.StringDropdownArgument{
			Name:         "Target type",
			ConfigKey:    "type",
			IsRequired:   true,
			Options:      options,
			DefaultValue: options[0],
		},
	}
}

// InputArguments returns the text column selector and the target type
// dropdown, in that order.
func (o *Operator) InputArguments() []operator.Argument {
	return []operator.Argument{o.columnArg, o.typeArg}
}

// OnArgumentsProcessed validates the selected column and target type and
// binds the matching transform.
func (o *Operator) OnArgumentsProcessed(args operator.Arguments) error {
	selected, _ := args.Column(o.columnArg)
	textColumn, ok := selected.(rowset.TypedColumn[string])
	if !ok {
		return describeColumnError(selected)
	}

	typeName, _ := args.String(o.typeArg)
	target, err := ParseTargetType(typeName)
	if err != nil {
		return err
	}

	return o.Bind(textColumn, target)
}

// Bind binds the transform for textColumn and target directly, without going
// through argument resolution.
func (o *Operator) Bind(textColumn rowset.TypedColumn[string], target TargetType) error {
	t, err := newTransform(textColumn, target)
	if err != nil {
		return err
	}
	o.transform = t
	return nil
}

// HandleColumns replaces the text column with the target column.
func (o *Operator) HandleColumns(h *rowset.Header) error {
	return o.transform.HandleColumns(h)
}

// HandleRow parses the row's text value into the target column.
func (o *Operator) HandleRow(r *rowset.Row) {
	o.transform.HandleRow(r)
}

// Target returns the column added by the operator. It is nil before
// OnArgumentsProcessed succeeded.
func (o *Operator) Target() rowset.Column {
	if o.transform == nil {
		return nil
	}
	return o.transform.Target()
}

// Stats returns row outcome counts so far.
func (o *Operator) Stats() Stats {
	if o.transform == nil {
		return Stats{}
	}
	return o.transform.Stats()
}

// newTransform dispatches on the target type.
func newTransform(textColumn rowset.TypedColumn[string], target TargetType) (transform, error) {
	switch target {
	case TargetInt:
		return newTypedTransform[int](IntParser{}, textColumn), nil
	case TargetDouble:
		return newTypedTransform[float64](DoubleParser{}, textColumn), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTargetType, target)
	}
}

func describeColumnError(c rowset.Column) error {
	if c == nil {
		return fmt.Errorf("%w: no column selected", ErrInvalidColumn)
	}
	return fmt.Errorf("%w: %q is %s", ErrInvalidColumn, c.Name(), c.Type())
}
