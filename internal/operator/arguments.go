package operator

import (
	"errors"
	"fmt"
	"strings"

	"parsenumber/internal/rowset"
)

var (
	// ErrMissingArgument is returned when a required argument has no value
	// and no default.
	ErrMissingArgument = errors.New("missing required argument")
)

// Argument is an input argument descriptor declared by an operator.
type Argument interface {
	// Key is the stable identifier used in pipeline configuration.
	Key() string
	// Label is the human-readable name shown by the host.
	Label() string
	Required() bool
}

// ColumnArgument selects one column of the incoming header. Types lists the
// column types the host should offer; an empty list allows every type.
type ColumnArgument struct {
	Name       string
	ConfigKey  string
	IsRequired bool
	Types      []rowset.ColumnType
}

func (a *ColumnArgument) Key() string    { return a.ConfigKey }
func (a *ColumnArgument) Label() string  { return a.Name }
func (a *ColumnArgument) Required() bool { return a.IsRequired }

// Allows reports whether a column of type t may be offered for a.
func (a *ColumnArgument) Allows(t rowset.ColumnType) bool {
	if len(a.Types) == 0 {
		return true
	}
	for _, allowed := range a.Types {
		if allowed == t {
			return true
		}
	}
	return false
}

// StringDropdownArgument selects one string out of Options.
type StringDropdownArgument struct {
	Name         string
	ConfigKey    string
	IsRequired   bool
	Options      []string
	DefaultValue string
}

func (a *StringDropdownArgument) Key() string    { return a.ConfigKey }
func (a *StringDropdownArgument) Label() string  { return a.Name }
func (a *StringDropdownArgument) Required() bool { return a.IsRequired }

// Arguments holds the resolved argument values passed to
// OnArgumentsProcessed.
type Arguments struct {
	values map[Argument]any
}

// NewArguments returns an empty argument set. Hosts fill it with With.
func NewArguments() Arguments {
	return Arguments{values: map[Argument]any{}}
}

// With records v as the value for arg and returns a.
func (a Arguments) With(arg Argument, v any) Arguments {
	a.values[arg] = v
	return a
}

// Column returns the column selected for arg.
func (a Arguments) Column(arg *ColumnArgument) (rowset.Column, bool) {
	v, ok := a.values[arg].(rowset.Column)
	return v, ok
}

// String returns the string selected for arg.
func (a Arguments) String(arg *StringDropdownArgument) (string, bool) {
	v, ok := a.values[arg].(string)
	return v, ok
}

// Resolve turns raw configuration values (keyed by Argument.Key) into
// Arguments for the declared args against the incoming header h.
//
// Column arguments resolve by column name. The column type is not checked
// here; validating the selection is the operator's job. Dropdowns fall back
// to their default and are passed through verbatim.
func Resolve(args []Argument, h *rowset.Header, raw map[string]string) (Arguments, error) {
	out := NewArguments()
	for _, arg := range args {
		s, ok := raw[arg.Key()]
		s = strings.TrimSpace(s)

		switch a := arg.(type) {
		case *ColumnArgument:
			if !ok || s == "" {
				if a.Required() {
					return Arguments{}, fmt.Errorf("%s (%s): %w", a.Label(), a.Key(), ErrMissingArgument)
				}
				continue
			}
			col, found := h.Lookup(s)
			if !found {
				return Arguments{}, fmt.Errorf("%s (%s): column %q: %w", a.Label(), a.Key(), s, rowset.ErrUnknownColumn)
			}
			out.With(a, col)

		case *StringDropdownArgument:
			if !ok || s == "" {
				s = a.DefaultValue
			}
			if s == "" {
				if a.Required() {
					return Arguments{}, fmt.Errorf("%s (%s): %w", a.Label(), a.Key(), ErrMissingArgument)
				}
				continue
			}
			out.With(a, s)

		default:
			return Arguments{}, fmt.Errorf("argument %s: unsupported descriptor %T", arg.Key(), arg)
		}
	}
	return out, nil
}
