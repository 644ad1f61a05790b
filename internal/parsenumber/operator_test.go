package parsenumber

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"parsenumber/internal/operator"
	"parsenumber/internal/rowset"
)

// runOperator drives op through the host lifecycle over the given text
// values of column "Value" and returns the rewritten header and projected
// rows. A nil entry in values means the row has no value.
func runOperator(t *testing.T, typ string, values []*string) (*rowset.Header, [][]any, *Operator) {
	t.Helper()

	value := rowset.NewStringColumn("Value")
	h, err := rowset.NewHeader(rowset.NewIntColumn("id"), value)
	if err != nil {
		t.Fatalf("NewHeader: %v", err)
	}

	op := New()
	args, err := operator.Resolve(op.InputArguments(), h, map[string]string{"column": "Value", "type": typ})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := op.OnArgumentsProcessed(args); err != nil {
		t.Fatalf("OnArgumentsProcessed: %v", err)
	}
	if err := op.HandleColumns(h); err != nil {
		t.Fatalf("HandleColumns: %v", err)
	}

	out := make([][]any, 0, len(values))
	for i, v := range values {
		r := rowset.NewRow(i + 2)
		rowset.SetValue(r, rowset.NewIntColumn("id"), i)
		if v != nil {
			rowset.SetValue(r, value, *v)
		}
		op.HandleRow(r)
		out = append(out, r.Project(h))
	}
	return h, out, op
}

func strs(in ...string) []*string {
	out := make([]*string, len(in))
	for i := range in {
		out[i] = &in[i]
	}
	return out
}

func TestOperator_IntEndToEnd(t *testing.T) {
	h, rows, op := runOperator(t, "Int", strs("42", "foo", "-7", ""))

	if diff := cmp.Diff([]string{"id", "INT(Value)"}, h.Names()); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}
	want := [][]any{{0, 42}, {1, nil}, {2, -7}, {3, nil}}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	if got, want := op.Stats(), (Stats{Parsed: 2, Malformed: 2}); got != want {
		t.Fatalf("stats = %+v; want %+v", got, want)
	}
}

func TestOperator_DoubleEndToEnd(t *testing.T) {
	h, rows, _ := runOperator(t, "Double", strs("3.14", "1e10", "bad"))

	if diff := cmp.Diff([]string{"id", "DOUBLE(Value)"}, h.Names()); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}
	want := [][]any{{0, 3.14}, {1, 1e10}, {2, nil}}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestOperator_MissingValueLeavesTargetUnset(t *testing.T) {
	_, rows, op := runOperator(t, "Int", []*string{nil, strs("5")[0]})

	want := [][]any{{0, nil}, {1, 5}}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	if got := op.Stats(); got.Missing != 1 || got.Parsed != 1 {
		t.Fatalf("stats = %+v; want 1 missing, 1 parsed", got)
	}
}

func TestOperator_DefaultTargetIsInt(t *testing.T) {
	_, rows, op := runOperator(t, "", strs("12"))
	if op.Target().Type() != rowset.TypeInt {
		t.Fatalf("default target type = %s; want Int", op.Target().Type())
	}
	if diff := cmp.Diff([][]any{{0, 12}}, rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestOperator_InputArguments(t *testing.T) {
	args := New().InputArguments()
	if len(args) != 2 {
		t.Fatalf("got %d arguments; want 2", len(args))
	}
	col, ok := args[0].(*operator.ColumnArgument)
	if !ok || !col.Required() || !col.Allows(rowset.TypeString) || col.Allows(rowset.TypeInt) {
		t.Fatalf("first argument should be a required text column selector, got %#v", args[0])
	}
	typ, ok := args[1].(*operator.StringDropdownArgument)
	if !ok || !typ.Required() {
		t.Fatalf("second argument should be a required dropdown, got %#v", args[1])
	}
	if diff := cmp.Diff([]string{"Int", "Double"}, typ.Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if typ.DefaultValue != "Int" {
		t.Fatalf("default = %q; want Int", typ.DefaultValue)
	}
}

func TestOperator_SetupErrors(t *testing.T) {
	value := rowset.NewStringColumn("Value")
	count := rowset.NewDoubleColumn("count")
	h, _ := rowset.NewHeader(value, count)

	tests := []struct {
		name string
		raw  map[string]string
		want error
	}{
		{"non-text column", map[string]string{"column": "count", "type": "Int"}, ErrInvalidColumn},
		{"unknown type", map[string]string{"column": "Value", "type": "Boolean"}, ErrInvalidTargetType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := New()
			args, err := operator.Resolve(op.InputArguments(), h, tt.raw)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if err := op.OnArgumentsProcessed(args); !errors.Is(err, tt.want) {
				t.Fatalf("OnArgumentsProcessed: got %v; want %v", err, tt.want)
			}
			if op.Target() != nil {
				t.Fatalf("transform bound despite setup failure")
			}
		})
	}

	t.Run("no column", func(t *testing.T) {
		if err := New().OnArgumentsProcessed(operator.NewArguments()); !errors.Is(err, ErrInvalidColumn) {
			t.Fatalf("got %v; want ErrInvalidColumn", err)
		}
	})
}

/* TestOperator_TargetNameTaken verifies a header that already holds the target name is rejected untouched. */
func TestOperator_TargetNameTaken(t *testing.T) {
	tests := []struct {
		typ   string
		taken rowset.Column
	}{
		{"Int", rowset.NewIntColumn("INT(Value)")},
		{"Double", rowset.NewStringColumn("DOUBLE(Value)")},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			h, err := rowset.NewHeader(rowset.NewStringColumn("Value"), tt.taken)
			if err != nil {
				t.Fatalf("NewHeader: %v", err)
			}
			op := New()
			args, err := operator.Resolve(op.InputArguments(), h, map[string]string{"column": "Value", "type": tt.typ})
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if err := op.OnArgumentsProcessed(args); err != nil {
				t.Fatalf("OnArgumentsProcessed: %v", err)
			}
			if err := op.HandleColumns(h); !errors.Is(err, rowset.ErrDuplicateColumn) {
				t.Fatalf("HandleColumns: got %v; want ErrDuplicateColumn", err)
			}
			if diff := cmp.Diff([]string{"Value", tt.taken.Name()}, h.Names()); diff != "" {
				t.Fatalf("header changed by rejected rewrite (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOperator_BindUnsupportedType(t *testing.T) {
	op := New()
	err := op.Bind(rowset.NewStringColumn("Value"), TargetType(99))
	if !errors.Is(err, ErrUnsupportedTargetType) {
		t.Fatalf("Bind: got %v; want ErrUnsupportedTargetType", err)
	}
	if op.Target() != nil {
		t.Fatalf("transform bound for unsupported type")
	}
}

func TestParseTargetType(t *testing.T) {
	for in, want := range map[string]TargetType{"Int": TargetInt, "int": TargetInt, "DOUBLE": TargetDouble} {
		got, err := ParseTargetType(in)
		if err != nil || got != want {
			t.Fatalf("ParseTargetType(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	for _, in := range []string{"", "Boolean", "1", "Integer"} {
		if _, err := ParseTargetType(in); !errors.Is(err, ErrInvalidTargetType) {
			t.Fatalf("ParseTargetType(%q): got %v; want ErrInvalidTargetType", in, err)
		}
	}
}

func TestRegistered(t *testing.T) {
	op, meta, err := operator.New(Kind)
	if err != nil {
		t.Fatalf("operator.New: %v", err)
	}
	if meta.Name != "Parse number" {
		t.Fatalf("meta.Name = %q; want %q", meta.Name, "Parse number")
	}
	if _, ok := op.(*Operator); !ok {
		t.Fatalf("registered factory returned %T", op)
	}
}
