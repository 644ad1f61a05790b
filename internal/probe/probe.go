// Package probe samples the input of a pipeline and reports, per text column,
// how many values would parse as Int or Double. It helps pick the column and
// target type before running the real job.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"parsenumber/internal/config"
	"parsenumber/internal/datasource"
	"parsenumber/internal/operator"
	"parsenumber/internal/parser"
	"parsenumber/internal/parsenumber"
	"parsenumber/internal/rowset"
)

// DefaultMaxRows bounds the sample when the caller passes 0.
const DefaultMaxRows = 10000

// ColumnReport holds the sample counts of one input column.
type ColumnReport struct {
	Name string
	Type rowset.ColumnType

	// Eligible reports whether parse_number accepts the column as input.
	Eligible bool

	// Present counts rows with a value; only text values are tried.
	Present int
	Int     int
	Double  int
}

// Suggest returns the target type under which every present value parses,
// preferring Int, or "" when neither does or the column is not eligible.
func (c ColumnReport) Suggest() string {
	if !c.Eligible || c.Present == 0 {
		return ""
	}
	switch c.Present {
	case c.Int:
		return parsenumber.TargetInt.String()
	case c.Double:
		return parsenumber.TargetDouble.String()
	}
	return ""
}

// Report is the result of sampling.
type Report struct {
	Source      string
	Rows        int
	ParseErrors int
	Columns     []ColumnReport
}

// Run opens the source and parser described by p and samples up to maxRows
// rows.
func Run(ctx context.Context, p config.Pipeline, maxRows int) (Report, error) {
	src, err := datasource.New(p.Source)
	if err != nil {
		return Report{}, err
	}
	rc, err := src.Open(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("open source: %w", err)
	}
	rr, err := parser.New(p.Parser, rc)
	if err != nil {
		return Report{}, fmt.Errorf("read header: %w", err)
	}
	rep, err := Sample(ctx, rr, maxRows)
	rep.Source = src.Name()
	return rep, err
}

// Sample streams rows from rr until EOF or maxRows rows were seen.
func Sample(ctx context.Context, rr parser.RowReader, maxRows int) (Report, error) {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	cols := rr.Header().Columns()
	input := inputColumnArgument()
	rep := Report{Columns: make([]ColumnReport, len(cols))}
	for i, c := range cols {
		rep.Columns[i] = ColumnReport{Name: c.Name(), Type: c.Type(), Eligible: input.Allows(c.Type())}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rows := make(chan *rowset.Row)
	errc := make(chan error, 1)
	parseErrors := 0
	go func() {
		defer close(rows)
		errc <- rr.Stream(ctx, rows, func(int, error) { parseErrors++ })
	}()

	stopped := false
	for r := range rows {
		if stopped {
			continue
		}
		rep.Rows++
		for i, c := range cols {
			rep.Columns[i].observe(r, c)
		}
		if rep.Rows >= maxRows {
			stopped = true
			cancel()
		}
	}
	err := <-errc
	rep.ParseErrors = parseErrors
	if err != nil && !(stopped && errors.Is(err, context.Canceled)) {
		return rep, err
	}
	return rep, nil
}

// inputColumnArgument returns the column selector parse_number declares.
func inputColumnArgument() *operator.ColumnArgument {
	for _, a := range parsenumber.New().InputArguments() {
		if ca, ok := a.(*operator.ColumnArgument); ok {
			return ca
		}
	}
	return &operator.ColumnArgument{}
}

func (cr *ColumnReport) observe(r *rowset.Row, c rowset.Column) {
	if !r.HasValue(c) {
		return
	}
	cr.Present++
	tc, ok := c.(rowset.TypedColumn[string])
	if !ok {
		return
	}
	s, _ := rowset.GetValue(r, tc)
	if _, ok := (parsenumber.IntParser{}).TryParse(s); ok {
		cr.Int++
	}
	if _, ok := (parsenumber.DoubleParser{}).TryParse(s); ok {
		cr.Double++
	}
}

// Render writes the report as an ASCII table.
func (r Report) Render(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "source: %s  rows sampled: %d  parse errors: %d\n", r.Source, r.Rows, r.ParseErrors); err != nil {
		return err
	}
	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(
			renderer.NewBlueprint(tw.Rendition{Symbols: tw.NewSymbols(tw.StyleASCII)})),
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header([]string{"column", "type", "present", "int", "double", "suggest"})
	for _, c := range r.Columns {
		row := []string{
			c.Name,
			c.Type.String(),
			strconv.Itoa(c.Present),
			strconv.Itoa(c.Int),
			strconv.Itoa(c.Double),
			c.Suggest(),
		}
		if err := table.Append(row); err != nil {
			return fmt.Errorf("probe: render: %w", err)
		}
	}
	return table.Render()
}
