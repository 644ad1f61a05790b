package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"parsenumber/internal/config"
	"parsenumber/internal/datasource"
	"parsenumber/internal/operator"
	"parsenumber/internal/parsenumber"
	"parsenumber/internal/rowset"
	"parsenumber/internal/storage"
	_ "parsenumber/internal/storage/sqlite"
)

type fakeRepo struct {
	columns []string
	rows    [][]any
	batches int
	failOn  int // 1-based batch that fails; 0 never
	closed  bool
	execs   []string
}

func (f *fakeRepo) CopyFrom(_ context.Context, columns []string, rows [][]any) (int64, error) {
	f.batches++
	if f.failOn > 0 && f.batches == f.failOn {
		return 0, errors.New("copy boom")
	}
	f.columns = columns
	for _, r := range rows {
		f.rows = append(f.rows, append([]any(nil), r...))
	}
	return int64(len(rows)), nil
}

func (f *fakeRepo) Exec(_ context.Context, s string) error {
	f.execs = append(f.execs, s)
	return nil
}

func (f *fakeRepo) Close() { f.closed = true }

// withInput replaces the source with in and the sink with repo for one test.
func withInput(t *testing.T, in string, repo *fakeRepo) {
	t.Helper()
	origOpen, origRepo := openSourceFn, newRepositoryFn
	t.Cleanup(func() { openSourceFn, newRepositoryFn = origOpen, origRepo })

	openSourceFn = func(context.Context, datasource.Source) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(in)), nil
	}
	newRepositoryFn = func(context.Context, storage.Config) (storage.Repository, error) {
		return repo, nil
	}
}

func csvPipeline(column, typ string) config.Pipeline {
	return config.Pipeline{
		Job:      "test",
		Source:   config.Source{Kind: "file", File: config.SourceFile{Path: "unused.csv"}},
		Parser:   config.Parser{Kind: "csv", Options: config.Options{}},
		Operator: config.Operator{Kind: parsenumber.Kind, Options: config.Options{"column": column, "type": typ}},
		Storage:  config.Storage{Kind: "fake", DB: config.DBConfig{Table: "values"}},
		Runtime:  config.RuntimeConfig{BatchSize: 2, ChannelBuffer: 1},
	}
}

/* TestRun_Int verifies the integer scenario end to end, including the row accounting. */
func TestRun_Int(t *testing.T) {
	repo := &fakeRepo{}
	withInput(t, "Name,Value\na,42\nb,foo\nc,-7\nd,\n", repo)

	sum, err := Run(context.Background(), csvPipeline("Value", "Int"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if diff := cmp.Diff([]string{"Name", "INT(Value)"}, repo.columns); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
	want := [][]any{{"a", 42}, {"b", nil}, {"c", -7}, {"d", nil}}
	if diff := cmp.Diff(want, repo.rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	if !repo.closed {
		t.Fatalf("repository not closed")
	}

	got := sum
	got.Elapsed = 0
	wantSum := Summary{Read: 4, Parsed: 2, Missing: 1, Malformed: 1, Written: 4, Batches: 2}
	if diff := cmp.Diff(wantSum, got); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
}

/* TestRun_Double verifies decimal and exponential literals and that bad text stays unset. */
func TestRun_Double(t *testing.T) {
	repo := &fakeRepo{}
	withInput(t, "x\n3.14\n1e10\nbad\n", repo)

	if _, err := Run(context.Background(), csvPipeline("x", "Double")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := [][]any{{3.14}, {1e10}, {nil}}
	if diff := cmp.Diff(want, repo.rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"DOUBLE(x)"}, repo.columns); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
}

/* TestRun_DefaultType verifies an absent type falls back to Int. */
func TestRun_DefaultType(t *testing.T) {
	repo := &fakeRepo{}
	withInput(t, "v\n1\n", repo)

	p := csvPipeline("v", "")
	delete(p.Operator.Options, "type")
	if _, err := Run(context.Background(), p); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if diff := cmp.Diff([][]any{{1}}, repo.rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

/* TestRun_SetupErrors verifies argument problems fail before any row is written. */
func TestRun_SetupErrors(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		parser string
		column string
		typ    string
		want   error
	}{
		{"unknown column", "a\n1\n", "csv", "nope", "Int", rowset.ErrUnknownColumn},
		{"missing column", "a\n1\n", "csv", "", "Int", operator.ErrMissingArgument},
		{"bad type", "a\n1\n", "csv", "a", "Long", parsenumber.ErrInvalidTargetType},
		{"non-text column", `[{"a": 1}]`, "json", "a", "Int", parsenumber.ErrInvalidColumn},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeRepo{}
			withInput(t, tc.input, repo)
			p := csvPipeline(tc.column, tc.typ)
			p.Parser.Kind = tc.parser

			_, err := Run(context.Background(), p)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got err %v want %v", err, tc.want)
			}
			if repo.batches != 0 {
				t.Fatalf("got %d batches want 0", repo.batches)
			}
		})
	}
}

// countingCloser counts Close calls on the underlying source.
type countingCloser struct {
	io.Reader
	closes int
}

func (c *countingCloser) Close() error {
	c.closes++
	return nil
}

/* TestRun_SourceClosedOnce verifies the source is closed exactly once when setup fails after the header was read. */
func TestRun_SourceClosedOnce(t *testing.T) {
	cases := []struct {
		parser string
		input  string
	}{
		{"csv", "a\n1\n"},
		{"json", `[{"a": "1"}]`},
	}
	for _, tc := range cases {
		t.Run(tc.parser, func(t *testing.T) {
			withInput(t, "", &fakeRepo{})
			src := &countingCloser{Reader: strings.NewReader(tc.input)}
			openSourceFn = func(context.Context, datasource.Source) (io.ReadCloser, error) {
				return src, nil
			}
			p := csvPipeline("nope", "Int")
			p.Parser.Kind = tc.parser

			if _, err := Run(context.Background(), p); !errors.Is(err, rowset.ErrUnknownColumn) {
				t.Fatalf("got err %v want ErrUnknownColumn", err)
			}
			if src.closes != 1 {
				t.Fatalf("got %d closes want 1", src.closes)
			}
		})
	}
}

func TestRun_UnknownOperator(t *testing.T) {
	withInput(t, "a\n1\n", &fakeRepo{})
	p := csvPipeline("a", "Int")
	p.Operator.Kind = "nope"
	if _, err := Run(context.Background(), p); !errors.Is(err, operator.ErrUnknownKind) {
		t.Fatalf("got %v want ErrUnknownKind", err)
	}
}

/* TestRun_LoaderError verifies a sink failure ends the run with that error. */
func TestRun_LoaderError(t *testing.T) {
	repo := &fakeRepo{failOn: 1}
	var in strings.Builder
	in.WriteString("v\n")
	for i := 0; i < 100; i++ {
		in.WriteString("1\n")
	}
	withInput(t, in.String(), repo)

	_, err := Run(context.Background(), csvPipeline("v", "Int"))
	if err == nil || !strings.Contains(err.Error(), "copy boom") {
		t.Fatalf("got %v want copy boom", err)
	}
}

/* TestRun_ParseErrorsAreCounted verifies malformed CSV records are skipped, not fatal. */
func TestRun_ParseErrorsAreCounted(t *testing.T) {
	repo := &fakeRepo{}
	withInput(t, "v\n1\n\"x\"y\n2\n", repo)

	sum, err := Run(context.Background(), csvPipeline("v", "Int"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.ParseErrors != 1 {
		t.Fatalf("got ParseErrors %d want 1", sum.ParseErrors)
	}
	if diff := cmp.Diff([][]any{{1}, {2}}, repo.rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestNewRuntimeConfig(t *testing.T) {
	t.Setenv("PARSENUMBER_BATCH_SIZE", "7")
	t.Setenv("PARSENUMBER_CH_BUFFER", "bogus")

	got := newRuntimeConfig(config.Pipeline{})
	want := runtimeConfig{batchSize: 7, bufferSize: defaultChannelBuffer}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}

	got = newRuntimeConfig(config.Pipeline{Runtime: config.RuntimeConfig{BatchSize: 3, ChannelBuffer: 5}})
	if got != (runtimeConfig{batchSize: 3, bufferSize: 5}) {
		t.Fatalf("explicit runtime not used: %+v", got)
	}
}

func TestErrAgg(t *testing.T) {
	a := newErrAgg(2)
	for _, m := range []string{"a", "b", "c"} {
		a.add(m)
	}
	if a.count() != 3 {
		t.Fatalf("got count %d want 3", a.count())
	}
	if diff := cmp.Diff([]string{"a", "b"}, a.firstN()); diff != "" {
		t.Fatalf("first mismatch (-want +got):\n%s", diff)
	}
}

/* TestRun_SQLiteEndToEnd runs a file source into an auto-created SQLite table and reads it back. */
func TestRun_SQLiteEndToEnd(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	if err := os.WriteFile(in, []byte("Name,Value\na,42\nb,foo\nc,-7\n"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	dsn := filepath.Join(dir, "out.db")

	p := config.Pipeline{
		Job:      "e2e",
		Source:   config.Source{Kind: "file", File: config.SourceFile{Path: in}},
		Parser:   config.Parser{Kind: "csv", Options: config.Options{}},
		Operator: config.Operator{Kind: parsenumber.Kind, Options: config.Options{"column": "Value", "type": "Int"}},
		Storage:  config.Storage{Kind: "sqlite", DB: config.DBConfig{DSN: dsn, Table: "values", AutoCreateTable: true}},
		Runtime:  config.RuntimeConfig{BatchSize: 10, ChannelBuffer: 4},
	}
	sum, err := Run(context.Background(), p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Written != 3 {
		t.Fatalf("got Written %d want 3", sum.Written)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT "Name", "INT(Value)" FROM "values" ORDER BY rowid`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()

	type rec struct {
		Name  string
		Value sql.NullInt64
	}
	var got []rec
	for rows.Next() {
		var r rec
		if err := rows.Scan(&r.Name, &r.Value); err != nil {
			t.Fatalf("scan: %v", err)
		}
		got = append(got, r)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}
	want := []rec{
		{"a", sql.NullInt64{Int64: 42, Valid: true}},
		{"b", sql.NullInt64{}},
		{"c", sql.NullInt64{Int64: -7, Valid: true}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("table mismatch (-want +got):\n%s", diff)
	}
}
