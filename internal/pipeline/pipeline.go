// Package pipeline runs one configured job end to end:
//
//	source → reader → operator (one goroutine, input order) → loader → sink
//
// Stages are connected by bounded channels and run under an errgroup; the
// first fatal error cancels the others. Malformed input records and
// unparsable values are counted, never fatal.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"parsenumber/internal/config"
	"parsenumber/internal/datasource"
	"parsenumber/internal/logging"
	"parsenumber/internal/metrics"
	"parsenumber/internal/operator"
	"parsenumber/internal/parser"
	"parsenumber/internal/parsenumber"
	"parsenumber/internal/rowset"
	"parsenumber/internal/storage"
)

const (
	defaultBatchSize     = 10000
	defaultChannelBuffer = 4096

	// parse errors listed individually in the summary
	firstErrors = 3
)

// Summary reports the row accounting of a run. Every record the reader
// produced is either Written or lost to a fatal error; ParseErrors counts
// input records the reader rejected before they became rows.
type Summary struct {
	Read        int64
	ParseErrors int64
	Parsed      int64
	Missing     int64
	Malformed   int64
	Written     int64
	Batches     int64
	Elapsed     time.Duration
}

// runtimeConfig is the resolved batching and buffering of a run.
type runtimeConfig struct {
	batchSize  int
	bufferSize int
}

// Test seams.
var (
	newRepositoryFn = storage.New

	openSourceFn = func(ctx context.Context, src datasource.Source) (io.ReadCloser, error) {
		return src.Open(ctx)
	}
)

// stats is implemented by operators that count row outcomes.
type stats interface {
	Stats() parsenumber.Stats
}

// Run executes p and returns its summary. Setup failures (bad source,
// header, operator arguments, sink) are returned before any row is read.
func Run(ctx context.Context, p config.Pipeline) (Summary, error) {
	var sum Summary
	start := time.Now()
	log := logging.L().WithField("job", p.Job)
	rt := newRuntimeConfig(p)

	setupStart := time.Now()
	st, err := setup(ctx, p)
	metrics.RecordStep(p.Job, "setup", err, time.Since(setupStart))
	if err != nil {
		return sum, err
	}
	defer st.repo.Close()

	log.WithFields(logrus.Fields{
		"source":   st.sourceName,
		"operator": st.meta.Name,
		"columns":  st.out.Names(),
		"storage":  p.Storage.Kind,
		"table":    p.Storage.DB.Table,
		"batch":    rt.batchSize,
		"buffer":   rt.bufferSize,
	}).Info("pipeline: starting")

	g, gctx := errgroup.WithContext(ctx)
	rawCh := make(chan *rowset.Row, rt.bufferSize)
	outCh := make(chan []any, rt.bufferSize)
	parseAgg := newErrAgg(firstErrors)

	// 1) Reader.
	g.Go(func() error {
		defer close(rawCh)
		t0 := time.Now()
		err := st.reader.Stream(gctx, rawCh, func(line int, err error) {
			parseAgg.add(fmt.Sprintf("line=%d: %v", line, err))
		})
		metrics.RecordStep(p.Job, "read", err, time.Since(t0))
		if err != nil {
			return fmt.Errorf("read %s: %w", st.sourceName, err)
		}
		return nil
	})

	// 2) Operator. HandleRow is only ever called from here.
	g.Go(func() error {
		defer close(outCh)
		t0 := time.Now()
		err := transformLoop(gctx, st.rowOp, st.out, rawCh, outCh, &sum.Read)
		metrics.RecordStep(p.Job, "transform", err, time.Since(t0))
		return err
	})

	// 3) Loader.
	g.Go(func() error {
		t0 := time.Now()
		ls, err := storage.LoadBatches(gctx, st.sink.ColumnNames(), outCh, rt.batchSize, st.repo.CopyFrom)
		metrics.RecordStep(p.Job, "load", err, time.Since(t0))
		sum.Written, sum.Batches = ls.Rows, ls.Batches
		if err != nil {
			return fmt.Errorf("load: %w", err)
		}
		return nil
	})

	err = g.Wait()

	if s, ok := st.op.(stats); ok {
		ost := s.Stats()
		sum.Parsed, sum.Missing, sum.Malformed = ost.Parsed, ost.Missing, ost.Malformed
	}
	sum.ParseErrors = int64(parseAgg.count())
	sum.Elapsed = time.Since(start)

	recordSummary(p.Job, sum)
	logSummary(log, sum, parseAgg)

	if err != nil {
		return sum, err
	}
	return sum, nil
}

// setupResult is everything a run needs once arguments are bound.
type setupResult struct {
	sourceName string
	reader     parser.RowReader
	op         operator.Operator
	rowOp      operator.RowOperator
	meta       operator.Metadata
	out        *rowset.Header
	sink       storage.Config
	repo       storage.Repository
}

// setup opens the input, reads its header, drives the operator through
// argument processing and column rewriting, and opens the sink for the
// rewritten header.
func setup(ctx context.Context, p config.Pipeline) (*setupResult, error) {
	src, err := datasource.New(p.Source)
	if err != nil {
		return nil, err
	}
	rc, err := openSourceFn(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	rc = &onceCloser{ReadCloser: rc}
	rr, err := parser.New(p.Parser, rc)
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	// rc now belongs to rr. The CSV reader closes it when Stream returns; the
	// JSON reader has already closed it after buffering the input. If setup
	// fails nothing streams, so close it here as well.
	ok := false
	defer func() {
		if !ok {
			rc.Close()
		}
	}()

	op, meta, err := operator.New(p.Operator.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w (registered: %s)", err, strings.Join(operator.Kinds(), ", "))
	}
	in := rr.Header()
	args, err := operator.Resolve(op.InputArguments(), in, p.Operator.Options.Strings())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", meta.Name, err)
	}
	if err := op.OnArgumentsProcessed(args); err != nil {
		return nil, fmt.Errorf("%s: %w", meta.Name, err)
	}

	out, err := rowset.NewHeader(in.Columns()...)
	if err != nil {
		return nil, err
	}
	if co, isCol := op.(operator.ColumnOperator); isCol {
		if err := co.HandleColumns(out); err != nil {
			return nil, fmt.Errorf("%s: rewrite columns: %w", meta.Name, err)
		}
	}
	rowOp, _ := op.(operator.RowOperator)

	scfg := storage.Config{
		Kind:    p.Storage.Kind,
		DSN:     p.Storage.DB.DSN,
		Table:   p.Storage.DB.Table,
		Columns: out.Columns(),
	}
	repo, err := newRepositoryFn(ctx, scfg)
	if errors.Is(err, storage.ErrUnknownKind) {
		return nil, fmt.Errorf("init repo: %w (registered: %s)", err, strings.Join(storage.ListKinds(), ", "))
	}
	if err != nil {
		return nil, fmt.Errorf("init repo: %w", err)
	}
	if p.Storage.DB.AutoCreateTable {
		if err := storage.EnsureTable(ctx, scfg, repo); err != nil {
			repo.Close()
			return nil, fmt.Errorf("apply DDL: %w", err)
		}
		logging.L().WithField("table", scfg.Table).Debug("pipeline: table ensured")
	}

	ok = true
	return &setupResult{
		sourceName: src.Name(),
		reader:     rr,
		op:         op,
		rowOp:      rowOp,
		meta:       meta,
		out:        out,
		sink:       scfg,
		repo:       repo,
	}, nil
}

// onceCloser makes Close safe to call from both the reader and setup.
type onceCloser struct {
	io.ReadCloser
	once sync.Once
	err  error
}

func (c *onceCloser) Close() error {
	c.once.Do(func() { c.err = c.ReadCloser.Close() })
	return c.err
}

// transformLoop applies rowOp to every row in order and projects it onto
// out. A nil rowOp passes rows through unchanged.
func transformLoop(
	ctx context.Context,
	rowOp operator.RowOperator,
	out *rowset.Header,
	in <-chan *rowset.Row,
	next chan<- []any,
	read *int64,
) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r, ok := <-in:
			if !ok {
				return nil
			}
			*read++
			if rowOp != nil {
				rowOp.HandleRow(r)
			}
			select {
			case next <- r.Project(out):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func newRuntimeConfig(p config.Pipeline) runtimeConfig {
	return runtimeConfig{
		batchSize:  pickInt(p.Runtime.BatchSize, getenvInt("PARSENUMBER_BATCH_SIZE", defaultBatchSize)),
		bufferSize: pickInt(p.Runtime.ChannelBuffer, getenvInt("PARSENUMBER_CH_BUFFER", defaultChannelBuffer)),
	}
}

func recordSummary(job string, s Summary) {
	metrics.RecordRow(job, metrics.KindRead, s.Read)
	metrics.RecordRow(job, metrics.KindParsed, s.Parsed)
	metrics.RecordRow(job, metrics.KindMissing, s.Missing)
	metrics.RecordRow(job, metrics.KindMalformed, s.Malformed)
	metrics.RecordRow(job, metrics.KindWritten, s.Written)
	metrics.RecordBatches(job, s.Batches)
}

func logSummary(log logrus.FieldLogger, s Summary, parseAgg *errAgg) {
	if n := parseAgg.count(); n > 0 {
		first := parseAgg.firstN()
		log.Warnf("parse errors: %d (showing first %d)", n, len(first))
		for i, msg := range first {
			log.Warnf("  #%03d: %s", i+1, msg)
		}
	}
	log.WithFields(logrus.Fields{
		"read":         s.Read,
		"parse_errors": s.ParseErrors,
		"parsed":       s.Parsed,
		"missing":      s.Missing,
		"malformed":    s.Malformed,
		"written":      s.Written,
		"batches":      s.Batches,
		"elapsed":      s.Elapsed.Truncate(time.Millisecond),
	}).Info("summary")
}

// getenvInt reads an int from the environment, returning def when unset or
// invalid.
func getenvInt(k string, def int) int {
	if s := os.Getenv(k); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return def
}

// pickInt returns a when positive, otherwise b.
func pickInt(a, b int) int {
	if a > 0 {
		return a
	}
	return b
}

// errAgg counts messages and keeps the first few.
type errAgg struct {
	mu    sync.Mutex
	limit int
	n     int
	first []string
}

func newErrAgg(limit int) *errAgg { return &errAgg{limit: limit} }

func (a *errAgg) add(msg string) {
	a.mu.Lock()
	if a.n < a.limit {
		a.first = append(a.first, msg)
	}
	a.n++
	a.mu.Unlock()
}

func (a *errAgg) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.n
}

func (a *errAgg) firstN() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.first...)
}
