package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"parsenumber/internal/logging"
)

// CopyFn is a backend's bulk write, usually Repository.CopyFrom.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadStats summarizes a LoadBatches call.
type LoadStats struct {
	Rows    int64
	Batches int64
}

// LoadBatches drains in, groups rows into batches of batchSize and hands
// each non-empty batch to copyFn. It returns the rows reported written and
// the first error. Each successful flush logs running totals and the rate
// since the previous flush.
func LoadBatches(
	ctx context.Context,
	columns []string,
	in <-chan []any,
	batchSize int,
	copyFn CopyFn,
) (LoadStats, error) {
	var st LoadStats
	if batchSize <= 0 {
		return st, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return st, fmt.Errorf("copyFn must not be nil")
	}

	var (
		batch     = make([][]any, 0, batchSize)
		start     = time.Now()
		lastFlush = start
		lastTotal int64
		log       = logging.L()
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, batch)
		st.Rows += n
		batch = batch[:0]
		if err != nil {
			log.WithFields(logrus.Fields{"written": n, "total": st.Rows}).WithError(err).Error("loader: copy failed")
			return err
		}

		st.Batches++
		now := time.Now()
		since := now.Sub(lastFlush)
		rps := float64(0)
		if since > 0 {
			rps = float64(st.Rows-lastTotal) / since.Seconds()
		}
		log.WithFields(logrus.Fields{
			"batch":   st.Batches,
			"rps":     fmt.Sprintf("%.0f", rps),
			"written": n,
			"total":   st.Rows,
			"elapsed": now.Sub(start).Truncate(time.Millisecond),
		}).Debug("loader: batch flushed")
		lastFlush, lastTotal = now, st.Rows
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return st, ctx.Err()

		case row, ok := <-in:
			if !ok {
				if err := flush(); err != nil {
					return st, err
				}
				return st, nil
			}
			batch = append(batch, row)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return st, err
				}
			}
		}
	}
}
