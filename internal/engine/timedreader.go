package engine

import (
	"time"

	"github.com/duoan/fdf/internal/reader"
	"github.com/duoan/fdf/internal/record"
	"github.com/duoan/fdf/internal/stats"
)

// timedReader wraps a reader.Reader, measuring the wall-clock time spent
// inside Next and reporting it to an Accumulator — the spec's stated
// preference over a pure residual estimate, since an iterator-based reader
// can otherwise not be cleanly separated from operator time.
type timedReader struct {
	inner reader.Reader
	acc   *stats.Accumulator
}

func newTimedReader(inner reader.Reader, acc *stats.Accumulator) *timedReader {
	return &timedReader{inner: inner, acc: acc}
}

func (t *timedReader) Schema() *record.Schema { return t.inner.Schema() }

func (t *timedReader) Next() (record.Record, error) {
	start := time.Now()
	rec, err := t.inner.Next()
	t.acc.AddReadTime(time.Since(start))
	return rec, err
}

func (t *timedReader) Close() error { return t.inner.Close() }
