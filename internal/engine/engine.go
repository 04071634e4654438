// Package engine drives a compiled plan.Plan's reader through its operator
// chain to the final/trace/error writers, the way
// original_source/crates/fdf-engine/src/runner.rs::Runner::run does, with
// the per-record state machine and cloning discipline from spec.md §4.5.
package engine

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/grab/async"

	"github.com/duoan/fdf/internal/monitor"
	"github.com/duoan/fdf/internal/operator"
	"github.com/duoan/fdf/internal/plan"
	"github.com/duoan/fdf/internal/reader"
	"github.com/duoan/fdf/internal/record"
	"github.com/duoan/fdf/internal/stats"
)

// DefaultBatchSize is how many records the batched-parallel driver collects
// per dispatch round before handing the batch to the writers.
const DefaultBatchSize = 256

// Options configures an Engine's scheduling mode.
type Options struct {
	Concurrency int
	BatchSize   int
}

// Option mutates an Engine's Options at construction.
type Option func(*Options)

// WithConcurrency switches the engine to batched-parallel mode with n
// worker goroutines running the operator chain for different records of
// the same batch concurrently. n <= 1 keeps the engine sequential.
func WithConcurrency(n int) Option {
	return func(o *Options) { o.Concurrency = n }
}

// WithBatchSize overrides DefaultBatchSize.
func WithBatchSize(n int) Option {
	return func(o *Options) { o.BatchSize = n }
}

// Engine is the single-run driver built from a compiled Plan.
type Engine struct {
	plan   *plan.Plan
	reader reader.Reader
	sinks  *sinkBuilder
	mon    monitor.Monitor
	opts   Options
}

// New builds an Engine over a reader already opened from plan.Source.
func New(p *plan.Plan, r reader.Reader, mon monitor.Monitor, opts ...Option) *Engine {
	o := Options{Concurrency: 1, BatchSize: DefaultBatchSize}
	for _, fn := range opts {
		fn(&o)
	}
	if mon == nil {
		mon = monitor.NewNoop()
	}
	return &Engine{plan: p, reader: r, sinks: newSinkBuilder(p), mon: mon, opts: o}
}

// Run drives the engine to completion, returning the accumulated
// statistics and, if the run was aborted, the error that aborted it.
// Already-written records are left on disk; there is no rollback, per
// spec.md §4.5's failure semantics.
func (e *Engine) Run(ctx context.Context) (*stats.Accumulator, error) {
	if e.opts.Concurrency > 1 && e.allStepsConcurrentOK() {
		return e.runBatched(ctx)
	}
	return e.runSequential()
}

// allStepsConcurrentOK reports whether every step in the plan declares
// itself safe for concurrent invocation via operator.ConcurrencySafe.
// Operators that don't implement the interface are assumed single-
// threaded-only, per its doc comment, so a pipeline containing even one
// such step runs sequentially regardless of a requested concurrency.
func (e *Engine) allStepsConcurrentOK() bool {
	for _, step := range e.plan.Steps {
		safe, ok := step.Op.(operator.ConcurrencySafe)
		if !ok || !safe.ConcurrentOK() {
			return false
		}
	}
	return true
}

func (e *Engine) stepNames() []string {
	names := make([]string, len(e.plan.Steps))
	for i, s := range e.plan.Steps {
		names[i] = s.Name
	}
	return names
}

// runChain walks rec through the operator chain. It returns the surviving
// record and true, or (zero Record, false) plus the index it was dropped
// or failed at and the pre-step snapshot to trace. A snapshot is cloned
// before each step only when tracing is enabled, and the final survivor is
// returned without a copy (the cloning discipline from spec.md §4.5).
func (e *Engine) runChain(rec record.Record, local *stats.Local) (out record.Record, survived bool, dropIndex int, snapshot record.Record) {
	cur := rec
	for i, step := range e.plan.Steps {
		local.RecordEntered(i)

		var pre record.Record
		if e.plan.Sink.EnableTrace {
			pre = cur.Clone()
		}

		start := time.Now()
		result := step.Op.Process(cur)
		elapsed := time.Since(start)

		if result.Outcome == operator.Kept {
			local.RecordProcessed(i, elapsed)
			cur = result.Record
			continue
		}

		local.RecordDropped(i, elapsed)
		return record.Record{}, false, i, pre
	}
	return cur, true, -1, record.Record{}
}

// runSequential is the default single-goroutine driver: one record at a
// time, operator chain run synchronously, written to its sink before the
// next record is pulled.
func (e *Engine) runSequential() (acc *stats.Accumulator, err error) {
	acc = stats.NewAccumulator(e.stepNames())
	local := acc.NewLocal()
	ws := newWriterSet(e.sinks)
	tr := newTimedReader(e.reader, acc)

	defer func() {
		acc.Merge(local)
		_ = tr.Close()
		if cerr := ws.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	var index int64
	for {
		rec, nerr := tr.Next()
		if nerr == io.EOF {
			break
		}
		if nerr != nil {
			var fatal *reader.FatalError
			if errors.As(nerr, &fatal) {
				return acc, fatal
			}

			local.RecordInput()
			ew, werr := ws.Error()
			if werr != nil {
				return acc, werr
			}
			if werr := ew.Write(record.New(map[string]interface{}{"index": index, "error": nerr.Error()})); werr != nil {
				return acc, werr
			}
			e.mon.Warning(nerr)
			index++
			continue
		}

		local.RecordInput()
		index++

		out, survived, dropIndex, snapshot := e.runChain(rec, local)
		if !survived {
			if e.plan.Sink.EnableTrace {
				tw, terr := ws.Trace(dropIndex)
				if terr != nil {
					return acc, terr
				}
				if werr := tw.Write(snapshot); werr != nil {
					return acc, werr
				}
			}
			continue
		}

		fw, ferr := ws.Final()
		if ferr != nil {
			return acc, ferr
		}
		writeStart := time.Now()
		if werr := fw.Write(out); werr != nil {
			return acc, werr
		}
		local.AddWriteTime(time.Since(writeStart))
		local.RecordSurvivor()
	}

	return acc, nil
}

// batchResult is one record's outcome after running the operator chain,
// tagged with its position inside the batch so results can be written back
// in source order after the batch barrier.
type batchResult struct {
	record    record.Record
	survived  bool
	dropIndex int
	snapshot  record.Record
	local     *stats.Local
}

// runBatched is the opt-in parallel driver: the reader is pulled
// sequentially into a batch, the operator chain for each record in the
// batch runs concurrently on a worker pool built on async.Consume (the
// same worker-pool idiom as the teacher's compaction storage), and results
// are written back to the sinks in original order only once every record
// in the batch has resolved — preserving both batch order and intra-batch
// order per spec.md §5.
func (e *Engine) runBatched(ctx context.Context) (acc *stats.Accumulator, err error) {
	acc = stats.NewAccumulator(e.stepNames())
	ws := newWriterSet(e.sinks)
	tr := newTimedReader(e.reader, acc)

	tasks := make(chan async.Task, e.opts.Concurrency)
	pool := async.Consume(ctx, e.opts.Concurrency, tasks)

	defer func() {
		pool.Cancel()
		close(tasks)
		_ = tr.Close()
		if cerr := ws.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	var index int64
	for {
		batch, berr := e.nextBatch(tr, &index, ws, acc)
		if berr != nil {
			return acc, berr
		}
		if len(batch) == 0 {
			break
		}

		pending := make([]async.Task, len(batch))
		for i, rec := range batch {
			rec, local := rec, acc.NewLocal()
			pending[i] = async.NewTask(func(ctx context.Context) (interface{}, error) {
				out, survived, dropIndex, snapshot := e.runChain(rec, local)
				return batchResult{
					record: out, survived: survived,
					dropIndex: dropIndex, snapshot: snapshot, local: local,
				}, nil
			})
			tasks <- pending[i]
		}

		results := make([]batchResult, len(batch))
		batchLocal := acc.NewLocal()
		for i, task := range pending {
			v, terr := task.Outcome()
			if terr != nil {
				return acc, terr
			}
			res := v.(batchResult)
			batchLocal.Add(res.local)
			results[i] = res
		}
		acc.Merge(batchLocal)

		for _, res := range results {
			if !res.survived {
				if e.plan.Sink.EnableTrace {
					tw, terr := ws.Trace(res.dropIndex)
					if terr != nil {
						return acc, terr
					}
					if werr := tw.Write(res.snapshot); werr != nil {
						return acc, werr
					}
				}
				continue
			}

			fw, ferr := ws.Final()
			if ferr != nil {
				return acc, ferr
			}
			writeStart := time.Now()
			if werr := fw.Write(res.record); werr != nil {
				return acc, werr
			}
			acc.AddWriteTime(time.Since(writeStart))
			acc.RecordSurvivor()
		}
	}

	return acc, nil
}

// nextBatch pulls up to e.opts.BatchSize successfully-decoded records from
// the reader, routing per-record reader errors to the error sink
// immediately (error routing needs no batch barrier: it never touches the
// operator chain). It stops early on io.EOF or a fatal reader error.
func (e *Engine) nextBatch(tr *timedReader, index *int64, ws *writerSet, acc *stats.Accumulator) ([]record.Record, error) {
	batch := make([]record.Record, 0, e.opts.BatchSize)
	for len(batch) < e.opts.BatchSize {
		rec, nerr := tr.Next()
		if nerr == io.EOF {
			break
		}
		if nerr != nil {
			var fatal *reader.FatalError
			if errors.As(nerr, &fatal) {
				return batch, fatal
			}

			acc.RecordInput()
			ew, werr := ws.Error()
			if werr != nil {
				return batch, werr
			}
			if werr := ew.Write(record.New(map[string]interface{}{"index": *index, "error": nerr.Error()})); werr != nil {
				return batch, werr
			}
			e.mon.Warning(nerr)
			*index++
			continue
		}

		acc.RecordInput()
		batch = append(batch, rec)
		*index++
	}
	return batch, nil
}
