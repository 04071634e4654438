// Package operator defines the single polymorphic contract every pipeline
// step implements: process(record) → Kept(record') | Dropped | Failed(error).
package operator

import "github.com/duoan/fdf/internal/record"

// Outcome is the routing decision an Operator made for one record.
type Outcome uint8

const (
	// Kept means the record (possibly mutated) survives to the next step.
	Kept Outcome = iota
	// Dropped means the operator's predicate rejected the record.
	Dropped
	// Failed means the operator could not evaluate its predicate for this
	// record (missing field, unparseable value, resource failure). The
	// engine routes Failed identically to Dropped; the error itself is
	// never written to the trace sink.
	Failed
)

// Result is what Process returns for one record.
type Result struct {
	Outcome Outcome
	Record  record.Record // valid only when Outcome == Kept
	Err     error         // valid only when Outcome == Failed
}

// Keep wraps a surviving record.
func Keep(r record.Record) Result { return Result{Outcome: Kept, Record: r} }

// Drop rejects a record without an error.
func Drop() Result { return Result{Outcome: Dropped} }

// Fail rejects a record because its predicate could not be evaluated.
func Fail(err error) Result { return Result{Outcome: Failed, Err: err} }

// Operator is the contract every filter, transformer, and annotator
// implements. Implementations must be free of I/O beyond what was declared
// at construction. An implementation is invoked concurrently on different
// records only if it declares itself safe via ConcurrencySafe.
type Operator interface {
	Process(rec record.Record) Result
}

// Func adapts a plain function to the Operator interface, mirroring the
// teacher's habit of passing a bare function wherever a single-method
// collaborator is expected (see column.Computed in the teacher's block
// package). A Func closes only over its construction-time config and never
// shares mutable state across calls, so it is always safe for concurrent
// invocation; an operator that needs shared mutable state (a counter, a
// scripting VM, a connection) must not be built as a bare Func and must
// decide its own ConcurrentOK.
type Func func(rec record.Record) Result

// Process implements Operator.
func (f Func) Process(rec record.Record) Result { return f(rec) }

// ConcurrentOK implements ConcurrencySafe: every Func is stateless by
// convention (see Func's doc comment).
func (f Func) ConcurrentOK() bool { return true }

// SchemaContributor is implemented by operators (typically annotators) whose
// added columns are statically knowable from their construction-time
// config, without running them on any particular record. The plan compiler
// uses this to fix a writer's on-disk schema before the first record
// arrives (see spec's "schema evolution mid-file" open question), instead
// of deferring schema evolution to the first flush.
type SchemaContributor interface {
	AddedColumns() []record.Field
}

// ConcurrencySafe is implemented by operators that declare themselves safe
// to invoke concurrently on different records from multiple goroutines —
// required for an operator to run inside the engine's batched-parallel
// mode. Operators that don't implement it are assumed single-threaded-only
// and the engine falls back to sequential execution for a pipeline
// containing one.
type ConcurrencySafe interface {
	ConcurrentOK() bool
}
