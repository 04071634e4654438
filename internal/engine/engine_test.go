package engine_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duoan/fdf/internal/engine"
	"github.com/duoan/fdf/internal/monitor"
	"github.com/duoan/fdf/internal/operator"
	"github.com/duoan/fdf/internal/plan"
	"github.com/duoan/fdf/internal/reader"
	"github.com/duoan/fdf/internal/reader/jsonl"
	"github.com/duoan/fdf/internal/record"
)

func writeJSONL(t *testing.T, path string, lines []string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(joinLines(lines)), 0o644))
}

func joinLines(lines []string) string {
	out := ""
	for _, l := range lines {
		out += l + "\n"
	}
	return out
}

// readJSONLDir reads every file directly under dir (one directory level,
// as the sharded writer produces) and decodes each line as a JSON object,
// in filename order — the shard files are named so lexical order matches
// shard-id order.
func readJSONLDir(t *testing.T, dir string) []map[string]interface{} {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var out []map[string]interface{}
	for _, name := range names {
		f, err := os.Open(filepath.Join(dir, name))
		require.NoError(t, err)
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			var m map[string]interface{}
			require.NoError(t, json.Unmarshal(scanner.Bytes(), &m))
			out = append(out, m)
		}
		f.Close()
	}
	return out
}

func dirExists(dir string) bool {
	_, err := os.Stat(dir)
	return err == nil
}

func numericRangeAtLeast(col string, lower int64) operator.Operator {
	return operator.Func(func(rec record.Record) operator.Result {
		v, ok := rec.GetInt64(col)
		if !ok {
			return operator.Fail(fmt.Errorf("missing field %q", col))
		}
		if v < lower {
			return operator.Drop()
		}
		return operator.Keep(rec)
	})
}

func addLen(col, out string) operator.Operator {
	return operator.Func(func(rec record.Record) operator.Result {
		s, _ := rec.GetString(col)
		rec.Set(out, int64(len(s)))
		return operator.Keep(rec)
	})
}

func sinkFor(dir string) plan.SinkDesc {
	return plan.SinkDesc{
		Kind:            plan.SinkJSONL,
		URI:             dir,
		Sharded:         true,
		SamplesPerShard: 100,
		EnableTrace:     true,
	}
}

// S1 — identity: empty pipeline, three records survive in order, no trace
// or error directories appear.
func TestEngineIdentity(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.jsonl")
	writeJSONL(t, src, []string{
		`{"id":1,"t":"a"}`, `{"id":2,"t":"b"}`, `{"id":3,"t":"c"}`,
	})
	r, err := jsonl.Open(src)
	require.NoError(t, err)

	out := filepath.Join(dir, "out")
	p := &plan.Plan{Sink: sinkFor(out)}
	eng := engine.New(p, r, monitor.NewNoop())

	_, err = eng.Run(context.Background())
	require.NoError(t, err)

	final := readJSONLDir(t, filepath.Join(out, "final"))
	require.Len(t, final, 3)
	assert.EqualValues(t, 1, final[0]["id"])
	assert.EqualValues(t, 2, final[1]["id"])
	assert.EqualValues(t, 3, final[2]["id"])

	assert.False(t, dirExists(filepath.Join(out, "trace")))
	assert.False(t, dirExists(filepath.Join(out, "error")))
}

// S2 — single filter: records with id < 2 are dropped to trace/step_00.
func TestEngineSingleFilter(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.jsonl")
	writeJSONL(t, src, []string{
		`{"id":1,"t":"a"}`, `{"id":2,"t":"b"}`, `{"id":3,"t":"c"}`,
	})
	r, err := jsonl.Open(src)
	require.NoError(t, err)

	out := filepath.Join(dir, "out")
	p := &plan.Plan{
		Steps: []plan.Step{{Name: "numeric_range", Op: numericRangeAtLeast("id", 2)}},
		Sink:  sinkFor(out),
	}
	eng := engine.New(p, r, monitor.NewNoop())

	_, err = eng.Run(context.Background())
	require.NoError(t, err)

	final := readJSONLDir(t, filepath.Join(out, "final"))
	require.Len(t, final, 2)
	assert.EqualValues(t, 2, final[0]["id"])
	assert.EqualValues(t, 3, final[1]["id"])

	trace := readJSONLDir(t, filepath.Join(out, "trace", "step_00"))
	require.Len(t, trace, 1)
	assert.EqualValues(t, 1, trace[0]["id"])
}

// S3 — annotate then filter: the surviving final records carry the
// annotator's added column; the trace record for the step it was dropped
// at also carries it, since the annotation happened before the drop.
func TestEngineAnnotateThenFilter(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.jsonl")
	writeJSONL(t, src, []string{
		`{"id":1,"t":"a"}`, `{"id":2,"t":"bb"}`, `{"id":3,"t":"ccc"}`,
	})
	r, err := jsonl.Open(src)
	require.NoError(t, err)

	out := filepath.Join(dir, "out")
	p := &plan.Plan{
		Steps: []plan.Step{
			{Name: "add_len", Op: addLen("t", "n")},
			{Name: "numeric_range", Op: numericRangeAtLeast("n", 2)},
		},
		Sink: sinkFor(out),
	}
	eng := engine.New(p, r, monitor.NewNoop())

	_, err = eng.Run(context.Background())
	require.NoError(t, err)

	final := readJSONLDir(t, filepath.Join(out, "final"))
	require.Len(t, final, 2)
	for _, rec := range final {
		assert.Contains(t, rec, "n")
	}

	trace := readJSONLDir(t, filepath.Join(out, "trace", "step_01"))
	require.Len(t, trace, 1)
	assert.EqualValues(t, 1, trace[0]["n"])
}

// S5 — operator failure: a filter requiring a missing field routes every
// record to trace/step_00; final and error are both absent.
func TestEngineOperatorFailureRoutesToTrace(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.jsonl")
	writeJSONL(t, src, []string{`{"id":1}`, `{"id":2}`})
	r, err := jsonl.Open(src)
	require.NoError(t, err)

	out := filepath.Join(dir, "out")
	p := &plan.Plan{
		Steps: []plan.Step{{Name: "needs_missing", Op: numericRangeAtLeast("missing_col", 0)}},
		Sink:  sinkFor(out),
	}
	eng := engine.New(p, r, monitor.NewNoop())

	_, err = eng.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, dirExists(filepath.Join(out, "final")))
	assert.False(t, dirExists(filepath.Join(out, "error")))

	trace := readJSONLDir(t, filepath.Join(out, "trace", "step_00"))
	assert.Len(t, trace, 2)
}

// With enable_trace: false, dropped records are discarded rather than
// written to a trace sink, and no trace directory is created at all.
func TestEngineTraceDisabledDiscardsDrops(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.jsonl")
	writeJSONL(t, src, []string{
		`{"id":1,"t":"a"}`, `{"id":2,"t":"b"}`, `{"id":3,"t":"c"}`,
	})
	r, err := jsonl.Open(src)
	require.NoError(t, err)

	out := filepath.Join(dir, "out")
	sink := sinkFor(out)
	sink.EnableTrace = false
	p := &plan.Plan{
		Steps: []plan.Step{{Name: "numeric_range", Op: numericRangeAtLeast("id", 2)}},
		Sink:  sink,
	}
	eng := engine.New(p, r, monitor.NewNoop())

	_, err = eng.Run(context.Background())
	require.NoError(t, err)

	final := readJSONLDir(t, filepath.Join(out, "final"))
	require.Len(t, final, 2)
	assert.EqualValues(t, 2, final[0]["id"])
	assert.EqualValues(t, 3, final[1]["id"])

	assert.False(t, dirExists(filepath.Join(out, "trace")))
}

// S6 — a malformed middle line routes to the error sink and the pipeline
// continues with the records around it.
func TestEngineMalformedLineRoutesToError(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.jsonl")
	writeJSONL(t, src, []string{
		`{"id":1,"t":"a"}`, `not-json`, `{"id":3,"t":"c"}`,
	})
	r, err := jsonl.Open(src)
	require.NoError(t, err)

	out := filepath.Join(dir, "out")
	p := &plan.Plan{Sink: sinkFor(out)}
	eng := engine.New(p, r, monitor.NewNoop())

	_, err = eng.Run(context.Background())
	require.NoError(t, err)

	final := readJSONLDir(t, filepath.Join(out, "final"))
	require.Len(t, final, 2)
	assert.EqualValues(t, 1, final[0]["id"])
	assert.EqualValues(t, 3, final[1]["id"])

	errs := readJSONLDir(t, filepath.Join(out, "error"))
	require.Len(t, errs, 1)
	assert.EqualValues(t, 1, errs[0]["index"])
}

// fatalAfter is a reader.Reader stub that yields n good records and then a
// *reader.FatalError forever after, modeling a scanner whose error state
// latches once it's reached (bufio.Scanner never un-sticks itself). It
// exists to prove the engine aborts the run on the first fatal error instead
// of looping, since a real jsonl/parquet reader in this state would keep
// returning the same error on every subsequent Next call.
type fatalAfter struct {
	n      int
	served int
	calls  int
}

func (f *fatalAfter) Schema() *record.Schema { return record.NewSchema() }

func (f *fatalAfter) Next() (record.Record, error) {
	f.calls++
	if f.served < f.n {
		f.served++
		return record.New(map[string]interface{}{"id": int64(f.served)}), nil
	}
	return record.Record{}, &reader.FatalError{Cause: fmt.Errorf("boom")}
}

func (f *fatalAfter) Close() error { return nil }

// S7 — a stream-fatal reader error must abort the run rather than loop: the
// engine must stop calling Next once it sees a *reader.FatalError, and the
// run must return that error rather than completing successfully.
func TestEngineAbortsOnFatalReaderError(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	src := &fatalAfter{n: 2}
	p := &plan.Plan{Sink: sinkFor(out)}
	eng := engine.New(p, src, monitor.NewNoop())

	_, err := eng.Run(context.Background())
	require.Error(t, err)
	var fatal *reader.FatalError
	require.True(t, errors.As(err, &fatal))

	final := readJSONLDir(t, filepath.Join(out, "final"))
	require.Len(t, final, 2)

	// Next must not be called an unbounded number of times: the engine
	// stops at the first fatal error instead of retrying forever.
	assert.LessOrEqual(t, src.calls, 3)
}

// Batched-parallel mode must preserve the same order as the sequential
// driver for the same pipeline and input.
func TestEngineBatchedPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.jsonl")
	lines := make([]string, 0, 50)
	for i := 0; i < 50; i++ {
		lines = append(lines, fmt.Sprintf(`{"id":%d}`, i))
	}
	writeJSONL(t, src, lines)
	r, err := jsonl.Open(src)
	require.NoError(t, err)

	out := filepath.Join(dir, "out")
	p := &plan.Plan{
		Steps: []plan.Step{{Name: "numeric_range", Op: numericRangeAtLeast("id", 10)}},
		Sink:  sinkFor(out),
	}
	eng := engine.New(p, r, monitor.NewNoop(), engine.WithConcurrency(4), engine.WithBatchSize(8))

	_, err = eng.Run(context.Background())
	require.NoError(t, err)

	final := readJSONLDir(t, filepath.Join(out, "final"))
	require.Len(t, final, 40)
	for i, rec := range final {
		assert.EqualValues(t, i+10, rec["id"])
	}
}

// trackingOp deliberately does not implement operator.ConcurrencySafe. It
// records the highest number of Process calls it ever observed in flight at
// once, so a test can tell whether the engine actually serialized access to
// it instead of just happening not to race.
type trackingOp struct {
	mu      sync.Mutex
	active  int
	maxSeen int
}

func (t *trackingOp) Process(rec record.Record) operator.Result {
	t.mu.Lock()
	t.active++
	if t.active > t.maxSeen {
		t.maxSeen = t.active
	}
	t.mu.Unlock()

	time.Sleep(2 * time.Millisecond)

	t.mu.Lock()
	t.active--
	t.mu.Unlock()

	return operator.Keep(rec)
}

// A pipeline containing an operator that does not implement
// operator.ConcurrencySafe must run sequentially even when a concurrency >
// 1 was requested, per spec.md §5 ("the same operator may be invoked
// concurrently on different records only if the implementation declares
// itself safe for concurrent invocation").
func TestEngineFallsBackToSequentialWithoutConcurrencySafeOperator(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.jsonl")
	lines := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		lines = append(lines, fmt.Sprintf(`{"id":%d}`, i))
	}
	writeJSONL(t, src, lines)
	r, err := jsonl.Open(src)
	require.NoError(t, err)

	out := filepath.Join(dir, "out")
	tracker := &trackingOp{}
	p := &plan.Plan{
		Steps: []plan.Step{{Name: "tracking", Op: tracker}},
		Sink:  sinkFor(out),
	}
	eng := engine.New(p, r, monitor.NewNoop(), engine.WithConcurrency(4), engine.WithBatchSize(4))

	_, err = eng.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, tracker.maxSeen, "operator not implementing ConcurrencySafe must never be invoked concurrently")

	final := readJSONLDir(t, filepath.Join(out, "final"))
	require.Len(t, final, 20)
}
