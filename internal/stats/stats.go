// Package stats implements the per-step statistics accumulator and the
// human-readable reporter described in spec.md §4.6.
package stats

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hako/durafmt"
)

// Step holds one pipeline step's accumulated counters.
type Step struct {
	Name      string
	Index     int
	CountIn   int64
	Dropped   int64
	ProcTime  time.Duration
}

// Accumulator is the single owner of per-step statistics, updated after
// each record completes (spec.md §5: "Statistics are accumulated under a
// single owner").
type Accumulator struct {
	mu        sync.Mutex
	steps     []*Step
	totalIn   int64
	survivors int64
	writeTime time.Duration
	readTime  time.Duration
}

// NewAccumulator creates an accumulator with one Step per named pipeline
// step, in order.
func NewAccumulator(stepNames []string) *Accumulator {
	steps := make([]*Step, len(stepNames))
	for i, name := range stepNames {
		steps[i] = &Step{Name: name, Index: i}
	}
	return &Accumulator{steps: steps}
}

// RecordEntered marks that a record reached step i.
func (a *Accumulator) RecordEntered(i int) {
	a.mu.Lock()
	a.steps[i].CountIn++
	a.mu.Unlock()
}

// RecordDropped marks that a record was dropped or failed at step i, and
// accumulates the wall-clock time the step's Process call took.
func (a *Accumulator) RecordDropped(i int, elapsed time.Duration) {
	a.mu.Lock()
	a.steps[i].Dropped++
	a.steps[i].ProcTime += elapsed
	a.mu.Unlock()
}

// RecordProcessed accumulates the wall-clock time a step's Process call
// took for a record that continued on (was Kept).
func (a *Accumulator) RecordProcessed(i int, elapsed time.Duration) {
	a.mu.Lock()
	a.steps[i].ProcTime += elapsed
	a.mu.Unlock()
}

// RecordInput increments the total input counter (one per record the
// reader yielded, successful or not).
func (a *Accumulator) RecordInput() {
	a.mu.Lock()
	a.totalIn++
	a.mu.Unlock()
}

// RecordSurvivor increments the final-writer survivor counter.
func (a *Accumulator) RecordSurvivor() {
	a.mu.Lock()
	a.survivors++
	a.mu.Unlock()
}

// AddWriteTime accumulates time spent inside writer Write/flush calls, used
// by the reporter's residual read-time estimate.
func (a *Accumulator) AddWriteTime(d time.Duration) {
	a.mu.Lock()
	a.writeTime += d
	a.mu.Unlock()
}

// AddReadTime accumulates time spent inside the reader's Next call, when a
// timed reader wrapper is in use. When non-zero, the Reporter prefers this
// measured value over the residual estimate (spec.md's "Open question —
// read-time accounting": measuring directly is preferable to a residual
// wherever the reader supports it).
func (a *Accumulator) AddReadTime(d time.Duration) {
	a.mu.Lock()
	a.readTime += d
	a.mu.Unlock()
}

// Local accumulates the same counters as Accumulator without any locking,
// for a single worker to fill in while processing one batch before merging
// into the shared owner once (spec's batched-parallel mode: "the hot path
// never contends a shared lock per record").
type Local struct {
	steps     []Step
	totalIn   int64
	survivors int64
	writeTime time.Duration
}

// NewLocal creates a per-batch local accumulator shaped like acc.
func (a *Accumulator) NewLocal() *Local {
	a.mu.Lock()
	defer a.mu.Unlock()
	steps := make([]Step, len(a.steps))
	for i, s := range a.steps {
		steps[i] = Step{Name: s.Name, Index: s.Index}
	}
	return &Local{steps: steps}
}

func (l *Local) RecordEntered(i int) { l.steps[i].CountIn++ }
func (l *Local) RecordDropped(i int, elapsed time.Duration) {
	l.steps[i].Dropped++
	l.steps[i].ProcTime += elapsed
}
func (l *Local) RecordProcessed(i int, elapsed time.Duration) { l.steps[i].ProcTime += elapsed }
func (l *Local) RecordInput() { l.totalIn++ }
func (l *Local) RecordSurvivor() { l.survivors++ }
func (l *Local) AddWriteTime(d time.Duration) { l.writeTime += d }

// Add folds another Local's counters into l without locking, for combining
// one Local per worker task into a single per-batch Local before the one
// locked Merge into the shared owner.
func (l *Local) Add(other *Local) {
	for i, s := range other.steps {
		l.steps[i].CountIn += s.CountIn
		l.steps[i].Dropped += s.Dropped
		l.steps[i].ProcTime += s.ProcTime
	}
	l.totalIn += other.totalIn
	l.survivors += other.survivors
	l.writeTime += other.writeTime
}

// Merge folds a Local's counters into the shared owner under a single lock
// acquisition.
func (a *Accumulator) Merge(l *Local) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, s := range l.steps {
		a.steps[i].CountIn += s.CountIn
		a.steps[i].Dropped += s.Dropped
		a.steps[i].ProcTime += s.ProcTime
	}
	a.totalIn += l.totalIn
	a.survivors += l.survivors
	a.writeTime += l.writeTime
}

// Snapshot copies out the current counters for reporting: per-step stats,
// total input, survivor count, accumulated write time, and accumulated
// measured read time (zero if no timed reader wrapper was used).
func (a *Accumulator) Snapshot() ([]Step, int64, int64, time.Duration, time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()

	steps := make([]Step, len(a.steps))
	for i, s := range a.steps {
		steps[i] = *s
	}
	return steps, a.totalIn, a.survivors, a.writeTime, a.readTime
}

// ------------------------------------------------------------------------------------------------------------

// Reporter formats an Accumulator's snapshot into a human-readable report.
type Reporter struct {
	acc *Accumulator
}

// NewReporter creates a reporter over acc.
func NewReporter(acc *Accumulator) *Reporter {
	return &Reporter{acc: acc}
}

// Report renders the report for a run whose total wall-clock time was total.
func (r *Reporter) Report(total time.Duration) string {
	steps, totalIn, survivors, writeTime, readTime := r.acc.Snapshot()

	var procTime time.Duration
	for _, s := range steps {
		procTime += s.ProcTime
	}

	readLabel := "read(est)"
	readValue := total - procTime - writeTime
	if readValue < 0 {
		readValue = 0
	}
	if readTime > 0 {
		readLabel = "read"
		readValue = readTime
	}

	var b strings.Builder
	fmt.Fprintf(&b, "total: %s, %s: %s, write: %s, survivors: %d/%d\n",
		durafmt.Parse(total), readLabel, durafmt.Parse(readValue), durafmt.Parse(writeTime), survivors, totalIn)

	for _, s := range steps {
		pctOfTotal := percent(s.ProcTime, total)
		pctDroppedOfStep := percentCount(s.Dropped, s.CountIn)
		pctDroppedOfTotal := percentCount(s.Dropped, totalIn)

		fmt.Fprintf(&b, "  [%02d] %-24s proc=%s (%.1f%% of total)  dropped=%d (%.1f%% of step, %.1f%% of total)\n",
			s.Index, s.Name, durafmt.Parse(s.ProcTime), pctOfTotal, s.Dropped, pctDroppedOfStep, pctDroppedOfTotal)
	}
	return b.String()
}

func percent(part, whole time.Duration) float64 {
	if whole <= 0 {
		return 0
	}
	return 100 * float64(part) / float64(whole)
}

func percentCount(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	return 100 * float64(part) / float64(whole)
}
