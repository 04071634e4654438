package engine

import "github.com/duoan/fdf/internal/writer"

// writerSet lazily builds the final, per-step trace, and error writers a
// run ends up demanding, tracking creation order so Close can run in
// reverse-demand order (spec.md §4.5 step 4). A writer never demanded is
// never created, so no empty directories or files appear for a step that
// never dropped a record.
type writerSet struct {
	builder *sinkBuilder

	final writer.Writer
	err   writer.Writer
	trace map[int]writer.Writer
	order []writer.Writer
}

func newWriterSet(b *sinkBuilder) *writerSet {
	return &writerSet{builder: b, trace: make(map[int]writer.Writer)}
}

// Final returns the survivor writer, constructing it on first demand.
func (ws *writerSet) Final() (writer.Writer, error) {
	if ws.final != nil {
		return ws.final, nil
	}
	w, err := ws.builder.Final()
	if err != nil {
		return nil, err
	}
	ws.final = w
	ws.order = append(ws.order, w)
	return w, nil
}

// Error returns the error-sink writer, constructing it on first demand.
func (ws *writerSet) Error() (writer.Writer, error) {
	if ws.err != nil {
		return ws.err, nil
	}
	w, err := ws.builder.Error()
	if err != nil {
		return nil, err
	}
	ws.err = w
	ws.order = append(ws.order, w)
	return w, nil
}

// Trace returns the trace writer for step index, constructing it on first
// demand.
func (ws *writerSet) Trace(index int) (writer.Writer, error) {
	if w, ok := ws.trace[index]; ok {
		return w, nil
	}
	w, err := ws.builder.Trace(index)
	if err != nil {
		return nil, err
	}
	ws.trace[index] = w
	ws.order = append(ws.order, w)
	return w, nil
}

// Close closes every demanded writer in reverse-demand order, returning the
// first error encountered while still attempting every close.
func (ws *writerSet) Close() error {
	var first error
	for i := len(ws.order) - 1; i >= 0; i-- {
		if _, err := ws.order[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
