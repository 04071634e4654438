// Package reader defines the iterator-of-records contract the engine drives,
// plus the column-projection wrapper used for source column mapping.
package reader

import (
	"fmt"

	"github.com/duoan/fdf/internal/record"
)

// Reader yields records one at a time until io.EOF. A non-EOF, non-nil
// error on Next is a per-record error (routed to the error sink); Next
// returning a wrapped *FatalError means the stream itself is broken and the
// engine must abort.
type Reader interface {
	Schema() *record.Schema
	// Next returns the next record, or an error. At end of input it
	// returns (zero Record, io.EOF).
	Next() (record.Record, error)
	Close() error
}

// FatalError marks a reader error that prevents any further records from
// being produced (e.g. the underlying file handle was lost). The engine
// aborts the run on a FatalError instead of routing it to the error sink.
type FatalError struct {
	Cause error
}

func (e *FatalError) Error() string { return fmt.Sprintf("reader: fatal: %v", e.Cause) }
func (e *FatalError) Unwrap() error { return e.Cause }

// ------------------------------------------------------------------------------------------------------------

// projected wraps a Reader, filtering and renaming columns before records
// enter the operator chain (spec.md §3 "Column mapping").
type projected struct {
	inner  Reader
	schema *record.Schema
	// rename maps new_name -> source_name
	rename map[string]string
}

// Project wraps r so that only the columns named as values in columns
// (map[new_name]source_name) are visible, renamed to their keys. Source
// columns not listed are dropped; listed columns missing from the source
// schema cause construction to fail.
func Project(r Reader, columns map[string]string) (Reader, error) {
	if len(columns) == 0 {
		return r, nil
	}

	src := r.Schema()
	schema := record.NewSchema()
	for newName, sourceName := range columns {
		field, ok := src.Get(sourceName)
		if !ok {
			return nil, fmt.Errorf("reader: projected column %q not found in source schema", sourceName)
		}
		field.Name = newName
		schema.Add(field)
	}

	return &projected{inner: r, schema: schema, rename: columns}, nil
}

func (p *projected) Schema() *record.Schema { return p.schema }

func (p *projected) Next() (record.Record, error) {
	rec, err := p.inner.Next()
	if err != nil {
		return record.Record{}, err
	}

	out := record.New(nil)
	for newName, sourceName := range p.rename {
		if v, ok := rec.Get(sourceName); ok {
			out.Set(newName, v)
		}
	}
	return out, nil
}

func (p *projected) Close() error { return p.inner.Close() }
