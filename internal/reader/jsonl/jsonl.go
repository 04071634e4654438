// Package jsonl implements the line-delimited JSON reader.
package jsonl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/duoan/fdf/internal/reader"
	"github.com/duoan/fdf/internal/record"
)

// Reader reads newline-delimited JSON objects, one record per line. A
// malformed line is surfaced as a per-record error (not stream-fatal, per
// spec.md S6); the reader continues with the next line.
type Reader struct {
	file    *os.File
	scanner *bufio.Scanner
	schema  *record.Schema
}

// Open opens a jsonl file. The schema is empty until at least one record
// has been successfully decoded (jsonl carries no header); callers that
// need the schema up front should peek the first record.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("jsonl: unable to open %q: %w", path, err)
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &Reader{file: f, scanner: scanner, schema: record.NewSchema()}, nil
}

// Schema returns the schema inferred so far from decoded records.
func (r *Reader) Schema() *record.Schema { return r.schema }

// Next returns the next record. On a malformed line it returns a non-nil,
// non-fatal error and the caller (the engine) routes the position to the
// error sink and continues; Next remains positioned at the following line.
// A scanner-level I/O error (a short read, a line past the buffer limit) is
// different: bufio.Scanner latches the failure and Scan will keep returning
// false forever, so Next reports it as a *reader.FatalError to make the
// engine abort the run instead of looping on the same error.
func (r *Reader) Next() (record.Record, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return record.Record{}, &reader.FatalError{Cause: err}
		}
		return record.Record{}, io.EOF
	}

	line := r.scanner.Bytes()
	var values map[string]interface{}
	if err := json.Unmarshal(line, &values); err != nil {
		return record.Record{}, fmt.Errorf("jsonl: malformed line: %w", err)
	}

	// JSON has a single number type; whole top-level numbers are kept as
	// int64 so integer columns read back as integers.
	for name, v := range values {
		if f, ok := v.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			values[name] = int64(f)
		}
	}

	rec := record.New(values)
	for name, v := range values {
		if !r.schema.Has(name) {
			r.schema.Add(record.Field{Name: name, Type: record.TypeOf(v), Nullable: true})
		}
	}
	return rec, nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	return r.file.Close()
}
