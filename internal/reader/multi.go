package reader

import (
	"fmt"
	"io"

	"github.com/duoan/fdf/internal/record"
)

// Opener constructs a Reader for one resolved source file path.
type Opener func(path string) (Reader, error)

// multi concatenates a sequence of single-file readers into one logical
// Reader, opening each file lazily as the previous one is exhausted — the
// plan compiler resolves a source's uris list (spec.md §4.4: "source list
// that resolves to zero files" is a compile-time error) into exactly this
// shape.
type multi struct {
	paths  []string
	open   Opener
	cursor int
	cur    Reader
	schema *record.Schema
}

// Multi builds a Reader over paths, each opened with open in order. The
// schema reported is the first file's schema — readers across the uris
// list of one source are expected to share a schema.
func Multi(paths []string, open Opener) (Reader, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("reader: no source files to open")
	}
	if len(paths) == 1 {
		return open(paths[0])
	}

	first, err := open(paths[0])
	if err != nil {
		return nil, err
	}
	return &multi{paths: paths, open: open, cursor: 0, cur: first, schema: first.Schema()}, nil
}

func (m *multi) Schema() *record.Schema { return m.schema }

func (m *multi) Next() (record.Record, error) {
	for {
		rec, err := m.cur.Next()
		if err != io.EOF {
			return rec, err
		}

		if err := m.cur.Close(); err != nil {
			return record.Record{}, err
		}
		m.cursor++
		if m.cursor >= len(m.paths) {
			return record.Record{}, io.EOF
		}

		next, err := m.open(m.paths[m.cursor])
		if err != nil {
			return record.Record{}, &FatalError{Cause: err}
		}
		m.cur = next
	}
}

func (m *multi) Close() error {
	if m.cur == nil {
		return nil
	}
	return m.cur.Close()
}
