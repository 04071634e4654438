// Package jsonl implements the buffered line-delimited JSON writer. Unlike
// the parquet writer, jsonl has no on-disk schema to fix at first flush —
// every line is independently self-describing — so schema evolution is a
// no-op here by construction; a new column appearing at any point in the
// stream is simply serialized.
package jsonl

import (
	"bufio"
	"encoding/json"
	"os"

	fdferrors "github.com/duoan/fdf/internal/monitor/errors"
	"github.com/duoan/fdf/internal/record"
)

// Writer buffers up to bufferSize records before flushing them to disk in
// one pass, amortizing syscalls.
type Writer struct {
	path       string
	bufferSize int

	file   *os.File
	out    *bufio.Writer
	buffer []record.Record
	wrote  bool
	closed bool
}

// New creates a jsonl writer at path.
func New(path string, bufferSize int) *Writer {
	if bufferSize <= 0 {
		bufferSize = 4096
	}
	return &Writer{path: path, bufferSize: bufferSize}
}

// Write buffers rec, flushing automatically once bufferSize records have
// accumulated.
func (w *Writer) Write(rec record.Record) error {
	w.buffer = append(w.buffer, rec)
	if len(w.buffer) >= w.bufferSize {
		return w.flush()
	}
	return nil
}

func (w *Writer) flush() error {
	if len(w.buffer) == 0 {
		return nil
	}
	if w.file == nil {
		f, err := os.Create(w.path)
		if err != nil {
			return fdferrors.Write(w.path, err)
		}
		w.file = f
		w.out = bufio.NewWriter(f)
	}

	enc := json.NewEncoder(w.out)
	for _, rec := range w.buffer {
		if err := enc.Encode(rec.Map()); err != nil {
			return fdferrors.Write(w.path, err)
		}
		w.wrote = true
	}

	if err := w.out.Flush(); err != nil {
		return fdferrors.Write(w.path, err)
	}
	w.buffer = w.buffer[:0]
	return nil
}

// Close flushes any remaining buffered records and closes the underlying
// file. If nothing was ever written, any (possibly never-created) output
// file is removed.
func (w *Writer) Close() (bool, error) {
	if w.closed {
		return w.wrote, nil
	}
	w.closed = true

	if err := w.flush(); err != nil {
		return false, err
	}
	if w.file != nil {
		w.file.Close()
	}
	if !w.wrote {
		_ = os.Remove(w.path)
	}
	return w.wrote, nil
}
