// Package parquet implements the buffered, schema-evolving parquet writer,
// backed by github.com/fraugster/parquet-go. Schema derivation is grounded
// on the teacher's internal/encoding/merge.deriveSchema (see
// internal/encoding/merge/parquet_test.go in kelindar-talaria); the batch
// buffer itself is internal/column.Columns, adapted from the teacher's
// column package.
package parquet

import (
	"fmt"
	"os"
	"strings"

	goparquet "github.com/fraugster/parquet-go"
	"github.com/fraugster/parquet-go/parquet"
	"github.com/fraugster/parquet-go/parquetschema"

	"github.com/duoan/fdf/internal/column"
	fdferrors "github.com/duoan/fdf/internal/monitor/errors"
	"github.com/duoan/fdf/internal/record"
)

// Writer buffers up to bufferSize records in a column.Columns batch,
// deriving the on-disk schema from the union of the declared schema and
// every column observed across the first buffered batch, then flushes row
// groups as more records arrive.
type Writer struct {
	path       string
	declared   *record.Schema
	bufferSize int

	batch      column.Columns
	bufferedN  int
	fw         *goparquet.FileWriter
	file       *os.File
	schema     *record.Schema
	wrote      bool
	closed     bool
}

// New creates a parquet writer at path. declared may be nil if the schema
// is entirely inferred from the first flush's records.
func New(path string, declared *record.Schema, bufferSize int) *Writer {
	if declared == nil {
		declared = record.NewSchema()
	}
	if bufferSize <= 0 {
		bufferSize = 4096
	}
	return &Writer{
		path:       path,
		declared:   declared,
		bufferSize: bufferSize,
		batch:      column.MakeColumns(declared),
	}
}

// Write appends rec's fields into the batch's columns, padding any column
// rec does not carry with a null for this row so every column in the batch
// stays the same height (schema evolution mid-batch, per spec.md §4.3).
// Once bufferSize rows have accumulated, the batch is flushed.
func (w *Writer) Write(rec record.Record) error {
	// rowIndex is this record's position in the batch, fixed before any of
	// its fields are visited. record.Record.Columns() iterates in an
	// unspecified order, so a brand-new column must be padded against this
	// externally-known row index rather than against Max() of the batch
	// mid-row, which would otherwise depend on whether a sibling field
	// already got bumped for this same row.
	rowIndex := w.bufferedN

	for _, name := range rec.Columns() {
		v, _ := rec.Get(name)
		if v == nil {
			if _, known := w.batch[name]; !known {
				// A brand-new column's type can't be inferred from a null
				// value; defer it until a non-null value establishes it
				// (spec.md §4.3: "type inferred from first non-null value").
				continue
			}
		} else if _, known := w.batch[name]; !known {
			w.batch.EnsureColumn(name, record.TypeOf(v), rowIndex)
		}
		w.batch.Append(name, v, record.TypeOf(v))
	}
	w.batch.FillNulls()
	w.bufferedN++

	if w.bufferedN >= w.bufferSize {
		return w.flush()
	}
	return nil
}

func (w *Writer) flush() error {
	if w.bufferedN == 0 {
		return nil
	}

	if w.fw == nil {
		if err := w.open(); err != nil {
			return err
		}
	}

	for i := 0; i < w.bufferedN; i++ {
		row, err := w.rowAt(i)
		if err != nil {
			return err
		}
		if err := w.fw.AddData(row); err != nil {
			return fdferrors.Write(w.path, err)
		}
		w.wrote = true
	}

	if err := w.fw.FlushRowGroup(); err != nil {
		return fdferrors.Write(w.path, err)
	}

	w.batch = column.MakeColumns(w.schema)
	w.bufferedN = 0
	return nil
}

// open derives the on-disk schema from the declared schema plus every
// column observed in the current batch (first flush only), then creates
// the underlying parquet file writer.
func (w *Writer) open() error {
	schema := w.declared.Clone()
	for name, col := range w.batch {
		if schema.Has(name) {
			continue
		}
		schema.Add(record.Field{Name: name, Type: col.Kind(), Nullable: true})
	}

	def, err := schemaDefinition(schema)
	if err != nil {
		return fdferrors.Write(w.path, err)
	}

	f, err := os.Create(w.path)
	if err != nil {
		return fdferrors.Write(w.path, err)
	}

	w.fw = goparquet.NewFileWriter(f,
		goparquet.WithSchemaDefinition(def),
		goparquet.WithCompressionCodec(parquet.CompressionCodec_SNAPPY),
		goparquet.WithCreator("fdf"),
	)
	w.file = f
	w.schema = schema
	return nil
}

// rowAt builds row i's record from the batch's columns, validating that no
// column in the batch falls outside the fixed on-disk schema
// (post-first-flush new columns are a SchemaError, per spec.md §4.3).
func (w *Writer) rowAt(i int) (map[string]interface{}, error) {
	for name := range w.batch {
		if !w.schema.Has(name) {
			return nil, fdferrors.Schema(name, fmt.Errorf("column appeared after the on-disk schema was fixed"))
		}
	}

	row := make(map[string]interface{}, len(w.schema.Fields()))
	for _, f := range w.schema.Fields() {
		col, ok := w.batch[f.Name]
		if !ok || i >= col.Count() {
			row[f.Name] = nil
			continue
		}
		row[f.Name] = encode(col.Values()[i])
	}
	return row, nil
}

func encode(v interface{}) interface{} {
	switch t := v.(type) {
	case string:
		return []byte(t)
	case nil:
		return nil
	default:
		return v
	}
}

// Close flushes any remaining buffered records and closes the underlying
// file. If nothing was ever written, the (possibly never-created) output
// file is removed so empty artifacts don't linger.
func (w *Writer) Close() (bool, error) {
	if w.closed {
		return w.wrote, nil
	}
	w.closed = true

	if err := w.flush(); err != nil {
		return false, err
	}

	if w.fw != nil {
		if err := w.fw.Close(); err != nil {
			return false, fdferrors.Write(w.path, err)
		}
	}
	if w.file != nil {
		w.file.Close()
	}

	if !w.wrote {
		_ = os.Remove(w.path)
	}
	return w.wrote, nil
}

// schemaDefinition builds a fraugster/parquet-go schema from a record
// schema, using the textual DSL the library supports for parsing schemas.
func schemaDefinition(schema *record.Schema) (*parquetschema.SchemaDefinition, error) {
	var b strings.Builder
	b.WriteString("message fdf_record {\n")
	for _, f := range schema.Fields() {
		b.WriteString("  optional ")
		b.WriteString(parquetTypeOf(f.Type))
		b.WriteString(" ")
		b.WriteString(f.Name)
		b.WriteString(";\n")
	}
	b.WriteString("}\n")

	return parquetschema.ParseSchemaDefinition(b.String())
}

func parquetTypeOf(t record.Type) string {
	switch t {
	case record.Int64:
		return "int64"
	case record.Float64:
		return "double"
	case record.Bool:
		return "boolean"
	case record.String, record.Array, record.Map, record.Null, record.Unsupported:
		return "binary (STRING)"
	default:
		return "binary (STRING)"
	}
}
