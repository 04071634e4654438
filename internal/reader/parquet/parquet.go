// Package parquet implements the columnar parquet reader, backed by
// github.com/fraugster/parquet-go, grounded on the teacher's
// internal/encoding/parquet package (FromFile/Schema/Range) and
// internal/encoding/block/from_parquet.go.
package parquet

import (
	"fmt"
	"io"
	"os"

	goparquet "github.com/fraugster/parquet-go"
	"github.com/fraugster/parquet-go/parquet"

	"github.com/duoan/fdf/internal/reader"
	"github.com/duoan/fdf/internal/record"
)

// Reader iterates the rows of a parquet file.
type Reader struct {
	file   *os.File
	fr     *goparquet.FileReader
	schema *record.Schema
}

// Open opens a parquet file and derives its schema from the file's footer.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("parquet: unable to open %q: %w", path, err)
	}

	fr, err := goparquet.NewFileReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("parquet: unable to read %q: %w", path, err)
	}

	schema := record.NewSchema()
	for _, col := range fr.GetSchemaDefinition().RootColumn.Children {
		schema.Add(record.Field{
			Name:     col.SchemaElement.GetName(),
			Type:     typeOfElement(col.SchemaElement),
			Nullable: col.SchemaElement.GetRepetitionType() == parquet.FieldRepetitionType_OPTIONAL,
		})
	}

	return &Reader{file: f, fr: fr, schema: schema}, nil
}

func typeOfElement(elem *parquet.SchemaElement) record.Type {
	if elem.Type == nil {
		return record.Map
	}
	switch *elem.Type {
	case parquet.Type_BYTE_ARRAY, parquet.Type_FIXED_LEN_BYTE_ARRAY:
		return record.String
	case parquet.Type_INT32, parquet.Type_INT64:
		return record.Int64
	case parquet.Type_FLOAT, parquet.Type_DOUBLE:
		return record.Float64
	case parquet.Type_BOOLEAN:
		return record.Bool
	default:
		return record.Unsupported
	}
}

// Schema returns the file's declared schema.
func (r *Reader) Schema() *record.Schema { return r.schema }

// Next returns the next row as a record. Parquet row reads are decoded
// eagerly so the file itself has no notion of a "malformed row" the way
// jsonl does; any error here other than io.EOF is reported as a
// *reader.FatalError, since a corrupted file position is expected to fail
// the same way on every subsequent call rather than resolve itself.
func (r *Reader) Next() (record.Record, error) {
	row, err := r.fr.NextRow()
	if err != nil {
		if err == io.EOF {
			return record.Record{}, io.EOF
		}
		return record.Record{}, &reader.FatalError{Cause: err}
	}

	for name, v := range row {
		if b, ok := v.([]byte); ok {
			if f, ok := r.schema.Get(name); !ok || f.Type == record.String {
				row[name] = string(b)
			}
		}
	}
	return record.New(row), nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	return r.file.Close()
}
