// Package writer defines the record-sink contract: buffered writes,
// close-time finalization, and the schema-evolution rule every concrete
// writer (jsonl, parquet, sharded) follows.
package writer

import "github.com/duoan/fdf/internal/record"

// DefaultBufferSize is how many records a writer buffers before flushing,
// matching the teacher's "thousands of records" buffering guidance
// (internal/storage/flush/flush.go's 16MB sync.Pool buffers play the same
// role for its columnar ORC encoder).
const DefaultBufferSize = 4096

// Writer accepts records and is closed exactly once. Close reports whether
// any record was actually persisted; if false, the writer must remove its
// own output artifacts so empty files never linger.
type Writer interface {
	Write(rec record.Record) error
	Close() (wrote bool, err error)
}
