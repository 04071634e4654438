package column

import "github.com/duoan/fdf/internal/record"

// typed is a generic column buffer: a plain Go slice of values plus a null
// bitmap, replacing the teacher's Presto/Thrift-backed column stores (there
// is no Presto wire-serving surface in this pipeline, only batched writes to
// parquet/jsonl sinks).
type typed[T any] struct {
	kind   record.Type
	values []T
	null   []bool
	zero   T
}

func newTyped[T any](kind record.Type, zero T) *typed[T] {
	return &typed[T]{kind: kind, zero: zero}
}

// Append adds a value (possibly nil, recorded as a null) and returns the
// approximate number of bytes consumed, matching the teacher's
// size-accounting contract used to cap in-memory batches.
func (c *typed[T]) Append(value interface{}) int {
	if value == nil {
		c.values = append(c.values, c.zero)
		c.null = append(c.null, true)
		return 1
	}

	v, ok := value.(T)
	if !ok {
		c.values = append(c.values, c.zero)
		c.null = append(c.null, true)
		return 1
	}

	c.values = append(c.values, v)
	c.null = append(c.null, false)
	return sizeOf(v)
}

func (c *typed[T]) Count() int { return len(c.values) }

func (c *typed[T]) Kind() record.Type { return c.kind }

func (c *typed[T]) Size() int {
	size := 0
	for i, v := range c.values {
		if c.null[i] {
			size++
			continue
		}
		size += sizeOf(v)
	}
	return size
}

func (c *typed[T]) Last() interface{} {
	if len(c.values) == 0 {
		return nil
	}
	i := len(c.values) - 1
	if c.null[i] {
		return nil
	}
	return c.values[i]
}

func (c *typed[T]) Values() []interface{} {
	out := make([]interface{}, len(c.values))
	for i, v := range c.values {
		if c.null[i] {
			out[i] = nil
			continue
		}
		out[i] = v
	}
	return out
}

func sizeOf(v interface{}) int {
	switch t := v.(type) {
	case string:
		return len(t)
	case int64, float64:
		return 8
	case bool:
		return 1
	case []interface{}:
		n := 1
		for _, e := range t {
			n += sizeOf(e)
		}
		return n
	case map[string]interface{}:
		n := 1
		for k, e := range t {
			n += len(k) + sizeOf(e)
		}
		return n
	default:
		return 8
	}
}
