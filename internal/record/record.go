// Package record implements the pipeline's core data model: a dynamically
// keyed row value, and the schema that describes a reader's or writer's
// declared columns.
package record

import "fmt"

// Type is the logical type of a column value.
type Type uint8

const (
	Unsupported Type = iota
	String
	Int64
	Float64
	Bool
	Null
	Array
	Map
)

func (t Type) String() string {
	switch t {
	case String:
		return "string"
	case Int64:
		return "int64"
	case Float64:
		return "float64"
	case Bool:
		return "bool"
	case Null:
		return "null"
	case Array:
		return "array"
	case Map:
		return "map"
	default:
		return "unsupported"
	}
}

// TypeOf infers the Type of a raw Go value, the way a reader or an
// annotator determines what kind of column it just produced.
func TypeOf(v interface{}) Type {
	switch v.(type) {
	case nil:
		return Null
	case string:
		return String
	case int, int32, int64:
		return Int64
	case float32, float64:
		return Float64
	case bool:
		return Bool
	case []interface{}:
		return Array
	case map[string]interface{}:
		return Map
	default:
		return Unsupported
	}
}

// Field describes one column of a Schema.
type Field struct {
	Name     string
	Type     Type
	Nullable bool
}

// Schema is an ordered sequence of fields associated with a reader or
// writer. Field order is preserved for deterministic output (e.g. parquet
// column order); lookups are still by name.
type Schema struct {
	fields []Field
	index  map[string]int
}

// NewSchema builds a Schema from an ordered field list.
func NewSchema(fields ...Field) *Schema {
	s := &Schema{
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		s.Add(f)
	}
	return s
}

// Add appends a field, or replaces it in place if the name already exists.
func (s *Schema) Add(f Field) {
	if i, ok := s.index[f.Name]; ok {
		s.fields[i] = f
		return
	}
	s.index[f.Name] = len(s.fields)
	s.fields = append(s.fields, f)
}

// Has reports whether the schema already declares name.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Get returns the field for name, if declared.
func (s *Schema) Get(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Fields returns the schema's fields in declaration order.
func (s *Schema) Fields() []Field {
	return s.fields
}

// Columns returns the field names in declaration order.
func (s *Schema) Columns() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Clone returns a deep copy safe to mutate independently.
func (s *Schema) Clone() *Schema {
	out := NewSchema()
	for _, f := range s.fields {
		out.Add(f)
	}
	return out
}

// Union returns a new schema covering every field in s plus every field in
// other not already present, preserving s's ordering followed by other's
// new fields in its order.
func (s *Schema) Union(other *Schema) *Schema {
	out := s.Clone()
	if other == nil {
		return out
	}
	for _, f := range other.fields {
		if !out.Has(f.Name) {
			out.Add(f)
		}
	}
	return out
}

// ------------------------------------------------------------------------------------------------------------

// Record is one row: a mapping from column name to a typed value. Key
// ordering is not semantically meaningful; duplicate keys cannot occur
// since values is a map.
type Record struct {
	values map[string]interface{}
}

// New creates an empty record, or one pre-populated from the given map
// (the map is copied, so later mutation of the record never aliases the
// caller's map).
func New(values map[string]interface{}) Record {
	r := Record{values: make(map[string]interface{}, len(values))}
	for k, v := range values {
		r.values[k] = v
	}
	return r
}

// Clone returns a deep-enough copy for the pipeline's purposes: the value
// map is copied, but nested array/map values are shared (operators that
// mutate nested structures in place must re-Set them to preserve the
// no-aliasing guarantee between a pre-step snapshot and later mutation).
func (r Record) Clone() Record {
	out := Record{values: make(map[string]interface{}, len(r.values))}
	for k, v := range r.values {
		out.values[k] = v
	}
	return out
}

// Has reports whether column name is present (including an explicit null).
func (r Record) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// Get returns the raw value at name.
func (r Record) Get(name string) (interface{}, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Set assigns a value at name, creating the column if it did not already
// exist.
func (r Record) Set(name string, value interface{}) {
	r.values[name] = value
}

// Delete removes a column.
func (r Record) Delete(name string) {
	delete(r.values, name)
}

// Columns returns the record's current column names. Order is unspecified.
func (r Record) Columns() []string {
	names := make([]string, 0, len(r.values))
	for k := range r.values {
		names = append(names, k)
	}
	return names
}

// Len returns the number of columns currently set.
func (r Record) Len() int { return len(r.values) }

// Map returns the record's values as a plain map, for handing to a format
// encoder. The returned map must not be mutated by the caller.
func (r Record) Map() map[string]interface{} {
	return r.values
}

// GetString returns the string value at name, or ("", false) if the column
// is absent, null, or not a string.
func (r Record) GetString(name string) (string, bool) {
	v, ok := r.values[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetInt64 returns the int64 value at name, coercing int/int32 sources.
func (r Record) GetInt64(name string) (int64, bool) {
	v, ok := r.values[name]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	default:
		return 0, false
	}
}

// GetFloat64 returns the float64 value at name, coercing int sources so
// filters can compare a numeric column regardless of its concrete Go type.
func (r Record) GetFloat64(name string) (float64, bool) {
	v, ok := r.values[name]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	default:
		return 0, false
	}
}

// GetBool returns the bool value at name.
func (r Record) GetBool(name string) (bool, bool) {
	v, ok := r.values[name]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// String implements fmt.Stringer for debugging and trace formatting.
func (r Record) String() string {
	return fmt.Sprintf("%v", r.values)
}
