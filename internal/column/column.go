// Copyright 2019-2020 Grabtaxi Holdings PTE LTE (GRAB), All rights reserved.
// Use of this source code is governed by an MIT-style license that can be found in the LICENSE file

// Package column implements the typed, appendable column buffers that
// writers use to batch records before a flush and to perform schema
// evolution across a buffered batch.
package column

import (
	"fmt"
	"regexp"

	"github.com/duoan/fdf/internal/record"
)

var expr = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// IsValidName validates the name of a column.
func IsValidName(name string) bool {
	return expr.MatchString(name)
}

// ------------------------------------------------------------------------------------------------------------

// Column is an appendable, typed buffer backing one field across a batch of
// buffered records.
type Column interface {
	Append(value interface{}) int
	Count() int
	Size() int
	Last() interface{}
	Kind() record.Type
	Values() []interface{}
}

// Columns represents a set of named column buffers, one batch's worth.
type Columns map[string]Column

// MakeColumns initializes a set of columns from a schema, if given.
func MakeColumns(schema *record.Schema) Columns {
	if schema == nil {
		return make(Columns, 16)
	}

	columns := make(Columns, len(schema.Fields()))
	for _, f := range schema.Fields() {
		columns[f.Name] = NewColumn(f.Type)
	}
	return columns
}

// Append adds a value at a particular column to the batch. A newly created
// column is first padded with nulls to one less than the tallest column
// (Max() - 1), so its value lands on the row the tallest column is
// currently filling (schema evolution mid-batch).
func (c Columns) Append(name string, value interface{}, typ record.Type) int {
	if !IsValidName(name) {
		return 0
	}

	if col, exists := c[name]; exists {
		return col.Append(value)
	}

	if typ == record.Unsupported {
		return 0
	}

	newColumn, size := NewColumn(typ), 0
	until := c.Max() - 1
	for i := 0; i < until; i++ {
		size += newColumn.Append(nil)
	}

	c[name] = newColumn
	return size + newColumn.Append(value)
}

// EnsureColumn makes sure a column named name exists in the set, creating it
// pre-padded with height nulls if it does not. Callers that assemble a row
// from several fields in an unspecified order (e.g. record.Record.Columns())
// should call this once per brand-new field with the row index the field
// belongs to, before appending its real value, rather than let Append infer
// the padding from Max() — Max() only reflects the correct row height once
// every sibling field already touched for that row has been bumped, which
// this set cannot guarantee when the caller's field order is unspecified.
func (c Columns) EnsureColumn(name string, typ record.Type, height int) {
	if !IsValidName(name) || typ == record.Unsupported {
		return
	}
	if _, exists := c[name]; exists {
		return
	}

	newColumn := NewColumn(typ)
	for i := 0; i < height; i++ {
		newColumn.Append(nil)
	}
	c[name] = newColumn
}

// Max finds the maximum row count across the set of columns.
func (c Columns) Max() (max int) {
	for _, col := range c {
		if n := col.Count(); n > max {
			max = n
		}
	}
	return
}

// LastRow returns the last row across the set, keyed by column name.
func (c Columns) LastRow() map[string]interface{} {
	row := make(map[string]interface{}, len(c))
	for name, col := range c {
		row[name] = col.Last()
	}
	return row
}

// FillNulls pads every column shorter than the tallest to the same height.
func (c Columns) FillNulls() (size int) {
	max := c.Max()
	for _, col := range c {
		delta := max - col.Count()
		for i := 0; i < delta; i++ {
			size += col.Append(nil)
		}
	}
	return
}

// Size returns the total in-memory footprint (in bytes) of the set.
func (c Columns) Size() (size int) {
	for _, col := range c {
		size += col.Size()
	}
	return
}

// Any retrieves an arbitrary column from the set, useful for probing the
// batch height when the caller doesn't care which column answers.
func (c Columns) Any() Column {
	for _, col := range c {
		return col
	}
	return nil
}

// ------------------------------------------------------------------------------------------------------------

// NewColumn creates a new appendable column buffer for the given type.
func NewColumn(t record.Type) Column {
	switch t {
	case record.String:
		return newTyped[string](t, "")
	case record.Int64:
		return newTyped[int64](t, 0)
	case record.Float64:
		return newTyped[float64](t, 0)
	case record.Bool:
		return newTyped[bool](t, false)
	case record.Array:
		return newTyped[[]interface{}](t, nil)
	case record.Map:
		return newTyped[map[string]interface{}](t, nil)
	}
	panic(fmt.Errorf("column: unsupported type %v", t))
}
