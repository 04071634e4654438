// Copyright 2019-2020 Grabtaxi Holdings PTE LTE (GRAB), All rights reserved.
// Use of this source code is governed by an MIT-style license that can be found in the LICENSE file

// Package errors provides the typed-error vocabulary used across the engine,
// writers, and remote resolvers.
package errors

import "fmt"

// New creates a plain error, mirroring the standard library's errors.New but
// kept in this package so callers don't need a second import for the common
// case alongside Internal/Config/Write.
func New(msg string) error {
	return &simple{msg: msg}
}

type simple struct{ msg string }

func (e *simple) Error() string { return e.msg }

// Internal wraps a lower-level cause with a message, for failures that are
// not part of the documented error taxonomy (unexpected I/O, programmer
// error surfaced at a boundary).
func Internal(msg string, cause error) error {
	return &wrapped{msg: msg, cause: cause}
}

type wrapped struct {
	msg   string
	cause error
}

func (e *wrapped) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %v", e.msg, e.cause)
}

func (e *wrapped) Unwrap() error { return e.cause }

// ConfigError is returned by plan compilation: malformed YAML, unknown
// operator names, or operator config that a factory rejects.
type ConfigError struct {
	Operator string
	Cause    error
}

func Config(operator string, cause error) *ConfigError {
	return &ConfigError{Operator: operator, Cause: cause}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for operator %q: %v", e.Operator, e.Cause)
}

func (e *ConfigError) Unwrap() error { return e.Cause }

// WriteError is returned by writers on a fatal write/flush failure; the
// engine aborts the pipeline on this error without rolling back prior
// writes.
type WriteError struct {
	Path  string
	Cause error
}

func Write(path string, cause error) *WriteError {
	return &WriteError{Path: path, Cause: cause}
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write error at %q: %v", e.Path, e.Cause)
}

func (e *WriteError) Unwrap() error { return e.Cause }

// SchemaError is a WriteError specialization: an annotator-added column
// could not be typed or admitted at first flush.
type SchemaError struct {
	Column string
	Cause  error
}

func Schema(column string, cause error) *SchemaError {
	return &SchemaError{Column: column, Cause: cause}
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error for column %q: %v", e.Column, e.Cause)
}

func (e *SchemaError) Unwrap() error { return e.Cause }
