// Copyright 2019-2020 Grabtaxi Holdings PTE LTE (GRAB), All rights reserved.
// Use of this source code is governed by an MIT-style license that can be found in the LICENSE file

// Package logging provides the logging collaborator used by monitor.Monitor.
package logging

import (
	"log"
	"os"
)

// Logger is the logging contract required by monitor.Monitor.
type Logger interface {
	Debug(tag, msg string)
	Info(tag, msg string)
	Warning(tag, msg string)
	Error(tag, msg string)
}

// ------------------------------------------------------------------------------------------------------------

type standard struct {
	logger *log.Logger
}

// NewStandard creates a logger backed by the standard library's log package.
func NewStandard() Logger {
	return &standard{logger: log.New(os.Stderr, "", log.LstdFlags)}
}

func (s *standard) Debug(tag, msg string)   { s.logger.Printf("[%s] DEBUG %s", tag, msg) }
func (s *standard) Info(tag, msg string)    { s.logger.Printf("[%s] INFO %s", tag, msg) }
func (s *standard) Warning(tag, msg string) { s.logger.Printf("[%s] WARN %s", tag, msg) }
func (s *standard) Error(tag, msg string)   { s.logger.Printf("[%s] ERROR %s", tag, msg) }

// ------------------------------------------------------------------------------------------------------------

type noop struct{}

// NewNoop creates a logger that discards everything, for tests.
func NewNoop() Logger { return noop{} }

func (noop) Debug(tag, msg string)   {}
func (noop) Info(tag, msg string)    {}
func (noop) Warning(tag, msg string) {}
func (noop) Error(tag, msg string)   {}
