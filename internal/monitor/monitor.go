// Copyright 2019-2020 Grabtaxi Holdings PTE LTE (GRAB), All rights reserved.
// Use of this source code is governed by an MIT-style license that can be found in the LICENSE file

// Package monitor composes logging and metrics into the single collaborator
// passed down to every component that needs to report a number or a line of
// text, so nothing reaches for a package-level logger.
package monitor

import (
	"time"

	"github.com/duoan/fdf/internal/monitor/logging"
	"github.com/duoan/fdf/internal/monitor/statsd"
)

// Monitor is the logging+metrics contract threaded through the engine,
// writers, and remote resolvers.
type Monitor interface {
	Duration(tag, key string, since time.Time, extra ...string)
	Gauge(tag, key string, value float64, extra ...string)
	Count1(tag, key string, extra ...string)
	Count(tag, key string, value int64, extra ...string)
	Debug(tag, msg string)
	Info(tag, msg string)
	Warning(err error)
	Error(err error)
}

type monitor struct {
	log     logging.Logger
	metrics statsd.Client
	app     string
	host    string
}

// New composes a Monitor from a Logger and a metrics Client.
func New(log logging.Logger, metrics statsd.Client, app, host string) Monitor {
	return &monitor{log: log, metrics: metrics, app: app, host: host}
}

// NewNoop creates a Monitor that discards everything, for tests and for
// callers that construct a collaborator before they have anywhere to send
// it to.
func NewNoop() Monitor {
	return New(logging.NewNoop(), statsd.NewNoop(), "noop", "noop")
}

func (m *monitor) Duration(tag, key string, since time.Time, extra ...string) {
	m.metrics.Duration(tag, key, time.Since(since), extra...)
}

func (m *monitor) Gauge(tag, key string, value float64, extra ...string) {
	m.metrics.Gauge(tag, key, value, extra...)
}

func (m *monitor) Count1(tag, key string, extra ...string) {
	m.metrics.Count(tag, key, 1, extra...)
}

func (m *monitor) Count(tag, key string, value int64, extra ...string) {
	m.metrics.Count(tag, key, value, extra...)
}

func (m *monitor) Debug(tag, msg string) { m.log.Debug(tag, msg) }
func (m *monitor) Info(tag, msg string)  { m.log.Info(tag, msg) }

func (m *monitor) Warning(err error) {
	if err == nil {
		return
	}
	m.log.Warning(m.app, err.Error())
}

func (m *monitor) Error(err error) {
	if err == nil {
		return
	}
	m.log.Error(m.app, err.Error())
}
