// Copyright 2019-2020 Grabtaxi Holdings PTE LTE (GRAB), All rights reserved.
// Use of this source code is governed by an MIT-style license that can be found in the LICENSE file

// Package statsd provides the metrics collaborator used by monitor.Monitor.
package statsd

import (
	"time"

	"github.com/DataDog/datadog-go/statsd"
)

// Client is the metrics contract required by monitor.Monitor.
type Client interface {
	Duration(tag, key string, d time.Duration, extra ...string)
	Gauge(tag, key string, value float64, extra ...string)
	Count(tag, key string, value int64, extra ...string)
}

// ------------------------------------------------------------------------------------------------------------

type dogstatsd struct {
	client *statsd.Client
}

// New creates a metrics client backed by DataDog's statsd implementation.
func New(addr string) (Client, error) {
	c, err := statsd.New(addr)
	if err != nil {
		return nil, err
	}
	return &dogstatsd{client: c}, nil
}

func (d *dogstatsd) Duration(tag, key string, elapsed time.Duration, extra ...string) {
	_ = d.client.Timing(tag+"."+key, elapsed, extra, 1)
}

func (d *dogstatsd) Gauge(tag, key string, value float64, extra ...string) {
	_ = d.client.Gauge(tag+"."+key, value, extra, 1)
}

func (d *dogstatsd) Count(tag, key string, value int64, extra ...string) {
	_ = d.client.Count(tag+"."+key, value, extra, 1)
}

// ------------------------------------------------------------------------------------------------------------

type noop struct{}

// NewNoop creates a metrics client that discards everything, for tests.
func NewNoop() Client { return noop{} }

func (noop) Duration(tag, key string, d time.Duration, extra ...string) {}
func (noop) Gauge(tag, key string, value float64, extra ...string)      {}
func (noop) Count(tag, key string, value int64, extra ...string)        {}
