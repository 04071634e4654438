// Copyright 2019-2020 Grabtaxi Holdings PTE LTE (GRAB), All rights reserved.
// Use of this source code is governed by an MIT-style license that can be found in the LICENSE file

// Package spec defines the schema of the declarative pipeline file and
// parses it from YAML.
package spec

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Source describes where records come from.
type Source struct {
	Kind    string            `yaml:"kind"`
	URIs    []string          `yaml:"uris"`
	Columns map[string]string `yaml:"columns,omitempty"`
}

// Sink describes where surviving records (and, optionally, trace/error
// streams) are written.
type Sink struct {
	Kind             string `yaml:"kind"`
	URI              string `yaml:"uri"`
	Mode             string `yaml:"mode,omitempty"`
	ShardKey         string `yaml:"shard_key,omitempty"`
	SamplesPerShard  int    `yaml:"samples_per_shard,omitempty"`
	ShardNamePattern string `yaml:"shard_name_pattern,omitempty"`
	EnableTrace      *bool  `yaml:"enable_trace,omitempty"`
}

// TraceEnabled reports whether trace output was requested, defaulting to
// true (tracing is opt-out, not opt-in, since the partition invariant in
// spec.md §8 depends on every dropped record landing somewhere observable).
func (s Sink) TraceEnabled() bool {
	if s.EnableTrace == nil {
		return true
	}
	return *s.EnableTrace
}

// Step is one pipeline entry. It accepts both the shorthand form
// ({"<operator_name>": <config>}) and the explicit form
// ({name: ..., config: ...}) via UnmarshalYAML below.
type Step struct {
	Name   string
	Config interface{}
}

// UnmarshalYAML implements custom decoding for the two accepted step
// shapes described in spec.md §6.
func (s *Step) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var explicit struct {
		Name   string      `yaml:"name"`
		Config interface{} `yaml:"config"`
	}
	if err := unmarshal(&explicit); err == nil && explicit.Name != "" {
		s.Name = explicit.Name
		s.Config = explicit.Config
		return nil
	}

	var shorthand map[string]interface{}
	if err := unmarshal(&shorthand); err != nil {
		return fmt.Errorf("spec: invalid pipeline step: %w", err)
	}
	if len(shorthand) != 1 {
		return fmt.Errorf("spec: shorthand pipeline step must have exactly one key, got %d", len(shorthand))
	}
	for name, config := range shorthand {
		s.Name = name
		s.Config = config
	}
	return nil
}

// Spec is the top-level declarative pipeline document.
type Spec struct {
	Source   Source `yaml:"source"`
	Pipeline []Step `yaml:"pipeline"`
	Sink     Sink   `yaml:"sink"`
}

// Parse decodes a pipeline spec from YAML bytes.
func Parse(data []byte) (*Spec, error) {
	var s Spec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("spec: invalid yaml: %w", err)
	}
	return &s, nil
}

// Load reads and parses a pipeline spec file from disk.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("spec: unable to read %q: %w", path, err)
	}
	return Parse(data)
}
