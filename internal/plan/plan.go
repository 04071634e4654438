// Package plan compiles a declarative spec.Spec plus a registry.Registry
// into an ordered list of (name, operator) steps and resolved source/sink
// descriptors, grounded on
// original_source/crates/fdf-engine/src/plan.rs::Plan::compile.
package plan

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/duoan/fdf/internal/monitor/errors"
	"github.com/duoan/fdf/internal/operator"
	"github.com/duoan/fdf/internal/record"
	"github.com/duoan/fdf/internal/registry"
	"github.com/duoan/fdf/internal/spec"
)

// Step is one compiled pipeline entry.
type Step struct {
	Name string
	Op   operator.Operator
}

// SourceDesc describes the resolved source: its kind, the list of files it
// will read from (after any remote resolution), and an optional column
// projection.
type SourceDesc struct {
	Kind    string
	URIs    []string
	Columns map[string]string
}

// SinkKind enumerates the two sink encodings this spec supports.
type SinkKind string

const (
	SinkParquet SinkKind = "parquet"
	SinkJSONL   SinkKind = "jsonl"
)

// SinkDesc describes the resolved sink.
type SinkDesc struct {
	Kind             SinkKind
	URI              string
	Sharded          bool
	ShardKey         string
	SamplesPerShard  int
	ShardNamePattern string
	EnableTrace      bool
}

// Plan is the compiled pipeline, ready for internal/engine to execute.
type Plan struct {
	Steps  []Step
	Source SourceDesc
	Sink   SinkDesc
	// Schema is the statically-known output schema: the source's declared
	// schema plus every AddedColumns() contribution from operators that
	// implement operator.SchemaContributor (resolves the "schema evolution
	// mid-file" open question in favor of a static upper bound wherever
	// possible).
	Schema *record.Schema
}

// Compile resolves spec into a Plan using reg to build each operator.
// Every configuration problem found (unknown operator, bad config, empty
// source list, ambiguous sink kind) is collected and returned together via
// a multierror, instead of stopping at the first.
func Compile(s *spec.Spec, reg *registry.Registry, sourceSchema *record.Schema) (*Plan, error) {
	var errs *multierror.Error

	steps := make([]Step, 0, len(s.Pipeline))
	schema := record.NewSchema()
	if sourceSchema != nil {
		schema = sourceSchema.Clone()
	}

	for _, node := range s.Pipeline {
		op, err := reg.Build(node.Name, node.Config)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		steps = append(steps, Step{Name: node.Name, Op: op})

		if contributor, ok := op.(operator.SchemaContributor); ok {
			for _, f := range contributor.AddedColumns() {
				schema.Add(f)
			}
		}
	}

	if len(s.Source.URIs) == 0 {
		errs = multierror.Append(errs, errors.New("plan: source resolves to zero files"))
	}

	sinkKind, err := resolveSinkKind(s.Sink)
	if err != nil {
		errs = multierror.Append(errs, err)
	}

	if errs.ErrorOrNil() != nil {
		return nil, errs
	}

	_, sharded := shardedSink(s.Sink)

	return &Plan{
		Steps: steps,
		Source: SourceDesc{
			Kind:    s.Source.Kind,
			URIs:    s.Source.URIs,
			Columns: s.Source.Columns,
		},
		Sink: SinkDesc{
			Kind:             sinkKind,
			URI:              s.Sink.URI,
			Sharded:          sharded,
			ShardKey:         s.Sink.ShardKey,
			SamplesPerShard:  s.Sink.SamplesPerShard,
			ShardNamePattern: s.Sink.ShardNamePattern,
			EnableTrace:      s.Sink.TraceEnabled(),
		},
		Schema: schema,
	}, nil
}

// resolveSinkKind determines the sink's format from its declared kind, or
// from the URI extension when kind is unset, matching spec.md §6's "Sink
// URI convention".
func resolveSinkKind(s spec.Sink) (SinkKind, error) {
	switch s.Kind {
	case string(SinkParquet):
		return SinkParquet, nil
	case string(SinkJSONL), "json":
		return SinkJSONL, nil
	case "":
		switch {
		case strings.HasSuffix(s.URI, ".parquet"):
			return SinkParquet, nil
		case strings.HasSuffix(s.URI, ".jsonl"), strings.HasSuffix(s.URI, ".json"):
			return SinkJSONL, nil
		default:
			return "", errors.New("plan: ambiguous sink kind: no kind given and uri has no recognized extension")
		}
	default:
		return "", fmt.Errorf("plan: unsupported sink kind %q", s.Kind)
	}
}

// shardedSink reports whether the sink URI should be treated as a directory
// (sharded output) rather than a single file, per spec.md §6's "Sink URI
// convention".
func shardedSink(s spec.Sink) (string, bool) {
	switch {
	case strings.HasSuffix(s.URI, ".parquet"),
		strings.HasSuffix(s.URI, ".jsonl"),
		strings.HasSuffix(s.URI, ".json"):
		return s.URI, false
	default:
		return s.URI, true
	}
}
