package plan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duoan/fdf/internal/operator"
	"github.com/duoan/fdf/internal/plan"
	"github.com/duoan/fdf/internal/record"
	"github.com/duoan/fdf/internal/registry"
	"github.com/duoan/fdf/internal/spec"
)

func testRegistry() *registry.Registry {
	reg := registry.New()
	reg.Register("keep_all", func(config interface{}) (operator.Operator, error) {
		return operator.Func(func(rec record.Record) operator.Result {
			return operator.Keep(rec)
		}), nil
	})
	reg.Register("add_flag", func(config interface{}) (operator.Operator, error) {
		return addFlag{}, nil
	})
	return reg
}

// addFlag is a SchemaContributor stand-in for an annotator operator.
type addFlag struct{}

func (addFlag) Process(rec record.Record) operator.Result { return operator.Keep(rec) }
func (addFlag) AddedColumns() []record.Field {
	return []record.Field{{Name: "flag", Type: record.Bool}}
}

func TestCompileResolvesSteps(t *testing.T) {
	s := &spec.Spec{
		Source: spec.Source{Kind: "jsonl", URIs: []string{"data.jsonl"}},
		Pipeline: []spec.Step{
			{Name: "keep_all"},
			{Name: "add_flag"},
		},
		Sink: spec.Sink{URI: "out.parquet"},
	}

	p, err := plan.Compile(s, testRegistry(), record.NewSchema(record.Field{Name: "id", Type: record.Int64}))
	require.NoError(t, err)

	require.Len(t, p.Steps, 2)
	assert.Equal(t, "keep_all", p.Steps[0].Name)
	assert.Equal(t, "add_flag", p.Steps[1].Name)
	assert.Equal(t, plan.SinkParquet, p.Sink.Kind)
	assert.False(t, p.Sink.Sharded)
	assert.True(t, p.Schema.Has("id"))
	assert.True(t, p.Schema.Has("flag"))
}

func TestCompileAggregatesErrors(t *testing.T) {
	s := &spec.Spec{
		Source: spec.Source{Kind: "jsonl"},
		Pipeline: []spec.Step{
			{Name: "unknown_operator"},
		},
		Sink: spec.Sink{URI: "out"},
	}

	_, err := plan.Compile(s, testRegistry(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown operator")
	assert.Contains(t, err.Error(), "zero files")
}

func TestCompileShardedSinkFromDirectoryURI(t *testing.T) {
	s := &spec.Spec{
		Source: spec.Source{Kind: "jsonl", URIs: []string{"data.jsonl"}},
		Sink:   spec.Sink{Kind: "jsonl", URI: "out/shards", ShardKey: "user_id", SamplesPerShard: 1000},
	}

	p, err := plan.Compile(s, testRegistry(), nil)
	require.NoError(t, err)
	assert.True(t, p.Sink.Sharded)
	assert.Equal(t, "user_id", p.Sink.ShardKey)
	assert.Equal(t, plan.SinkJSONL, p.Sink.Kind)
}

func TestCompileAmbiguousSinkKind(t *testing.T) {
	s := &spec.Spec{
		Source: spec.Source{Kind: "jsonl", URIs: []string{"data.jsonl"}},
		Sink:   spec.Sink{URI: "out/no-extension-dir"},
	}

	_, err := plan.Compile(s, testRegistry(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous sink kind")
}
