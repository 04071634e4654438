package spec_test

import (
	"testing"

	"github.com/duoan/fdf/internal/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseShorthandStep(t *testing.T) {
	doc := `
source:
  kind: jsonl
  uris: ["in.jsonl"]
pipeline:
  - numeric_range: {col: id, lower_bound: 2}
sink:
  kind: jsonl
  uri: out/
`
	s, err := spec.Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, s.Pipeline, 1)
	assert.Equal(t, "numeric_range", s.Pipeline[0].Name)
	assert.Equal(t, "jsonl", s.Source.Kind)
}

func TestParseExplicitStep(t *testing.T) {
	doc := `
source:
  kind: jsonl
  uris: ["in.jsonl"]
pipeline:
  - name: numeric_range
    config: {col: id, lower_bound: 2}
sink:
  kind: jsonl
  uri: out/
`
	s, err := spec.Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, s.Pipeline, 1)
	assert.Equal(t, "numeric_range", s.Pipeline[0].Name)
}

func TestEmptyPipelineIsPermitted(t *testing.T) {
	doc := `
source:
  kind: jsonl
  uris: ["in.jsonl"]
pipeline: []
sink:
  kind: jsonl
  uri: out/
`
	s, err := spec.Parse([]byte(doc))
	require.NoError(t, err)
	assert.Empty(t, s.Pipeline)
}

func TestSinkTraceEnabledDefaultsTrue(t *testing.T) {
	s := spec.Sink{}
	assert.True(t, s.TraceEnabled())

	no := false
	s.EnableTrace = &no
	assert.False(t, s.TraceEnabled())
}
