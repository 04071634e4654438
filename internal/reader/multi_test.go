package reader_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duoan/fdf/internal/reader"
	"github.com/duoan/fdf/internal/reader/jsonl"
)

func writeJSONL(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestMultiConcatenatesInOrder(t *testing.T) {
	a := writeJSONL(t, "a.jsonl", "{\"id\":1}\n{\"id\":2}\n")
	b := writeJSONL(t, "b.jsonl", "{\"id\":3}\n")

	r, err := reader.Multi([]string{a, b}, func(path string) (reader.Reader, error) {
		return jsonl.Open(path)
	})
	require.NoError(t, err)
	defer r.Close()

	var ids []int64
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		id, _ := rec.GetInt64("id")
		ids = append(ids, id)
	}
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestMultiSingleFileSkipsWrapper(t *testing.T) {
	a := writeJSONL(t, "a.jsonl", "{\"id\":1}\n")

	r, err := reader.Multi([]string{a}, func(path string) (reader.Reader, error) {
		return jsonl.Open(path)
	})
	require.NoError(t, err)
	defer r.Close()

	_, isJSONLReader := r.(*jsonl.Reader)
	assert.True(t, isJSONLReader)
}
