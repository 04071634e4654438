package jsonl_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/duoan/fdf/internal/reader"
	"github.com/duoan/fdf/internal/reader/jsonl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestReadGoodRecords(t *testing.T) {
	path := writeTemp(t, `{"id":1,"t":"a"}
{"id":2,"t":"b"}
{"id":3,"t":"c"}
`)
	r, err := jsonl.Open(path)
	require.NoError(t, err)
	defer r.Close()

	var ids []int64
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		id, ok := rec.GetInt64("id")
		require.True(t, ok)
		ids = append(ids, id)
	}
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestMalformedMiddleLineIsPerRecordError(t *testing.T) {
	path := writeTemp(t, "{\"id\":1}\nnot json\n{\"id\":3}\n")
	r, err := jsonl.Open(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next()
	require.NoError(t, err)

	_, err = r.Next()
	require.Error(t, err)
	assert.NotEqual(t, io.EOF, err)

	rec, err := r.Next()
	require.NoError(t, err)
	id, _ := rec.GetInt64("id")
	assert.Equal(t, int64(3), id)

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

// A line past the scanner's max token size is a scanner-level I/O error, not
// a decode error: bufio.Scanner latches it, so every subsequent Scan call
// would keep failing the same way. Next must report it as a
// *reader.FatalError so the engine aborts instead of looping forever.
func TestOversizedLineIsFatal(t *testing.T) {
	oversized := strings.Repeat("x", 17*1024*1024)
	path := writeTemp(t, "{\"id\":1}\n{\"t\":\""+oversized+"\"}\n")
	r, err := jsonl.Open(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next()
	require.NoError(t, err)

	_, err = r.Next()
	require.Error(t, err)
	assert.NotEqual(t, io.EOF, err)

	var fatal *reader.FatalError
	require.True(t, errors.As(err, &fatal), "expected a *reader.FatalError, got %T: %v", err, err)

	_, err = r.Next()
	require.Error(t, err)
	assert.True(t, errors.As(err, &fatal), "scanner error must keep being reported as fatal, not resolve into io.EOF")
}
