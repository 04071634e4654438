// Package sharded implements the sharded batch writer: it splits a logical
// sink across size-bounded shard files, with lazy shard creation and
// empty-shard reclamation on close. Ported faithfully from
// original_source/crates/fdf-engine/src/io/writer/sharded.rs, which is the
// canonical description of this component's algorithm.
package sharded

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/twmb/murmur3"

	"github.com/duoan/fdf/internal/record"
	"github.com/duoan/fdf/internal/writer"
)

// Factory creates the concrete sub-writer for one shard file path.
type Factory func(path string) (writer.Writer, error)

var shardIDPattern = regexp.MustCompile(`\{shard_id(?::(\d+))?\}`)

// DefaultPattern is used when no shard_name_pattern is configured.
const DefaultPattern = "part-{shard_id:08}.{ext}"

// Writer splits records across size-bounded shard files.
//
// In sequential mode (ShardKey == ""), records fill shard 0 until
// SamplesPerShard are written, then shard 1, and so on.
//
// In keyed mode, each record's string value at ShardKey is hashed into a
// base shard id; successive records sharing that key value occupy a
// contiguous run of shards, each holding up to SamplesPerShard records.
type Writer struct {
	baseDir          string
	extension        string
	shardKey         string
	samplesPerShard  int
	shardNamePattern string
	create           Factory

	mu              sync.Mutex
	writers         map[int]writer.Writer
	currentShardID  int
	currentCount    int
	keyShardCounts  map[string]int
	keyBaseShard    map[string]int
	wroteAny        bool
	hashSeed        uint32
}

// New creates a sharded writer. extension is the literal value substituted
// for {ext} in the shard name pattern (e.g. "jsonl" or "parquet").
func New(baseDir, extension, shardKey string, samplesPerShard int, shardNamePattern string, create Factory) *Writer {
	if shardNamePattern == "" {
		shardNamePattern = DefaultPattern
	}
	if samplesPerShard <= 0 {
		samplesPerShard = 1
	}
	return &Writer{
		baseDir:          baseDir,
		extension:        extension,
		shardKey:         shardKey,
		samplesPerShard:  samplesPerShard,
		shardNamePattern: shardNamePattern,
		create:           create,
		writers:          make(map[int]writer.Writer),
		keyShardCounts:   make(map[string]int),
		keyBaseShard:     make(map[string]int),
	}
}

// shardPath renders the shard name pattern for a given shard id.
func (w *Writer) shardPath(shardID int) string {
	result := strings.ReplaceAll(w.shardNamePattern, "{ext}", w.extension)
	result = shardIDPattern.ReplaceAllStringFunc(result, func(match string) string {
		sub := shardIDPattern.FindStringSubmatch(match)
		if sub[1] == "" {
			return strconv.Itoa(shardID)
		}
		width, _ := strconv.Atoi(sub[1])
		return fmt.Sprintf("%0*d", width, shardID)
	})
	return filepath.Join(w.baseDir, result)
}

// writerFor returns the sub-writer for shardID, creating it lazily on first
// use.
func (w *Writer) writerFor(shardID int) (writer.Writer, error) {
	if sw, ok := w.writers[shardID]; ok {
		return sw, nil
	}
	sw, err := w.create(w.shardPath(shardID))
	if err != nil {
		return nil, err
	}
	w.writers[shardID] = sw
	return sw, nil
}

// Write routes rec to the correct shard, opening a new shard file when the
// current one is full.
func (w *Writer) Write(rec record.Record) error {
	w.mu.Lock()
	shardID, err := w.determineShardID(rec)
	if err != nil {
		w.mu.Unlock()
		return err
	}
	sw, err := w.writerFor(shardID)
	w.mu.Unlock()
	if err != nil {
		return err
	}

	if err := sw.Write(rec); err != nil {
		return err
	}
	return nil
}

// determineShardID must be called with w.mu held.
func (w *Writer) determineShardID(rec record.Record) (int, error) {
	if w.shardKey == "" {
		return w.advanceSequential(), nil
	}

	key, ok := rec.GetString(w.shardKey)
	if !ok {
		return w.advanceSequential(), nil
	}
	return w.advanceKeyed(key), nil
}

func (w *Writer) advanceSequential() int {
	if w.currentCount >= w.samplesPerShard {
		w.currentShardID++
		w.currentCount = 0
	}
	w.currentCount++
	return w.currentShardID
}

func (w *Writer) advanceKeyed(key string) int {
	base, ok := w.keyBaseShard[key]
	if !ok {
		base = int(murmur3.Sum32WithSeed([]byte(key), w.hashSeed) % 1000)
		w.keyBaseShard[key] = base
	}

	count := w.keyShardCounts[key]
	shardID := base + count/w.samplesPerShard
	w.keyShardCounts[key] = count + 1
	return shardID
}

// Close closes every opened sub-writer, removing the artifacts of any that
// reported no data. It reports "wrote data" iff at least one sub-writer did.
func (w *Writer) Close() (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	any := false
	for _, sw := range w.writers {
		wrote, err := sw.Close()
		if err != nil {
			return any, err
		}
		if wrote {
			any = true
		}
	}
	w.wroteAny = any
	return any, nil
}
