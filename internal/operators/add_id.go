package operators

import (
	"fmt"
	"sync/atomic"

	"github.com/duoan/fdf/internal/operator"
	"github.com/duoan/fdf/internal/record"
)

type addIDConfig struct {
	Out string `yaml:"out"`
}

// NewAddID builds the add_id annotator: writes a monotonically increasing
// int64 id into cfg.Out, grounded on
// original_source/crates/fdf-operators/src/common/annotator/add_id.rs. The
// counter is process-local, not cluster-unique — single-host only, per
// spec.md's Non-goals.
func NewAddID(raw interface{}) (operator.Operator, error) {
	var cfg addIDConfig
	if err := decodeConfig(raw, &cfg); err != nil {
		return nil, fmt.Errorf("add_id: %w", err)
	}
	if cfg.Out == "" {
		return nil, fmt.Errorf("add_id: out is required")
	}

	return &addID{cfg: cfg}, nil
}

// addID implements operator.ConcurrencySafe: its counter is a single
// atomic, so concurrent Process calls across batch workers still hand out
// distinct, monotonically increasing ids (order across records is not
// guaranteed under concurrent dispatch, only uniqueness).
type addID struct {
	cfg     addIDConfig
	counter int64
}

func (a *addID) Process(rec record.Record) operator.Result {
	id := atomic.AddInt64(&a.counter, 1) - 1
	rec.Set(a.cfg.Out, id)
	return operator.Keep(rec)
}

func (a *addID) AddedColumns() []record.Field {
	return []record.Field{{Name: a.cfg.Out, Type: record.Int64, Nullable: false}}
}

func (a *addID) ConcurrentOK() bool { return true }
