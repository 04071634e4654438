package operators

import (
	"fmt"
	"unicode/utf8"

	"github.com/duoan/fdf/internal/operator"
	"github.com/duoan/fdf/internal/record"
)

type addLenConfig struct {
	Col string `yaml:"col"`
	Out string `yaml:"out"`
}

// NewAddLen builds the add_len annotator: writes the UTF-8 rune length of
// cfg.Col into a new cfg.Out column. Failed if the source column is absent
// or not a string.
func NewAddLen(raw interface{}) (operator.Operator, error) {
	var cfg addLenConfig
	if err := decodeConfig(raw, &cfg); err != nil {
		return nil, fmt.Errorf("add_len: %w", err)
	}
	if cfg.Col == "" || cfg.Out == "" {
		return nil, fmt.Errorf("add_len: col and out are required")
	}

	return &addLen{cfg: cfg}, nil
}

// addLen is a struct (rather than operator.Func) purely so it can
// implement operator.SchemaContributor: its added column is statically
// knowable from cfg.Out, without running it on any record.
type addLen struct {
	cfg addLenConfig
}

func (a *addLen) Process(rec record.Record) operator.Result {
	s, ok := rec.GetString(a.cfg.Col)
	if !ok {
		return operator.Fail(fmt.Errorf("add_len: field %q missing or not a string", a.cfg.Col))
	}
	rec.Set(a.cfg.Out, int64(utf8.RuneCountInString(s)))
	return operator.Keep(rec)
}

func (a *addLen) AddedColumns() []record.Field {
	return []record.Field{{Name: a.cfg.Out, Type: record.Int64, Nullable: false}}
}

// ConcurrentOK implements operator.ConcurrencySafe: addLen only reads its
// construction-time config and holds no mutable state across calls.
func (a *addLen) ConcurrentOK() bool { return true }
