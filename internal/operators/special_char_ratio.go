package operators

import (
	"fmt"
	"unicode"

	"github.com/duoan/fdf/internal/operator"
	"github.com/duoan/fdf/internal/record"
)

type specialCharRatioConfig struct {
	Col string `yaml:"col"`
	Out string `yaml:"out"`
}

// NewSpecialCharRatio builds the special_char_ratio annotator: writes the
// fraction of non-alphanumeric runes in cfg.Col into cfg.Out, grounded on
// original_source/crates/fdf-ops-text/src/annotator/special_char_ratio.rs.
// An empty string yields a ratio of 0.
func NewSpecialCharRatio(raw interface{}) (operator.Operator, error) {
	var cfg specialCharRatioConfig
	if err := decodeConfig(raw, &cfg); err != nil {
		return nil, fmt.Errorf("special_char_ratio: %w", err)
	}
	if cfg.Col == "" || cfg.Out == "" {
		return nil, fmt.Errorf("special_char_ratio: col and out are required")
	}

	return &specialCharRatio{cfg: cfg}, nil
}

type specialCharRatio struct {
	cfg specialCharRatioConfig
}

func (a *specialCharRatio) Process(rec record.Record) operator.Result {
	s, ok := rec.GetString(a.cfg.Col)
	if !ok {
		return operator.Fail(fmt.Errorf("special_char_ratio: field %q missing or not a string", a.cfg.Col))
	}

	total := 0
	special := 0
	for _, r := range s {
		total++
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			special++
		}
	}

	ratio := 0.0
	if total > 0 {
		ratio = float64(special) / float64(total)
	}
	rec.Set(a.cfg.Out, ratio)
	return operator.Keep(rec)
}

func (a *specialCharRatio) AddedColumns() []record.Field {
	return []record.Field{{Name: a.cfg.Out, Type: record.Float64, Nullable: false}}
}

// ConcurrentOK implements operator.ConcurrencySafe: specialCharRatio only
// reads its construction-time config and holds no mutable state across
// calls.
func (a *specialCharRatio) ConcurrentOK() bool { return true }
