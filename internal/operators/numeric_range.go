package operators

import (
	"fmt"

	"github.com/duoan/fdf/internal/operator"
	"github.com/duoan/fdf/internal/record"
)

type numericRangeConfig struct {
	Col        string   `yaml:"col"`
	LowerBound *float64 `yaml:"lower_bound"`
	UpperBound *float64 `yaml:"upper_bound"`
}

// NewNumericRange builds the numeric_range filter: drops records whose
// field is outside [lower_bound, upper_bound], and fails (operator.Failed)
// on records whose field is missing or non-numeric. Either bound may be
// omitted to leave that side unconstrained.
func NewNumericRange(raw interface{}) (operator.Operator, error) {
	var cfg numericRangeConfig
	if err := decodeConfig(raw, &cfg); err != nil {
		return nil, fmt.Errorf("numeric_range: %w", err)
	}
	if cfg.Col == "" {
		return nil, fmt.Errorf("numeric_range: col is required")
	}

	return operator.Func(func(rec record.Record) operator.Result {
		v, ok := numericValue(rec, cfg.Col)
		if !ok {
			return operator.Fail(fmt.Errorf("numeric_range: field %q missing or non-numeric", cfg.Col))
		}
		if cfg.LowerBound != nil && v < *cfg.LowerBound {
			return operator.Drop()
		}
		if cfg.UpperBound != nil && v > *cfg.UpperBound {
			return operator.Drop()
		}
		return operator.Keep(rec)
	}), nil
}

func numericValue(rec record.Record, col string) (float64, bool) {
	if v, ok := rec.GetFloat64(col); ok {
		return v, true
	}
	if v, ok := rec.GetInt64(col); ok {
		return float64(v), true
	}
	return 0, false
}
