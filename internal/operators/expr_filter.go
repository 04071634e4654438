package operators

import (
	"fmt"

	"github.com/Knetic/govaluate"

	"github.com/duoan/fdf/internal/operator"
	"github.com/duoan/fdf/internal/record"
)

type exprFilterConfig struct {
	Expr string `yaml:"expr"`
}

// NewExprFilter builds the expr_filter filter: cfg.Expr is a boolean
// govaluate expression evaluated against the record's fields as
// parameters. Failed if the expression references a missing field or
// doesn't evaluate to a bool.
func NewExprFilter(raw interface{}) (operator.Operator, error) {
	var cfg exprFilterConfig
	if err := decodeConfig(raw, &cfg); err != nil {
		return nil, fmt.Errorf("expr_filter: %w", err)
	}
	if cfg.Expr == "" {
		return nil, fmt.Errorf("expr_filter: expr is required")
	}

	expr, err := govaluate.NewEvaluableExpression(cfg.Expr)
	if err != nil {
		return nil, fmt.Errorf("expr_filter: invalid expr %q: %w", cfg.Expr, err)
	}

	return operator.Func(func(rec record.Record) operator.Result {
		result, err := expr.Evaluate(rec.Map())
		if err != nil {
			return operator.Fail(fmt.Errorf("expr_filter: %w", err))
		}
		keep, ok := result.(bool)
		if !ok {
			return operator.Fail(fmt.Errorf("expr_filter: expr %q did not evaluate to a bool", cfg.Expr))
		}
		if !keep {
			return operator.Drop()
		}
		return operator.Keep(rec)
	}), nil
}
