package operators

import (
	"fmt"
	"sync"

	"github.com/kelindar/lua"

	"github.com/duoan/fdf/internal/operator"
	"github.com/duoan/fdf/internal/record"
)

type luaTransformConfig struct {
	Script string `yaml:"script"`
}

// luaScript is the subset of *lua.Script's contract lua_transform relies
// on; it lets the operator pool the interpreter without naming the
// library's concrete type.
type luaScript interface {
	Run(map[string]interface{}) (map[string]interface{}, error)
}

// luaTransform implements the lua_transform transformer: cfg.Script is run
// via github.com/kelindar/lua against a table view of the record's fields,
// and any values the script assigns back into that table are written back
// onto the record. This is the ad-hoc-scoring escape hatch the reference
// library offers in place of a Go recompile per scoring function, the same
// role Lua scripting plays in a script-driven writer collaborator.
//
// A gopher-lua interpreter is not safe for concurrent use, so lua_transform
// keeps one *lua.Script per goroutine in a sync.Pool instead of closing
// over a single shared script: each Process call checks out a script, runs
// it, and returns it to the pool, so two records never execute Lua on the
// same interpreter state at once.
//
// lua_transform does not implement operator.SchemaContributor: the set of
// columns a Lua snippet assigns is not statically knowable from its source
// text, so a pipeline using it falls back to first-flush schema evolution
// at the writer.
type luaTransform struct {
	source string
	pool   sync.Pool
}

func NewLuaTransform(raw interface{}) (operator.Operator, error) {
	var cfg luaTransformConfig
	if err := decodeConfig(raw, &cfg); err != nil {
		return nil, fmt.Errorf("lua_transform: %w", err)
	}
	if cfg.Script == "" {
		return nil, fmt.Errorf("lua_transform: script is required")
	}

	// Compile once up front so a bad script fails plan compilation rather
	// than the first record's Process call.
	probe, err := lua.New(cfg.Script)
	if err != nil {
		return nil, fmt.Errorf("lua_transform: invalid script: %w", err)
	}

	t := &luaTransform{source: cfg.Script}
	t.pool.New = func() interface{} {
		s, err := lua.New(t.source)
		if err != nil {
			// Unreachable in practice: cfg.Script already compiled above.
			panic(fmt.Errorf("lua_transform: %w", err))
		}
		return s
	}
	t.pool.Put(probe)
	return t, nil
}

func (t *luaTransform) Process(rec record.Record) operator.Result {
	s := t.pool.Get().(luaScript)
	defer t.pool.Put(s)

	out, err := s.Run(rec.Map())
	if err != nil {
		return operator.Fail(fmt.Errorf("lua_transform: %w", err))
	}
	for name, v := range out {
		rec.Set(name, v)
	}
	return operator.Keep(rec)
}

// ConcurrentOK implements operator.ConcurrencySafe: Process never touches
// the same *lua.Script from two goroutines at once, since each call checks
// one out of the pool for its own exclusive use.
func (t *luaTransform) ConcurrentOK() bool { return true }
