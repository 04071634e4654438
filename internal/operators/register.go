package operators

import "github.com/duoan/fdf/internal/registry"

// Register adds every operator in the reference library to reg, under the
// names spec.md §6.4 documents. Callers that want a smaller surface can
// call registry.New() and Register individual factories directly instead.
func Register(reg *registry.Registry) {
	reg.Register("numeric_range", NewNumericRange)
	reg.Register("add_len", NewAddLen)
	reg.Register("expr_filter", NewExprFilter)
	reg.Register("lua_transform", NewLuaTransform)
	reg.Register("special_char_ratio", NewSpecialCharRatio)
	reg.Register("add_id", NewAddID)
}

// Default builds a registry.Registry pre-populated with the reference
// operator library.
func Default() *registry.Registry {
	reg := registry.New()
	Register(reg)
	return reg
}
