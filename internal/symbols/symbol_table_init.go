package symbols

import (
	"sync"

	"github.com/funvibe/clausegen/internal/typesystem"
)

// Singleton prelude of built-in scalar types.
var (
	prelude     map[string]typesystem.TCon
	preludeOnce sync.Once
)

var builtinTypeNames = []string{
	"bool", "char", "str",
	"i8", "i16", "i32", "i64", "i128", "isize",
	"u8", "u16", "u32", "u64", "u128", "usize",
	"f32", "f64",
}

// Builtin returns the built-in type with the given name.
func Builtin(name string) (typesystem.TCon, bool) {
	preludeOnce.Do(func() {
		prelude = make(map[string]typesystem.TCon, len(builtinTypeNames))
		for _, n := range builtinTypeNames {
			prelude[n] = typesystem.TCon{Name: n}
		}
	})
	t, ok := prelude[name]
	return t, ok
}
