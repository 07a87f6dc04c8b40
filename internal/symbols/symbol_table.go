// symbols/symbol_table.go - Declaration table entry point
//
// The table is the semantic model read by clause lowering. It is split into:
// - symbol_table_core.go: declaration kinds, generics, Decl
// - symbol_table_init.go: prelude of built-in scalar types
// - symbol_table_operations.go: Table construction, lookup and tree walk
// - symbol_table_traits.go: traits and their associated types
// - symbol_table_implementations.go: impls and associated type values
// - symbol_table_resolution.go: generics, predicates and types of a declaration

package symbols
