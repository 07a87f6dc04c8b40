package manifest

import "fmt"

// ParseError locates a problem in a manifest expression or item.
type ParseError struct {
	File string
	Item string
	Expr string
	Pos  int
	Msg  string
}

func (e *ParseError) Error() string {
	loc := e.File
	if e.Item != "" {
		loc += ": " + e.Item
	}
	if e.Expr == "" {
		return fmt.Sprintf("%s: %s", loc, e.Msg)
	}
	return fmt.Sprintf("%s: %q at %d: %s", loc, e.Expr, e.Pos, e.Msg)
}
