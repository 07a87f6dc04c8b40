package typesystem

import "fmt"

// Region is a lifetime argument.
type Region interface {
	Arg
	regionNode()
}

// RParam is an early-bound lifetime parameter of a declaration.
type RParam struct {
	Index int
	Name  string
}

func (r RParam) String() string {
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("'p%d", r.Index)
}

func (r RParam) Kind() Kind  { return Lifetime }
func (r RParam) regionNode() {}

// RBound is a lifetime bound by an enclosing binder; see TBound.
type RBound struct {
	Depth int
	Index int
	Name  string
}

func (r RBound) String() string {
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("'^%d_%d", r.Depth, r.Index)
}

func (r RBound) Kind() Kind  { return Lifetime }
func (r RBound) regionNode() {}

// RStatic is the 'static lifetime.
type RStatic struct{}

func (r RStatic) String() string { return "'static" }
func (r RStatic) Kind() Kind     { return Lifetime }
func (r RStatic) regionNode()    {}
