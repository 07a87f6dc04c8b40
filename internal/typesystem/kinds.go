package typesystem

// Kind classifies a generic parameter or bound variable.
// * (Star) is the kind of types (u32, Vec<T>).
// ' (Lifetime) is the kind of regions ('a, 'static).
type Kind interface {
	String() string
	Equal(Kind) bool
}

// KStar represents the kind of a type.
type KStar struct{}

func (k KStar) String() string { return "*" }
func (k KStar) Equal(other Kind) bool {
	_, ok := other.(KStar)
	return ok
}

// KLifetime represents the kind of a region.
type KLifetime struct{}

func (k KLifetime) String() string { return "'" }
func (k KLifetime) Equal(other Kind) bool {
	_, ok := other.(KLifetime)
	return ok
}

var Star Kind = KStar{}
var Lifetime Kind = KLifetime{}

// IsLifetime reports whether k is the region kind.
func IsLifetime(k Kind) bool {
	_, ok := k.(KLifetime)
	return ok
}
