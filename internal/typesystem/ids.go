package typesystem

import "github.com/google/uuid"

// DefID identifies a declaration (trait, impl, type, associated item, fn).
// IDs are name-based UUIDs of the declaration path, so the same path always
// yields the same identity across runs.
type DefID uuid.UUID

// NoDefID is the zero identity, used by builtin types that have no declaration.
var NoDefID = DefID(uuid.Nil)

var defNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://funvibe.dev/clausegen/def"))

// NewDefID returns the identity of the declaration at path.
func NewDefID(path string) DefID {
	return DefID(uuid.NewSHA1(defNamespace, []byte(path)))
}

// IsValid returns true if the ID is not the zero identity.
func (id DefID) IsValid() bool { return id != NoDefID }

func (id DefID) String() string { return uuid.UUID(id).String() }
