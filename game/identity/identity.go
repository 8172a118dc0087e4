package identity

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrInvalidID = errors.New("invalid identifier")
)

// ID is an opaque session identifier
type ID string

// String implements fmt.Stringer
func (id ID) String() string {
	return string(id)
}

// Prefix returns the first n characters of the identifier
func (id ID) Prefix(n int) string {
	if n >= len(id) {
		return string(id)
	}
	if n < 0 {
		return ""
	}
	return string(id[:n])
}

// Parse validates s as a version-4 identifier
func Parse(s string) (ID, error) {
	if len(s) != 36 {
		return "", fmt.Errorf("%w: %q has length %d", ErrInvalidID, s, len(s))
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	if u.Version() != 4 || u.Variant() != uuid.RFC4122 {
		return "", fmt.Errorf("%w: %q is not a version 4 identifier", ErrInvalidID, s)
	}
	if u.String() != s {
		// uuid.Parse accepts upper case, identifiers are always lower case
		return "", fmt.Errorf("%w: %q is not in canonical form", ErrInvalidID, s)
	}
	return ID(s), nil
}

// Generator mints identifiers from an owned entropy source
type Generator struct {
	source io.Reader
	mu     sync.Mutex
}

// NewGenerator creates a generator reading from source.
// A nil source selects the crypto random source.
func NewGenerator(source io.Reader) *Generator {
	if source == nil {
		source = rand.Reader
	}
	return &Generator{source: source}
}

// New mints a fresh identifier
func (g *Generator) New() (ID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	u, err := uuid.NewRandomFromReader(g.source)
	if err != nil {
		return "", fmt.Errorf("failed to read entropy: %w", err)
	}
	return ID(u.String()), nil
}

// Identity is the composed "has an identifier" value
type Identity struct {
	id ID
}

// NewIdentity wraps an already minted identifier
func NewIdentity(id ID) Identity {
	return Identity{id: id}
}

// ID returns the identifier
func (i Identity) ID() ID {
	return i.id
}
