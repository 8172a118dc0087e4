// Package identity mints and validates session identifiers.
//
// Identifiers are version-4 UUID strings:
//
//	xxxxxxxx-xxxx-4xxx-yxxx-xxxxxxxxxxxx
//
// where every x is a lowercase hex digit and y is one of 8, 9, a or b.
//
// Generator owns its entropy source. Production code uses the crypto random
// source; tests pass a seeded stream to get reproducible identifiers:
//
//	gen := identity.NewGenerator(rand.NewChaCha8(seed))
//	id, err := gen.New()
//
// Entities that carry an identifier embed Identity rather than extending a
// base type.
package identity
