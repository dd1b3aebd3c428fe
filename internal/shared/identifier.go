package shared

import "reflect"

// Identifier names an injectable. It is a value type so it is safe to
// copy, compare, and use as a map key. Identifiers built from a type and
// from that type's printed name normalize to the same key, so
// Named("pkg.Database") and For[pkg.Database]() address the same
// registration.
type Identifier struct {
	key string
}

// Named creates an identifier from a stable string name.
func Named(name string) Identifier {
	return Identifier{key: name}
}

// For creates an identifier from a type. The key is the type's printed
// form (reflect.Type.String), e.g. "*service.Database" or "io.Writer".
func For[T any]() Identifier {
	return ForType(reflect.TypeOf((*T)(nil)).Elem())
}

// ForType creates an identifier from a reflect.Type.
func ForType(t reflect.Type) Identifier {
	return Identifier{key: t.String()}
}

// Key returns the normalized key used by the registry and the caches.
func (id Identifier) Key() string { return id.key }

// IsZero returns true if the identifier is unset.
func (id Identifier) IsZero() bool { return id.key == "" }

// String returns a human-readable representation.
func (id Identifier) String() string { return id.key }
