package shared

import "fmt"

// ScopePolicy is the caching discipline for an identifier. It is declared
// once, on the identifier's first registration, and is immutable for the
// process lifetime.
type ScopePolicy int

const (
	// ScopeContext caches one instance per distinct composite scope key.
	// This is the default.
	ScopeContext ScopePolicy = iota
	// ScopeGlobal caches one instance for the whole injector lifetime,
	// ignoring context tokens.
	ScopeGlobal
	// ScopeNone never caches; every resolution constructs a fresh
	// instance whose lifecycle belongs to the caller.
	ScopeNone
)

// String returns a human-readable representation of the policy.
func (p ScopePolicy) String() string {
	switch p {
	case ScopeContext:
		return "context"
	case ScopeGlobal:
		return "global"
	case ScopeNone:
		return "none"
	default:
		return "unknown"
	}
}

// Valid reports whether p is one of the declared policies.
func (p ScopePolicy) Valid() bool {
	switch p {
	case ScopeContext, ScopeGlobal, ScopeNone:
		return true
	}
	return false
}

// ParseScopePolicy converts a configuration string into a ScopePolicy.
func ParseScopePolicy(s string) (ScopePolicy, error) {
	switch s {
	case "context", "":
		return ScopeContext, nil
	case "global":
		return ScopeGlobal, nil
	case "none":
		return ScopeNone, nil
	default:
		return ScopeContext, fmt.Errorf("unknown scope policy %q", s)
	}
}
