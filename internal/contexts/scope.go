package contexts

import (
	"context"
	"sync"

	"github.com/turnbullerin/autoinject/internal/shared"
)

// scopeContextKey is the context key for storing an ExecutionScope in a
// stdlib context.Context.
type scopeContextKey struct{}

// ExecutionScope identifies which cooperative execution unit we are in.
// A scope starts with no identifying token (unset) and transitions to set
// when it is touched or freshened, or when it inherits a token from the
// parent it was copied from. Scopes form a tree through parent references
// so copied units keep their inheritance relationship explicit.
type ExecutionScope struct {
	token  shared.Token
	parent *ExecutionScope
	mu     sync.Mutex
}

// NewExecutionScope creates a brand-new scope with no token and no parent.
func NewExecutionScope() *ExecutionScope {
	return &ExecutionScope{}
}

// Token returns the scope's current identifying token, or the empty token
// if the scope has not been touched yet.
func (s *ExecutionScope) Token() shared.Token {
	if s == nil {
		return shared.EmptyToken
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// IsSet reports whether the scope has an identifying token.
func (s *ExecutionScope) IsSet() bool {
	return s.Token() != shared.EmptyToken
}

// Parent returns the scope this one was copied from, or nil.
func (s *ExecutionScope) Parent() *ExecutionScope {
	if s == nil {
		return nil
	}
	return s.parent
}

// child returns a copy-derived scope: it inherits the parent's current
// token, exactly as a copied execution unit starts with identical values.
func (s *ExecutionScope) child() *ExecutionScope {
	return &ExecutionScope{token: s.Token(), parent: s}
}

func (s *ExecutionScope) setToken(token shared.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// swapToken installs token and returns the previous one.
func (s *ExecutionScope) swapToken(token shared.Token) shared.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.token
	s.token = token
	return prev
}

// ---------------------------------------------------------------------------
// stdlib context.Context accessors
// ---------------------------------------------------------------------------

// WithScope attaches an ExecutionScope to a stdlib context.Context.
func WithScope(ctx context.Context, s *ExecutionScope) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, s)
}

// ScopeFrom extracts the ExecutionScope from a stdlib context.Context.
// Returns the scope and true if found, nil and false otherwise.
func ScopeFrom(ctx context.Context) (*ExecutionScope, bool) {
	s, ok := ctx.Value(scopeContextKey{}).(*ExecutionScope)
	return s, ok
}

// MustScope extracts the ExecutionScope or panics. Use inside code that
// only ever runs under an Acquire block.
func MustScope(ctx context.Context) *ExecutionScope {
	s, ok := ScopeFrom(ctx)
	if !ok {
		panic("autoinject: no execution scope in context")
	}
	return s
}
