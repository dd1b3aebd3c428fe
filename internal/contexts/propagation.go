// Package contexts implements the context-identification and propagation
// layer: informants that report "which context are we in", the
// ExecutionScope tree for cooperative execution units, and the manager
// that forks, freshens, restores and cleans up those scopes.
package contexts

import (
	"context"

	"github.com/google/uuid"

	"github.com/turnbullerin/autoinject/internal/logger"
	"github.com/turnbullerin/autoinject/internal/scopecache"
	"github.com/turnbullerin/autoinject/internal/shared"
)

// AcquireMode selects how Acquire derives the scope it runs the callback
// under.
type AcquireMode int

const (
	// AcquireCopy derives a child that inherits the parent's state, then
	// freshens it, so cache isolation is guaranteed even though other
	// inherited state is shared.
	AcquireCopy AcquireMode = iota
	// AcquireEmpty starts a brand-new scope with no inherited state.
	AcquireEmpty
	// AcquireSame freshens the current scope in place and restores its
	// previous token on exit.
	AcquireSame
)

// String returns a human-readable representation of the mode.
func (m AcquireMode) String() string {
	switch m {
	case AcquireCopy:
		return "copy"
	case AcquireEmpty:
		return "empty"
	case AcquireSame:
		return "same"
	default:
		return "unknown"
	}
}

// RestoreToken captures a scope's token before a Freshen so it can be
// reinstated later. The zero value restores nothing.
type RestoreToken struct {
	scope *ExecutionScope
	prev  shared.Token
	valid bool
}

// Manager tracks identifying tokens for execution scopes and owns their
// cache lifecycle. It never intercepts the host's own copy/fork
// machinery: scopes are forked explicitly through Acquire or child
// derivation, and cleaned up explicitly when a unit ends.
type Manager struct {
	cache *scopecache.Cache
	log   logger.Logger
}

// NewManager creates a propagation manager over the given cache.
func NewManager(cache *scopecache.Cache, log logger.Logger) *Manager {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &Manager{cache: cache, log: log.Named("contexts")}
}

// Touch ensures the scope has an identifying token, assigning a new
// unique one only if it is unset. Touch before handing a scope to code
// that may copy it: a copy taken after Touch inherits a defined token
// instead of accidentally matching unrelated fresh scopes.
func (m *Manager) Touch(scope *ExecutionScope) shared.Token {
	if scope == nil {
		return shared.EmptyToken
	}
	scope.mu.Lock()
	defer scope.mu.Unlock()
	if scope.token == shared.EmptyToken {
		scope.token = newToken()
	}
	return scope.token
}

// Freshen unconditionally assigns a new, distinct token to the scope,
// severing cache-sharing with whatever the token identified before. The
// returned RestoreToken reinstates the prior token, supporting nested
// freshen/restore pairs.
func (m *Manager) Freshen(scope *ExecutionScope) RestoreToken {
	if scope == nil {
		return RestoreToken{}
	}
	prev := scope.swapToken(newToken())
	return RestoreToken{scope: scope, prev: prev, valid: true}
}

// Restore sets the scope's token back to what the RestoreToken captured.
// Restoring a zero token, or one whose scope is gone, is a no-op, and
// restoring twice is idempotent.
func (m *Manager) Restore(rt RestoreToken) {
	if !rt.valid || rt.scope == nil {
		return
	}
	rt.scope.setToken(rt.prev)
}

// Cleanup evicts every cache entry keyed under the scope's current token.
// The token itself is left unchanged, so the scope can keep resolving;
// it simply starts from an empty cache.
func (m *Manager) Cleanup(scope *ExecutionScope) int {
	token := scope.Token()
	if token == shared.EmptyToken {
		return 0
	}
	evicted := m.cache.EvictContext(ScopeInformantName, token)
	if evicted > 0 {
		m.log.Debug("scope cache evicted",
			logger.String("token", string(token)),
			logger.Int("entries", evicted),
		)
	}
	return evicted
}

// ThreadCleanup evicts every cache entry keyed under the given
// goroutine's identity token. Call it after the goroutine has finished
// (e.g. post-join via sync.WaitGroup); the manager cannot observe
// goroutine exit on its own.
func (m *Manager) ThreadCleanup(goroutineID uint64) int {
	return m.cache.EvictContext(GoroutineInformantName, GoroutineToken(goroutineID))
}

// Acquire runs fn under a scope derived per mode and guarantees exit-time
// cleanup on every path: the entered scope's cache entries are evicted
// and, where the mode replaced a token in place, the previous token is
// reinstated, even when fn returns an error or panics.
func (m *Manager) Acquire(ctx context.Context, mode AcquireMode, fn func(ctx context.Context) error) error {
	var scope *ExecutionScope
	var rt RestoreToken

	switch mode {
	case AcquireEmpty:
		scope = NewExecutionScope()
		rt = m.Freshen(scope)
		ctx = WithScope(ctx, scope)
	case AcquireSame:
		current, ok := ScopeFrom(ctx)
		if !ok {
			current = NewExecutionScope()
			ctx = WithScope(ctx, current)
		}
		scope = current
		rt = m.Freshen(scope)
	default: // AcquireCopy
		parent, ok := ScopeFrom(ctx)
		if !ok {
			parent = NewExecutionScope()
		}
		m.Touch(parent)
		scope = parent.child()
		rt = m.Freshen(scope)
		ctx = WithScope(ctx, scope)
	}

	defer func() {
		m.Cleanup(scope)
		m.Restore(rt)
	}()

	return fn(ctx)
}

// SweepExpired asks each informant that can report ended contexts for
// their tokens and evicts everything cached under them. Returns the
// number of entries evicted.
func (m *Manager) SweepExpired(informants []shared.ContextInformant) int {
	evicted := 0
	for _, informant := range informants {
		reporter, ok := informant.(shared.ExpiryReporter)
		if !ok {
			continue
		}
		for _, token := range reporter.ExpiredContexts() {
			evicted += m.cache.EvictContext(informant.Name(), token)
		}
	}
	return evicted
}

func newToken() shared.Token {
	return shared.Token(uuid.NewString())
}
