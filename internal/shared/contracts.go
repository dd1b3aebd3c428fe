package shared

import "context"

// Token identifies "which context" an execution unit is currently in.
// Tokens are opaque and compared by value; the empty token matches across
// all callers and means the informant has nothing to report.
type Token string

// EmptyToken is reported by informants that are not applicable in the
// current execution mode.
const EmptyToken Token = ""

// Resolver resolves an identifier into an instance. It is the narrow view
// of the injector that factories receive, so constructors can pull their
// own collaborators without importing the root package.
type Resolver interface {
	Resolve(ctx context.Context, id Identifier) (any, error)
}

// Factory creates an instance for an identifier.
type Factory func(ctx context.Context, r Resolver) (any, error)

// Disposable is an optional capability for constructed instances. When a
// cached instance implements it, Dispose is invoked exactly once: when its
// cache entry is evicted or at injector shutdown, whichever comes first.
// Instances built under ScopeNone are never cached, so the injector never
// calls Dispose on them.
type Disposable interface {
	Dispose() error
}

// ContextInformant supplies the current scope token. Multiple informants
// may be registered at once; the effective cache key is the composite of
// every informant's token, so two executions share CONTEXT-scoped
// instances only if every informant agrees they are in the same context.
type ContextInformant interface {
	// Name uniquely identifies this informant inside composite keys.
	Name() string

	// ContextID returns the token for the calling execution unit. It must
	// be safe to call from any goroutine and must not acquire locks that
	// could be held across an instance construction.
	ContextID(ctx context.Context) Token
}

// ExpiryReporter is an optional informant capability. Informants that can
// tell when a context has ended report the tokens of ended contexts here;
// the injector sweeps reporters periodically and evicts everything cached
// under the returned tokens. Each token should be reported once.
type ExpiryReporter interface {
	ExpiredContexts() []Token
}
