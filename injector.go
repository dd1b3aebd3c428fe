// Package autoinject is a dependency-resolution and lifecycle-management
// runtime. Call sites ask the injector for an instance by identifier; the
// injector consults its constructor registry for the effective (highest
// weight) constructor and the identifier's scope policy, derives the
// current composite scope key from every registered context informant,
// and then returns the cached instance for that key, constructing it
// first if needed.
//
// The injector is an explicit value with a defined lifecycle: construct
// one with New, share the reference, and call Shutdown when done. There
// is no implicit process-wide singleton.
package autoinject

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/turnbullerin/autoinject/internal/contexts"
	"github.com/turnbullerin/autoinject/internal/errors"
	"github.com/turnbullerin/autoinject/internal/logger"
	"github.com/turnbullerin/autoinject/internal/registry"
	"github.com/turnbullerin/autoinject/internal/scopecache"
	"github.com/turnbullerin/autoinject/internal/shared"
)

// Injector is the composition root: it owns the constructor registry, the
// scope caches, the context propagation manager, and the set of active
// informants. All methods are safe for concurrent use.
type Injector struct {
	id       string
	registry *registry.Registry
	cache    *scopecache.Cache
	manager  *contexts.Manager

	informants   []shared.ContextInformant
	informantsMu sync.RWMutex

	sweepInterval time.Duration
	lastSweep     time.Time
	sweepMu       sync.Mutex

	shutdownOnce sync.Once
	log          logger.Logger
}

// New creates an injector. By default it logs through the production zap
// logger, registers the goroutine informant and the execution-scope
// informant, sweeps expired contexts at most every 5 seconds, and
// registers itself as a GLOBAL-scoped injectable so components can
// receive the injector that built them.
func New(opts ...Option) *Injector {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	log := cfg.logger
	if log == nil {
		log = logger.NewLogger(cfg.Logging)
	}
	log = log.Named("autoinject")

	cache := scopecache.New(log)
	inj := &Injector{
		id:            uuid.NewString(),
		registry:      registry.New(log),
		cache:         cache,
		manager:       contexts.NewManager(cache, log),
		sweepInterval: cfg.SweepInterval,
		log:           log,
	}

	if !cfg.DisableGoroutineInformant {
		inj.RegisterInformant(contexts.NewGoroutineInformant())
	}
	inj.RegisterInformant(contexts.NewScopeInformant())
	for _, informant := range cfg.informants {
		inj.RegisterInformant(informant)
	}

	// The injector is itself injectable so constructors can pull further
	// collaborators without a package-level reference.
	_ = inj.registry.Register(For[*Injector](),
		func(context.Context, shared.Resolver) (any, error) { return inj, nil },
		registry.WithScopePolicy(shared.ScopeGlobal),
	)

	inj.log.Info("injector created",
		logger.String("injector_id", inj.id),
		logger.Duration("sweep_interval", inj.sweepInterval),
	)
	return inj
}

// ID returns the injector's unique id. Diagnostic only.
func (inj *Injector) ID() string { return inj.id }

// =============================================================================
// REGISTRATION SURFACE
// =============================================================================

// Register adds a constructor for the identifier. Registering an
// identifier that is already injectable flushes its cached instances, so
// overrides installed at runtime take effect on the next resolution.
func (inj *Injector) Register(id Identifier, factory Factory, opts ...RegisterOption) error {
	flush := inj.registry.IsRegistered(id)
	if err := inj.registry.Register(id, factory, opts...); err != nil {
		return err
	}
	if flush {
		inj.cache.EvictIdentifier(id)
	}
	return nil
}

// Override registers a replacement constructor with a weight higher than
// every existing entry for the identifier.
func (inj *Injector) Override(id Identifier, factory Factory) error {
	flush := inj.registry.IsRegistered(id)
	if err := inj.registry.Override(id, factory); err != nil {
		return err
	}
	if flush {
		inj.cache.EvictIdentifier(id)
	}
	return nil
}

// =============================================================================
// RESOLUTION SURFACE
// =============================================================================

// Resolve returns an instance for the identifier, constructing and
// caching it according to the identifier's scope policy. A failed
// construction is never cached; the next call retries it.
func (inj *Injector) Resolve(ctx context.Context, id Identifier) (any, error) {
	inj.maybeSweep()

	entry, err := inj.registry.Effective(id)
	if err != nil {
		return nil, err
	}
	policy, err := inj.registry.Policy(id)
	if err != nil {
		return nil, err
	}

	contextHash := inj.contextHash(ctx)
	instance, err := inj.cache.GetOrCreate(policy, id, contextHash, func() (any, error) {
		return entry.Factory(ctx, inj)
	})
	if err != nil {
		return nil, errors.ErrConstructionError(id.String(), contextHash, err)
	}
	return instance, nil
}

// Get is a convenience alias for Resolve with a background context, for
// call sites outside any managed call path. Context-scoped identifiers
// resolve under whatever the registered informants report for a bare
// background context (for the default informants, the calling goroutine).
func (inj *Injector) Get(id Identifier) (any, error) {
	return inj.Resolve(context.Background(), id)
}

// MustGet resolves or panics. Use only during startup wiring.
func (inj *Injector) MustGet(id Identifier) any {
	instance, err := inj.Get(id)
	if err != nil {
		panic("autoinject: " + err.Error())
	}
	return instance
}

// =============================================================================
// CONTEXT SURFACE
// =============================================================================

// RegisterInformant adds a context informant. Composite keys computed
// after registration include the new informant; entries cached under the
// old key shape stay valid until evicted.
func (inj *Injector) RegisterInformant(informant ContextInformant) {
	inj.informantsMu.Lock()
	defer inj.informantsMu.Unlock()
	inj.informants = append(inj.informants, informant)
}

// DeregisterInformant removes a previously registered informant. No-op if
// it was never registered.
func (inj *Injector) DeregisterInformant(informant ContextInformant) {
	inj.informantsMu.Lock()
	defer inj.informantsMu.Unlock()
	for i, existing := range inj.informants {
		if existing == informant {
			inj.informants = append(inj.informants[:i], inj.informants[i+1:]...)
			return
		}
	}
}

// Informants returns a snapshot of the active informants.
func (inj *Injector) Informants() []ContextInformant {
	inj.informantsMu.RLock()
	defer inj.informantsMu.RUnlock()
	snapshot := make([]ContextInformant, len(inj.informants))
	copy(snapshot, inj.informants)
	return snapshot
}

// contextHash assembles the composite key prefix from every active
// informant. Two executions are cache-siblings only if every informant
// reports the same token for both.
func (inj *Injector) contextHash(ctx context.Context) string {
	inj.informantsMu.RLock()
	defer inj.informantsMu.RUnlock()

	var b strings.Builder
	b.WriteString("base::")
	for _, informant := range inj.informants {
		b.WriteString(informant.Name())
		b.WriteByte(':')
		b.WriteString(string(informant.ContextID(ctx)))
		b.WriteString("::")
	}
	return b.String()
}

// maybeSweep evicts caches for contexts the informants report as ended,
// at most once per sweep interval.
func (inj *Injector) maybeSweep() {
	inj.sweepMu.Lock()
	if time.Since(inj.lastSweep) < inj.sweepInterval {
		inj.sweepMu.Unlock()
		return
	}
	inj.lastSweep = time.Now()
	inj.sweepMu.Unlock()

	inj.manager.SweepExpired(inj.Informants())
}

// =============================================================================
// COOPERATIVE-TASK SURFACE
// =============================================================================

// Touch ensures the execution scope in ctx has an identifying token,
// assigning one only if it is unset. Returns the scope's token, or the
// empty token when ctx carries no scope.
func (inj *Injector) Touch(ctx context.Context) Token {
	scope, _ := contexts.ScopeFrom(ctx)
	return inj.manager.Touch(scope)
}

// Freshen forces a new, distinct token onto the execution scope in ctx,
// severing cache-sharing with the scope's previous token. The returned
// RestoreToken reinstates the prior token.
func (inj *Injector) Freshen(ctx context.Context) RestoreToken {
	scope, _ := contexts.ScopeFrom(ctx)
	return inj.manager.Freshen(scope)
}

// Restore sets a scope's token back to what the RestoreToken captured.
// No-op for a zero token; idempotent when repeated.
func (inj *Injector) Restore(rt RestoreToken) {
	inj.manager.Restore(rt)
}

// CleanupScope evicts every cached instance keyed under the token of the
// execution scope in ctx. The token itself is unchanged.
func (inj *Injector) CleanupScope(ctx context.Context) int {
	scope, _ := contexts.ScopeFrom(ctx)
	if scope == nil {
		return 0
	}
	return inj.manager.Cleanup(scope)
}

// ThreadCleanup evicts every cached instance keyed under the given
// goroutine's identity. Call after the goroutine has finished; goroutine
// exit cannot be observed by the injector itself.
func (inj *Injector) ThreadCleanup(goroutineID uint64) int {
	return inj.manager.ThreadCleanup(goroutineID)
}

// Acquire runs fn under a scope derived per mode (copy, empty or same)
// and always evicts the entered scope's cache and restores any replaced
// token on exit, including error exits.
func (inj *Injector) Acquire(ctx context.Context, mode AcquireMode, fn func(ctx context.Context) error) error {
	return inj.manager.Acquire(ctx, mode, fn)
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Shutdown evicts every cached instance and invokes their Dispose hooks.
// It runs exactly once; later calls are no-ops. Resolutions arriving
// after shutdown transparently re-construct, but their instances are only
// cleaned up by a further explicit eviction.
func (inj *Injector) Shutdown() {
	inj.shutdownOnce.Do(func() {
		evicted := inj.cache.EvictAll()
		inj.log.Info("injector shut down",
			logger.String("injector_id", inj.id),
			logger.Int("instances_disposed", evicted),
		)
		_ = inj.log.Sync()
	})
}

// CacheStats reports current cache occupancy. Diagnostic only.
func (inj *Injector) CacheStats() scopecache.Stats {
	return inj.cache.GetStats()
}
