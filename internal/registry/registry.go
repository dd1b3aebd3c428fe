// Package registry holds the constructor registry: for every identifier,
// an ordered set of weighted constructor entries plus the identifier's
// declared scope policy. The effective constructor is the highest-weight
// entry, ties broken by most-recent registration, which is how libraries
// layer overrides on top of each other's integrations.
package registry

import (
	"fmt"
	"sync"

	"github.com/turnbullerin/autoinject/internal/errors"
	"github.com/turnbullerin/autoinject/internal/logger"
	"github.com/turnbullerin/autoinject/internal/shared"
)

// Entry is an immutable record pairing an identifier with a factory and a
// weight. Entries live for the injector lifetime and are never removed.
type Entry struct {
	Identifier shared.Identifier
	Factory    shared.Factory
	Weight     int

	// seq is the registration order, used to break weight ties in favor
	// of the most recent registration.
	seq uint64
}

// Seq returns the registration sequence number of the entry.
func (e *Entry) Seq() uint64 { return e.seq }

// options holds merged registration options.
type options struct {
	weight    int
	policy    shared.ScopePolicy
	policySet bool
}

// RegisterOption configures a single registration.
type RegisterOption func(*options)

// WithWeight sets the entry's weight. Higher weights win; the default is 0.
func WithWeight(weight int) RegisterOption {
	return func(o *options) { o.weight = weight }
}

// WithScopePolicy declares the identifier's scope policy. The policy is
// fixed per identifier: the first registration that declares one pins it,
// and later registrations may only repeat it or leave it unspecified.
func WithScopePolicy(policy shared.ScopePolicy) RegisterOption {
	return func(o *options) {
		o.policy = policy
		o.policySet = true
	}
}

// Registry maps identifiers to their constructor entries and scope
// policies. All methods are safe for concurrent use.
type Registry struct {
	entries  map[string][]*Entry
	policies map[string]shared.ScopePolicy
	seq      uint64
	mu       sync.RWMutex
	log      logger.Logger
}

// New creates an empty registry.
func New(log logger.Logger) *Registry {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &Registry{
		entries:  make(map[string][]*Entry),
		policies: make(map[string]shared.ScopePolicy),
		log:      log.Named("registry"),
	}
}

// Register adds a constructor entry for the identifier.
func (r *Registry) Register(id shared.Identifier, factory shared.Factory, opts ...RegisterOption) error {
	if id.IsZero() {
		return errors.ErrConfigurationError("identifier cannot be empty", nil)
	}
	if factory == nil {
		return errors.ErrConfigurationError(
			fmt.Sprintf("factory for '%s' cannot be nil", id), nil)
	}

	merged := options{policy: shared.ScopeContext}
	for _, opt := range opts {
		opt(&merged)
	}
	if !merged.policy.Valid() {
		return errors.ErrConfigurationError(
			fmt.Sprintf("invalid scope policy for '%s'", id), nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := id.Key()
	if declared, exists := r.policies[key]; exists {
		if merged.policySet && merged.policy != declared {
			return errors.ErrConfigurationError(
				fmt.Sprintf("identifier '%s' already declared with scope policy %s, cannot redeclare as %s",
					id, declared, merged.policy), nil)
		}
	} else {
		r.policies[key] = merged.policy
	}

	r.seq++
	entry := &Entry{
		Identifier: id,
		Factory:    factory,
		Weight:     merged.weight,
		seq:        r.seq,
	}
	r.entries[key] = append(r.entries[key], entry)

	r.log.Debug("constructor registered",
		logger.Stringer("identifier", id),
		logger.Int("weight", merged.weight),
		logger.Stringer("scope_policy", r.policies[key]),
		logger.Int("entries", len(r.entries[key])),
	)

	return nil
}

// Override registers a replacement constructor with a weight strictly
// higher than every existing entry for the identifier, so it becomes the
// effective one regardless of what was registered before.
func (r *Registry) Override(id shared.Identifier, factory shared.Factory) error {
	r.mu.RLock()
	weight := 0
	for _, e := range r.entries[id.Key()] {
		if e.Weight >= weight {
			weight = e.Weight + 1
		}
	}
	r.mu.RUnlock()

	return r.Register(id, factory, WithWeight(weight))
}

// Effective returns the winning entry for the identifier: highest weight,
// ties broken by most-recent registration.
func (r *Registry) Effective(id shared.Identifier) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.entries[id.Key()]
	if len(entries) == 0 {
		return nil, errors.ErrUnregisteredIdentifier(id.String())
	}

	best := entries[0]
	for _, e := range entries[1:] {
		if e.Weight > best.Weight || (e.Weight == best.Weight && e.seq > best.seq) {
			best = e
		}
	}
	return best, nil
}

// Policy returns the scope policy declared for the identifier.
func (r *Registry) Policy(id shared.Identifier) (shared.ScopePolicy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	policy, exists := r.policies[id.Key()]
	if !exists {
		return shared.ScopeContext, errors.ErrUnregisteredIdentifier(id.String())
	}
	return policy, nil
}

// IsRegistered reports whether the identifier has at least one entry.
func (r *Registry) IsRegistered(id shared.Identifier) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries[id.Key()]) > 0
}

// Identifiers returns every registered identifier.
func (r *Registry) Identifiers() []shared.Identifier {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]shared.Identifier, 0, len(r.entries))
	for key := range r.entries {
		ids = append(ids, shared.Named(key))
	}
	return ids
}
