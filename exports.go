package autoinject

import (
	"github.com/turnbullerin/autoinject/internal/contexts"
	"github.com/turnbullerin/autoinject/internal/errors"
	"github.com/turnbullerin/autoinject/internal/logger"
	"github.com/turnbullerin/autoinject/internal/registry"
	"github.com/turnbullerin/autoinject/internal/shared"
)

// Identifier names an injectable, comparable by value.
type Identifier = shared.Identifier

// Named creates an identifier from a stable string name.
var Named = shared.Named

// ForType creates an identifier from a reflect.Type.
var ForType = shared.ForType

// For creates an identifier from a type.
func For[T any]() Identifier { return shared.For[T]() }

// Token identifies which context an execution unit is in.
type Token = shared.Token

// EmptyToken is the token informants report when not applicable.
const EmptyToken = shared.EmptyToken

// ScopePolicy is the caching discipline declared for an identifier.
type ScopePolicy = shared.ScopePolicy

const (
	// ScopeContext caches one instance per composite scope key (default).
	ScopeContext = shared.ScopeContext
	// ScopeGlobal caches one instance for the injector lifetime.
	ScopeGlobal = shared.ScopeGlobal
	// ScopeNone never caches.
	ScopeNone = shared.ScopeNone
)

// Resolver is the narrow injector view handed to factories.
type Resolver = shared.Resolver

// Factory creates an instance for an identifier.
type Factory = shared.Factory

// Disposable is the optional cleanup capability for cached instances.
type Disposable = shared.Disposable

// ContextInformant supplies the current scope token.
type ContextInformant = shared.ContextInformant

// ExpiryReporter is the optional informant capability for reporting ended
// contexts.
type ExpiryReporter = shared.ExpiryReporter

// RegisterOption configures a single registration.
type RegisterOption = registry.RegisterOption

// WithWeight sets a registration's weight; higher weights win.
var WithWeight = registry.WithWeight

// WithScopePolicy declares the identifier's scope policy.
var WithScopePolicy = registry.WithScopePolicy

// ExecutionScope identifies a cooperative execution unit.
type ExecutionScope = contexts.ExecutionScope

// NewExecutionScope creates a scope with no token and no parent.
var NewExecutionScope = contexts.NewExecutionScope

// WithScope attaches an ExecutionScope to a context.Context.
var WithScope = contexts.WithScope

// ScopeFrom extracts the ExecutionScope from a context.Context.
var ScopeFrom = contexts.ScopeFrom

// MustScope extracts the ExecutionScope or panics.
var MustScope = contexts.MustScope

// RestoreToken captures a scope token so Freshen can be undone.
type RestoreToken = contexts.RestoreToken

// AcquireMode selects how Acquire derives its scope.
type AcquireMode = contexts.AcquireMode

const (
	// AcquireCopy copies the parent scope, then freshens the copy.
	AcquireCopy = contexts.AcquireCopy
	// AcquireEmpty starts a brand-new scope.
	AcquireEmpty = contexts.AcquireEmpty
	// AcquireSame freshens the current scope in place.
	AcquireSame = contexts.AcquireSame
)

const (
	// GoroutineInformantName is the goroutine informant's key segment.
	GoroutineInformantName = contexts.GoroutineInformantName
	// NamedInformantName is the named informant's key segment.
	NamedInformantName = contexts.NamedInformantName
	// ScopeInformantName is the execution-scope informant's key segment.
	ScopeInformantName = contexts.ScopeInformantName
)

// GoroutineInformant keys contexts by calling goroutine.
type GoroutineInformant = contexts.GoroutineInformant

// NewGoroutineInformant creates the goroutine-identity informant.
var NewGoroutineInformant = contexts.NewGoroutineInformant

// NamedInformant keys contexts by a manually switched label.
type NamedInformant = contexts.NamedInformant

// NewNamedInformant creates a manual informant in the "_default" context.
var NewNamedInformant = contexts.NewNamedInformant

// ScopeInformant keys contexts by the ExecutionScope in the context.
type ScopeInformant = contexts.ScopeInformant

// NewScopeInformant creates the cooperative-task informant.
var NewScopeInformant = contexts.NewScopeInformant

// CurrentGoroutineID returns the runtime id of the calling goroutine, for
// use with ThreadCleanup.
var CurrentGoroutineID = contexts.CurrentGoroutineID

// Logger is the structured logging interface used by the injector.
type Logger = logger.Logger

// LoggingConfig configures logger construction.
type LoggingConfig = logger.LoggingConfig

// NewProductionLogger creates a JSON logger at info level.
var NewProductionLogger = logger.NewProductionLogger

// NewDevelopmentLogger creates a console logger at debug level.
var NewDevelopmentLogger = logger.NewDevelopmentLogger

// NewNoopLogger creates a logger that discards everything.
var NewNoopLogger = logger.NewNoopLogger

// InjectError is the structured error type returned by injector operations.
type InjectError = errors.InjectError

// Error predicates for the injection error taxonomy.
var (
	// IsConfigurationError checks for registration-time conflicts.
	IsConfigurationError = errors.IsConfigurationError
	// IsUnregisteredIdentifier checks for lookups of unknown identifiers.
	IsUnregisteredIdentifier = errors.IsUnregisteredIdentifier
	// IsConstructionError checks for wrapped factory failures.
	IsConstructionError = errors.IsConstructionError
	// IsCleanupError checks for Dispose failures reported during eviction.
	IsCleanupError = errors.IsCleanupError
	// IsTypeMismatch checks for typed resolutions with a wrong dynamic type.
	IsTypeMismatch = errors.IsTypeMismatch
)
