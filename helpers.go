package autoinject

import (
	"context"
	"fmt"

	"github.com/turnbullerin/autoinject/internal/errors"
	"github.com/turnbullerin/autoinject/internal/shared"
)

// Resolve resolves an identifier with type safety.
func Resolve[T any](ctx context.Context, inj *Injector, id Identifier) (T, error) {
	var zero T
	instance, err := inj.Resolve(ctx, id)
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, errors.ErrTypeMismatch(id.String(), fmt.Sprintf("%T", zero))
	}
	return typed, nil
}

// ResolveFor resolves the identifier derived from T itself.
func ResolveFor[T any](ctx context.Context, inj *Injector) (T, error) {
	return Resolve[T](ctx, inj, For[T]())
}

// Must resolves or panics. Use only during startup wiring.
func Must[T any](ctx context.Context, inj *Injector, id Identifier) T {
	instance, err := Resolve[T](ctx, inj, id)
	if err != nil {
		panic(fmt.Sprintf("autoinject: failed to resolve %s: %v", id, err))
	}
	return instance
}

// RegisterValue registers a pre-built instance under a GLOBAL scope
// policy. The injector takes over the instance's Dispose lifecycle once
// it has been resolved at least once.
func RegisterValue[T any](inj *Injector, id Identifier, instance T) error {
	return inj.Register(id, func(context.Context, shared.Resolver) (any, error) {
		return instance, nil
	}, WithScopePolicy(ScopeGlobal))
}

// RegisterFunc registers a typed factory, keeping call sites free of the
// any-typed Factory signature.
func RegisterFunc[T any](inj *Injector, id Identifier, factory func(ctx context.Context, r Resolver) (T, error), opts ...RegisterOption) error {
	return inj.Register(id, func(ctx context.Context, r shared.Resolver) (any, error) {
		return factory(ctx, r)
	}, opts...)
}
