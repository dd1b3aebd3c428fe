package autoinject

import (
	"context"
	"fmt"
	"reflect"

	"github.com/turnbullerin/autoinject/internal/errors"
	"github.com/turnbullerin/autoinject/internal/shared"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// RegisterConstructor registers a plain constructor function for the
// identifier, building the factory by reflection. Parameters are filled
// in order: a context.Context parameter receives the resolution context,
// bound arguments are consumed positionally, and every remaining
// parameter is resolved from the injector by its type. The constructor
// must return the instance, optionally followed by an error.
//
// This is registration sugar over Register; core resolution semantics
// (weights, policies, caching) are identical.
func (inj *Injector) RegisterConstructor(id Identifier, constructor any, boundArgs ...any) error {
	factory, err := newConstructorFactory(id, constructor, boundArgs)
	if err != nil {
		return err
	}
	return inj.Register(id, factory)
}

// RegisterConstructorWith is RegisterConstructor with registration
// options (weight, scope policy).
func (inj *Injector) RegisterConstructorWith(id Identifier, constructor any, boundArgs []any, opts ...RegisterOption) error {
	factory, err := newConstructorFactory(id, constructor, boundArgs)
	if err != nil {
		return err
	}
	return inj.Register(id, factory, opts...)
}

func newConstructorFactory(id Identifier, constructor any, boundArgs []any) (Factory, error) {
	if constructor == nil {
		return nil, errors.ErrArgumentBindingError(id.String(),
			errors.New("constructor cannot be nil"))
	}

	fnType := reflect.TypeOf(constructor)
	if fnType.Kind() != reflect.Func {
		return nil, errors.ErrArgumentBindingError(id.String(),
			fmt.Errorf("constructor must be a function, got %T", constructor))
	}
	if fnType.IsVariadic() {
		return nil, errors.ErrArgumentBindingError(id.String(),
			errors.New("variadic constructors are not supported"))
	}
	numOut := fnType.NumOut()
	if numOut == 0 || numOut > 2 {
		return nil, errors.ErrArgumentBindingError(id.String(),
			fmt.Errorf("constructor must return the instance and an optional error, returns %d values", numOut))
	}
	if numOut == 2 && !fnType.Out(1).Implements(errorType) {
		return nil, errors.ErrArgumentBindingError(id.String(),
			errors.New("constructor's second return value must be an error"))
	}

	fnValue := reflect.ValueOf(constructor)

	return func(ctx context.Context, r shared.Resolver) (any, error) {
		params := make([]reflect.Value, fnType.NumIn())
		bound := boundArgs

		for i := 0; i < fnType.NumIn(); i++ {
			paramType := fnType.In(i)

			if paramType == contextType {
				params[i] = reflect.ValueOf(ctx)
				continue
			}

			// Bound arguments fill remaining parameters positionally.
			if len(bound) > 0 {
				arg := bound[0]
				bound = bound[1:]
				argValue := reflect.ValueOf(arg)
				if arg == nil {
					argValue = reflect.Zero(paramType)
				} else if !argValue.Type().AssignableTo(paramType) {
					return nil, errors.ErrArgumentBindingError(id.String(),
						fmt.Errorf("bound argument %d (%T) is not assignable to parameter %s", i, arg, paramType))
				}
				params[i] = argValue
				continue
			}

			// Everything else is resolved from the injector by type.
			dependency, err := r.Resolve(ctx, ForType(paramType))
			if err != nil {
				return nil, errors.ErrArgumentBindingError(id.String(),
					fmt.Errorf("cannot resolve parameter %d (%s): %w", i, paramType, err))
			}
			if dependency == nil {
				params[i] = reflect.Zero(paramType)
			} else {
				params[i] = reflect.ValueOf(dependency)
			}
		}

		if len(bound) > 0 {
			return nil, errors.ErrArgumentBindingError(id.String(),
				fmt.Errorf("%d extra bound arguments", len(bound)))
		}

		results := fnValue.Call(params)
		if numOut == 2 {
			if errValue := results[1].Interface(); errValue != nil {
				return nil, errValue.(error)
			}
		}
		return results[0].Interface(), nil
	}, nil
}
