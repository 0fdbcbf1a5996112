package ioc

import (
	"fmt"
	"reflect"
)

// Register records a factory for the type T.
//
// Example:
//
//	err := ioc.Register(c, func(r ioc.Resolver) (*UserService, error) {
//	    repo, err := ioc.Resolve[UserRepository](r)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return NewUserService(repo), nil
//	})
func Register[T any](r Registrar, factory func(Resolver) (T, error), opts ...RegisterOption) error {
	return registerTyped(r, TypeKey[T](), factory, opts)
}

// RegisterNamed records a factory for a named variant of T.
func RegisterNamed[T any](r Registrar, name string, factory func(Resolver) (T, error), opts ...RegisterOption) error {
	return registerTyped(r, NamedKey[T](name), factory, opts)
}

// RegisterSingleton records a factory for T that runs once per container.
func RegisterSingleton[T any](r Registrar, factory func(Resolver) (T, error)) error {
	return registerTyped(r, TypeKey[T](), factory, []RegisterOption{AsSingleton()})
}

// RegisterInstance records a pre-built value for the type T.
//
//	ioc.RegisterInstance[Clock](c, realClock{})
func RegisterInstance[T any](r Registrar, instance T) error {
	if r == nil {
		return ErrRegistrarNil
	}
	return r.RegisterInstance(TypeKey[T](), instance)
}

func registerTyped[T any](r Registrar, key Key, factory func(Resolver) (T, error), opts []RegisterOption) error {
	if r == nil {
		return ErrRegistrarNil
	}

	if factory == nil {
		return RegistrationError{Key: key, Operation: "register", Cause: ErrFactoryNil}
	}

	options := make([]RegisterOption, 0, len(opts)+1)
	options = append(options, implTypeOption{t: typeOf[T]()})
	options = append(options, opts...)

	return r.Register(key, func(res Resolver) (any, error) {
		v, err := factory(res)
		if err != nil {
			return nil, err
		}
		return v, nil
	}, options...)
}

// Bind registers TAbstraction so that resolving it resolves TConcrete and
// returns that value as TAbstraction. TConcrete must be assignable to
// TAbstraction and must be registered by the time TAbstraction is resolved.
//
// Example:
//
//	ioc.RegisterSingleton(c, func(ioc.Resolver) (*PostgresStore, error) { ... })
//	ioc.Bind[Store, *PostgresStore](c)
func Bind[TAbstraction, TConcrete any](r Registrar) error {
	if r == nil {
		return ErrRegistrarNil
	}

	abstraction := TypeKey[TAbstraction]()
	concrete := TypeKey[TConcrete]()

	if !concrete.Type.AssignableTo(abstraction.Type) {
		return RegistrationError{
			Key:       abstraction,
			Operation: "bind",
			Cause:     TypeMismatchError{Key: abstraction, Expected: abstraction.Type, Actual: concrete.Type},
		}
	}

	return r.Register(abstraction, func(res Resolver) (any, error) {
		return res.Resolve(concrete)
	}, implTypeOption{t: concrete.Type}, dependenciesOption{concrete})
}

// Resolve resolves the type T.
//
// Example:
//
//	logger, err := ioc.Resolve[*Logger](c)
//	if err != nil {
//	    // Handle error
//	}
func Resolve[T any](r Resolver) (T, error) {
	return resolveTyped[T](r, TypeKey[T]())
}

// ResolveNamed resolves a named variant of T.
//
//	replica, err := ioc.ResolveNamed[*sql.DB](c, "replica")
func ResolveNamed[T any](r Resolver, name string) (T, error) {
	return resolveTyped[T](r, NamedKey[T](name))
}

// ResolveKey resolves key and asserts the result to T. It serves contract
// keys, whose values carry no type in the key.
func ResolveKey[T any](r Resolver, key Key) (T, error) {
	return resolveTyped[T](r, key)
}

// MustResolve resolves T and panics if it cannot. It is meant for
// application startup, where a missing service is fatal.
func MustResolve[T any](r Resolver) T {
	service, err := Resolve[T](r)
	if err != nil {
		panic(fmt.Sprintf("failed to resolve service: %v", err))
	}

	return service
}

// MustResolveNamed resolves a named variant of T and panics if it cannot.
func MustResolveNamed[T any](r Resolver, name string) T {
	service, err := ResolveNamed[T](r, name)
	if err != nil {
		panic(fmt.Sprintf("failed to resolve named service %q: %v", name, err))
	}

	return service
}

func resolveTyped[T any](r Resolver, key Key) (T, error) {
	var zero T

	if r == nil {
		return zero, ErrResolverNil
	}

	service, err := r.Resolve(key)
	if err != nil {
		return zero, err
	}

	result, ok := service.(T)
	if !ok {
		return zero, TypeMismatchError{
			Key:      key,
			Expected: typeOf[T](),
			Actual:   reflect.TypeOf(service),
		}
	}

	return result, nil
}
