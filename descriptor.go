package ioc

import (
	"reflect"
	"slices"
)

// Factory builds the value for a key. The Resolver it receives resolves the
// factory's own dependencies and tracks the resolution path, so a factory
// must use it rather than the Container it was registered on.
type Factory func(r Resolver) (any, error)

// Descriptor is a read-only view of one registration.
type Descriptor struct {
	// Key is the abstraction the registration answers for.
	Key Key

	// Lifetime is the construction strategy.
	Lifetime Lifetime

	// ImplementationType is the dynamic type of the instance for Instance
	// registrations, or the declared result type for typed, Bind and Provide
	// registrations. It is nil when not known before construction.
	ImplementationType reflect.Type

	// Dependencies lists the keys the factory is known to resolve. It is
	// filled for Provide and Bind registrations.
	Dependencies []Key

	// Order is the registration sequence number within its container.
	Order int
}

// registration is the container's internal record for a key.
type registration struct {
	key      Key
	lifetime Lifetime
	factory  Factory
	instance any
	implType reflect.Type
	deps     []Key
	order    int
}

func (r *registration) descriptor() Descriptor {
	return Descriptor{
		Key:                r.key,
		Lifetime:           r.lifetime,
		ImplementationType: r.implType,
		Dependencies:       slices.Clone(r.deps),
		Order:              r.order,
	}
}

// RegisterOption modifies a Register or Replace call.
type RegisterOption interface {
	applyRegisterOption(*registerOptions)
}

type registerOptions struct {
	lifetime Lifetime
	implType reflect.Type
	deps     []Key
}

func (o *registerOptions) Validate() error {
	if !o.lifetime.IsValid() || o.lifetime == Instance {
		return LifetimeError{Value: o.lifetime}
	}
	return nil
}

type lifetimeOption Lifetime

func (o lifetimeOption) applyRegisterOption(opts *registerOptions) {
	opts.lifetime = Lifetime(o)
}

// WithLifetime sets the lifetime of a factory registration.
// Only Transient and Singleton are valid; use RegisterInstance for values.
func WithLifetime(l Lifetime) RegisterOption {
	return lifetimeOption(l)
}

// AsSingleton makes the factory run once per container; later resolutions
// return the cached value.
func AsSingleton() RegisterOption {
	return lifetimeOption(Singleton)
}

// AsTransient makes the factory run on every resolution. It is the default.
func AsTransient() RegisterOption {
	return lifetimeOption(Transient)
}

type implTypeOption struct{ t reflect.Type }

func (o implTypeOption) applyRegisterOption(opts *registerOptions) {
	opts.implType = o.t
}

type dependenciesOption []Key

func (o dependenciesOption) applyRegisterOption(opts *registerOptions) {
	opts.deps = append(opts.deps, o...)
}

func newRegisterOptions(opts []RegisterOption) (*registerOptions, error) {
	options := &registerOptions{lifetime: Transient}
	for _, opt := range opts {
		if opt != nil {
			opt.applyRegisterOption(options)
		}
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}
	return options, nil
}
