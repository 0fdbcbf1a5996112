package ioc

import (
	"reflect"
	"runtime/debug"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Resolver resolves abstraction keys. Both *Container and the resolver handed
// to factories implement it.
type Resolver interface {
	// Resolve returns the value registered for key.
	Resolve(key Key) (any, error)

	// Contains reports whether key can be resolved.
	Contains(key Key) bool
}

// Registrar records registrations. Installers receive a Registrar.
type Registrar interface {
	// Register records a factory for key. The key must not be registered yet.
	Register(key Key, factory Factory, opts ...RegisterOption) error

	// RegisterInstance records a pre-built value for key. The key must not be
	// registered yet.
	RegisterInstance(key Key, instance any) error

	// Replace records a factory for key, overriding an existing registration.
	Replace(key Key, factory Factory, opts ...RegisterOption) error

	// ReplaceInstance records a value for key, overriding an existing registration.
	ReplaceInstance(key Key, instance any) error

	// Contains reports whether key can be resolved.
	Contains(key Key) bool
}

var (
	_ Resolver  = (*Container)(nil)
	_ Registrar = (*Container)(nil)
	_ Resolver  = (*resolution)(nil)
)

// Container maps abstraction keys to construction strategies.
//
// Registration is expected to finish before concurrent resolution starts,
// but the registration map is guarded, so mixing the two does not corrupt
// the container. Singletons are constructed outside any lock: when goroutines
// race on the first resolution of a singleton each may run the factory, one
// value is kept and the others are closed if they are Disposable.
//
// Example:
//
//	c := ioc.New()
//	defer c.Close()
//
//	ioc.RegisterSingleton(c, func(r ioc.Resolver) (*Logger, error) {
//	    return NewLogger(), nil
//	})
//
//	logger, err := ioc.Resolve[*Logger](c)
type Container struct {
	id     string
	parent *Container

	mu            sync.RWMutex
	registrations map[Key]*registration
	sequence      int

	singletons *instanceCache
	lifecycle  *lifecycleManager

	closed atomic.Bool
}

// New creates an empty container.
func New() *Container {
	return &Container{
		id:            uuid.NewString(),
		registrations: make(map[Key]*registration),
		singletons:    newInstanceCache(),
		lifecycle:     newLifecycleManager(),
	}
}

// Build creates a container and runs the installers against it.
//
//	c, err := ioc.Build(DatabaseModule, logging.Installer(opts))
func Build(installers ...Installer) (*Container, error) {
	c := New()
	if err := c.Install(installers...); err != nil {
		return nil, err
	}
	return c, nil
}

// ID returns the unique identifier of the container.
func (c *Container) ID() string {
	return c.id
}

// Parent returns the container c was derived from, or nil for a root container.
func (c *Container) Parent() *Container {
	return c.parent
}

// Child creates an overlay container. Its own registrations shadow the
// parent's and lookups it cannot answer fall through to the parent.
// Singletons registered on the parent are built and cached by the parent.
// Closing the child does not close the parent.
func (c *Container) Child() *Container {
	child := New()
	child.parent = c
	return child
}

// Register records a factory for key with the Transient lifetime unless an
// option says otherwise. A second registration for the same key fails with
// AlreadyRegisteredError.
func (c *Container) Register(key Key, factory Factory, opts ...RegisterOption) error {
	reg, err := newFactoryRegistration("register", key, factory, opts)
	if err != nil {
		return err
	}
	return c.add("register", reg, false)
}

// RegisterInstance records a pre-built value for key. The value must be
// assignable to key.Type when the key names a type.
func (c *Container) RegisterInstance(key Key, instance any) error {
	reg, err := newInstanceRegistration("register-instance", key, instance)
	if err != nil {
		return err
	}
	return c.add("register-instance", reg, false)
}

// Replace records a factory for key, overriding any registration this
// container already holds for it. A cached singleton of the overridden
// registration is no longer served; it is still closed with the container.
func (c *Container) Replace(key Key, factory Factory, opts ...RegisterOption) error {
	reg, err := newFactoryRegistration("replace", key, factory, opts)
	if err != nil {
		return err
	}
	return c.add("replace", reg, true)
}

// ReplaceInstance records a value for key, overriding any registration this
// container already holds for it.
func (c *Container) ReplaceInstance(key Key, instance any) error {
	reg, err := newInstanceRegistration("replace", key, instance)
	if err != nil {
		return err
	}
	return c.add("replace", reg, true)
}

func newFactoryRegistration(op string, key Key, factory Factory, opts []RegisterOption) (*registration, error) {
	if key.IsZero() {
		return nil, RegistrationError{Key: key, Operation: op, Cause: ErrKeyNil}
	}

	if factory == nil {
		return nil, RegistrationError{Key: key, Operation: op, Cause: ErrFactoryNil}
	}

	options, err := newRegisterOptions(opts)
	if err != nil {
		return nil, RegistrationError{Key: key, Operation: op, Cause: err}
	}

	return &registration{
		key:      key,
		lifetime: options.lifetime,
		factory:  factory,
		implType: options.implType,
		deps:     options.deps,
	}, nil
}

func newInstanceRegistration(op string, key Key, instance any) (*registration, error) {
	if key.IsZero() {
		return nil, RegistrationError{Key: key, Operation: op, Cause: ErrKeyNil}
	}

	if isNil(instance) {
		return nil, RegistrationError{Key: key, Operation: op, Cause: ErrInstanceNil}
	}

	implType := reflect.TypeOf(instance)
	if key.Type != nil && !implType.AssignableTo(key.Type) {
		return nil, RegistrationError{
			Key:       key,
			Operation: op,
			Cause:     TypeMismatchError{Key: key, Expected: key.Type, Actual: implType},
		}
	}

	return &registration{
		key:      key,
		lifetime: Instance,
		instance: instance,
		implType: implType,
	}, nil
}

func (c *Container) add(op string, reg *registration, replace bool) error {
	if c.closed.Load() {
		return RegistrationError{Key: reg.key, Operation: op, Cause: ErrContainerClosed}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	existing, exists := c.registrations[reg.key]
	if exists && !replace {
		return AlreadyRegisteredError{Key: reg.key}
	}

	if exists {
		c.singletons.delete(existing)
	}

	c.sequence++
	reg.order = c.sequence
	c.registrations[reg.key] = reg

	return nil
}

// Remove deletes the registration for key held by this container and
// reports whether one existed.
func (c *Container) Remove(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	reg, ok := c.registrations[key]
	if !ok {
		return false
	}

	c.singletons.delete(reg)
	delete(c.registrations, key)
	return true
}

// Install runs the installers against c in order and stops at the first error.
// Nil installers are skipped.
func (c *Container) Install(installers ...Installer) error {
	for _, installer := range installers {
		if installer == nil {
			continue
		}

		if err := installer.Install(c); err != nil {
			return err
		}
	}

	return nil
}

// Contains reports whether key is registered on c or one of its parents.
func (c *Container) Contains(key Key) bool {
	_, reg := c.lookup(key)
	return reg != nil
}

// Count returns the number of registrations held by c itself.
func (c *Container) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.registrations)
}

// Keys returns the keys registered on c itself, in registration order.
func (c *Container) Keys() []Key {
	descriptors := c.Descriptors()
	keys := make([]Key, len(descriptors))
	for i, d := range descriptors {
		keys[i] = d.Key
	}
	return keys
}

// Descriptors returns the registrations held by c itself, in registration order.
func (c *Container) Descriptors() []Descriptor {
	c.mu.RLock()
	descriptors := make([]Descriptor, 0, len(c.registrations))
	for _, reg := range c.registrations {
		descriptors = append(descriptors, reg.descriptor())
	}
	c.mu.RUnlock()

	sort.Slice(descriptors, func(i, j int) bool {
		return descriptors[i].Order < descriptors[j].Order
	})
	return descriptors
}

// Resolve returns the value registered for key.
//
// Transient factories run on every call, Singleton factories run once and
// Instance registrations return the stored value. An unregistered key fails
// with a ResolutionError (IsNotFound); a failing, nil-returning or panicking
// factory fails with a ConstructionError; a factory that resolves its own
// key through the Resolver it was given fails with a
// CircularDependencyError. Calling Resolve on a captured Container from
// inside a factory starts a new resolution path that cycle detection
// cannot see.
func (c *Container) Resolve(key Key) (any, error) {
	return c.resolve(key, nil)
}

// Close disposes the singletons c constructed, most recent first, and makes
// further registration and resolution fail with ErrContainerClosed.
// Closing twice is a no-op.
func (c *Container) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	err := c.lifecycle.dispose()
	c.singletons.clear()
	return err
}

// IsClosed reports whether Close has been called.
func (c *Container) IsClosed() bool {
	return c.closed.Load()
}

func (c *Container) resolve(key Key, path []Key) (any, error) {
	if key.IsZero() {
		return nil, ErrKeyNil
	}

	if c.closed.Load() {
		return nil, ErrContainerClosed
	}

	if slices.Contains(path, key) {
		cycle := append(slices.Clone(path[slices.Index(path, key):]), key)
		return nil, CircularDependencyError{Path: cycle}
	}

	owner, reg := c.lookup(key)
	if reg == nil {
		return nil, ResolutionError{
			Key:       key,
			Cause:     ErrServiceNotFound,
			Available: c.allKeys(),
		}
	}

	switch reg.lifetime {
	case Instance:
		return reg.instance, nil
	case Singleton:
		if owner.closed.Load() {
			return nil, ErrContainerClosed
		}

		if instance, ok := owner.singletons.get(reg); ok {
			return instance, nil
		}

		// Singleton dependencies come from the owning container so a
		// singleton never captures a child's registrations.
		instance, err := owner.construct(reg, path)
		if err != nil {
			return nil, err
		}

		cached, stored := owner.singletons.setIfAbsent(reg, instance)
		if !stored {
			if d, ok := instance.(Disposable); ok {
				_ = d.Close()
			}
			return cached, nil
		}

		// Close may have run while the factory was executing. A value the
		// drained lifecycle refused is closed here; a tracked one is closed
		// by the Close in progress.
		if !owner.lifecycle.track(key, instance) {
			owner.singletons.delete(reg)
			if d, ok := instance.(Disposable); ok {
				_ = d.Close()
			}
			return nil, ErrContainerClosed
		}
		if owner.closed.Load() {
			owner.singletons.delete(reg)
			return nil, ErrContainerClosed
		}
		return cached, nil
	default:
		return c.construct(reg, path)
	}
}

// construct runs the factory of reg, resolving its dependencies through c.
func (c *Container) construct(reg *registration, path []Key) (instance any, err error) {
	res := &resolution{
		container: c,
		path:      append(slices.Clone(path), reg.key),
	}

	defer func() {
		if p := recover(); p != nil {
			instance = nil
			err = ConstructionError{Key: reg.key, Panic: p, Stack: debug.Stack()}
		}
	}()

	instance, err = reg.factory(res)
	if err != nil {
		return nil, ConstructionError{Key: reg.key, Cause: err}
	}

	if isNil(instance) {
		return nil, ConstructionError{Key: reg.key, Cause: ErrFactoryReturnedNil}
	}

	return instance, nil
}

// lookup finds the registration for key on c or its parents and returns the
// container that holds it.
func (c *Container) lookup(key Key) (*Container, *registration) {
	for current := c; current != nil; current = current.parent {
		current.mu.RLock()
		reg, ok := current.registrations[key]
		current.mu.RUnlock()

		if ok {
			return current, reg
		}
	}
	return nil, nil
}

// allKeys returns the keys visible from c, nearest container first.
func (c *Container) allKeys() []Key {
	var keys []Key
	for current := c; current != nil; current = current.parent {
		keys = append(keys, current.Keys()...)
	}
	return keys
}

// resolution is the Resolver handed to factories. It carries the keys being
// constructed on the current call chain.
type resolution struct {
	container *Container
	path      []Key
}

func (r *resolution) Resolve(key Key) (any, error) {
	return r.container.resolve(key, r.path)
}

func (r *resolution) Contains(key Key) bool {
	return r.container.Contains(key)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
