package ioc

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ========================================
// Core Error Values (Sentinel Errors)
// ========================================
// These are base errors that are wrapped in typed errors when returned.
// Match them with errors.Is.

var (
	// Argument errors.
	ErrKeyNil       = errors.New("abstraction key cannot be nil")
	ErrFactoryNil   = errors.New("factory cannot be nil")
	ErrInstanceNil  = errors.New("instance cannot be nil")
	ErrResolverNil  = errors.New("resolver cannot be nil")
	ErrRegistrarNil = errors.New("registrar cannot be nil")

	// Resolution errors.
	ErrServiceNotFound    = errors.New("service not registered")
	ErrFactoryReturnedNil = errors.New("factory returned nil")

	// Lifecycle errors.
	ErrContainerClosed = errors.New("container has been closed")

	// Constructor errors.
	ErrConstructorNil                 = errors.New("constructor cannot be nil")
	ErrConstructorNotFunction         = errors.New("constructor must be a function")
	ErrConstructorNoReturn            = errors.New("constructor must return at least one value")
	ErrConstructorTooManyReturns      = errors.New("constructor must return at most 2 values")
	ErrConstructorInvalidSecondReturn = errors.New("constructor's second return value must be error")
	ErrConstructorVariadic            = errors.New("constructor cannot be variadic")
)

var (
	_ error = LifetimeError{}
	_ error = AlreadyRegisteredError{}
	_ error = ResolutionError{}
	_ error = ConstructionError{}
	_ error = RegistrationError{}
	_ error = ModuleError{}
	_ error = TypeMismatchError{}
	_ error = CircularDependencyError{}
	_ error = DisposalError{}
)

// ========================================
// Typed Errors for Rich Context
// ========================================

// LifetimeError indicates an invalid lifetime value.
type LifetimeError struct {
	Value any
}

func (e LifetimeError) Error() string {
	return fmt.Sprintf("invalid lifetime: %v", e.Value)
}

// AlreadyRegisteredError indicates a key already has a registration.
// Use Replace to override on purpose.
type AlreadyRegisteredError struct {
	Key Key
}

func (e AlreadyRegisteredError) Error() string {
	return fmt.Sprintf("service %s already registered (use Replace to override)", e.Key)
}

// ResolutionError reports that a key has no registration.
type ResolutionError struct {
	Key       Key
	Cause     error
	Available []Key // registered keys, used for suggestions
}

func (e ResolutionError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("service not registered: %s", e.Key))

	if e.Cause != nil && e.Cause != ErrServiceNotFound {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if similar := findSimilarKeys(e.Key, e.Available); len(similar) > 0 {
		b.WriteString("\n\nDid you mean one of these?\n")
		for _, k := range similar {
			b.WriteString(fmt.Sprintf("  • %s\n", k))
		}
	}

	return b.String()
}

func (e ResolutionError) Unwrap() error {
	return e.Cause
}

// findSimilarKeys finds registered keys whose names resemble the target.
func findSimilarKeys(target Key, available []Key) []Key {
	if target.IsZero() || len(available) == 0 {
		return nil
	}

	targetName := strings.ToLower(shortName(target))

	var similar []Key
	for _, k := range available {
		if k == target {
			continue
		}

		name := strings.ToLower(shortName(k))
		if name == "" {
			continue
		}

		// Same short name in another package, a named variant of the same
		// type, or one name containing the other.
		if name == targetName ||
			(k.Type != nil && k.Type == target.Type) ||
			strings.Contains(name, targetName) ||
			strings.Contains(targetName, name) {
			similar = append(similar, k)
		}

		if len(similar) >= 5 {
			break
		}
	}

	return similar
}

func shortName(k Key) string {
	if k.Type == nil {
		return k.Name
	}

	t := k.Type
	for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

// ConstructionError reports that a factory failed for Key.
// Either Cause is set (the factory returned an error) or Panic is set
// (the factory panicked; Stack holds the goroutine stack).
type ConstructionError struct {
	Key   Key
	Cause error
	Panic any
	Stack []byte
}

func (e ConstructionError) Error() string {
	if e.Panic != nil {
		var b strings.Builder
		b.WriteString(fmt.Sprintf("construction of %s failed: factory panicked: %v", e.Key, e.Panic))
		if len(e.Stack) > 0 {
			b.WriteString("\n\nStack trace:\n")
			b.Write(e.Stack)
		}
		return b.String()
	}

	return fmt.Sprintf("construction of %s failed: %v", e.Key, e.Cause)
}

func (e ConstructionError) Unwrap() error {
	return e.Cause
}

// RegistrationError wraps errors during registration.
type RegistrationError struct {
	Key       Key
	Operation string // "register", "register-instance", "replace", "provide"
	Cause     error
}

func (e RegistrationError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Key, e.Cause)
}

func (e RegistrationError) Unwrap() error {
	return e.Cause
}

// ModuleError wraps errors from a named installer module.
type ModuleError struct {
	Module string
	Cause  error
}

func (e ModuleError) Error() string {
	return fmt.Sprintf("module %q: %v", e.Module, e.Cause)
}

func (e ModuleError) Unwrap() error {
	return e.Cause
}

// TypeMismatchError indicates a resolved value does not have the requested type.
type TypeMismatchError struct {
	Key      Key
	Expected reflect.Type
	Actual   reflect.Type
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("type assertion for %s: expected %s, got %s", e.Key, formatType(e.Expected), formatType(e.Actual))
}

// CircularDependencyError reports a factory that resolves its own key,
// directly or through other factories. Path starts and ends with the same key.
type CircularDependencyError struct {
	Path []Key
}

func (e CircularDependencyError) Error() string {
	var b strings.Builder
	b.WriteString("circular dependency detected:\n\n")

	for i, k := range e.Path {
		if i > 0 {
			b.WriteString("      ↓\n")
		}
		if i == len(e.Path)-1 && i > 0 {
			b.WriteString(fmt.Sprintf("    %s (cycle)\n", k))
			continue
		}
		b.WriteString(fmt.Sprintf("    %s\n", k))
	}

	b.WriteString("\nTo resolve this:\n")
	b.WriteString("  • Use an interface to break the dependency\n")
	b.WriteString("  • Resolve lazily inside the service instead of in its factory\n")
	b.WriteString("  • Restructure to remove the circular relationship\n")

	return b.String()
}

// DisposalError aggregates failures from Close.
type DisposalError struct {
	Errors []error
}

func (e DisposalError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("container disposal failed: %v", e.Errors[0])
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("container disposal failed with %d errors:", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("\n  %d. %v", i+1, err))
	}
	return sb.String()
}

func (e DisposalError) Unwrap() []error {
	return e.Errors
}

// IsNotFound reports whether err says the requested key has no registration.
// A missing dependency of a registered factory is a construction failure of
// that factory, not a not-found of the requested key.
func IsNotFound(err error) bool {
	for err != nil {
		switch err.(type) {
		case ConstructionError:
			return false
		case ResolutionError:
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsConstruction reports whether err is, or wraps, a factory failure.
func IsConstruction(err error) bool {
	var ce ConstructionError
	return errors.As(err, &ce)
}

// IsCircular reports whether err is, or wraps, a circular dependency.
func IsCircular(err error) bool {
	var ce CircularDependencyError
	return errors.As(err, &ce)
}

// IsAlreadyRegistered reports whether err is, or wraps, a duplicate registration.
func IsAlreadyRegistered(err error) bool {
	var ae AlreadyRegisteredError
	return errors.As(err, &ae)
}
