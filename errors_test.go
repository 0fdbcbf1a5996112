package ioc

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errorsTestService struct{}

type errorsTestServiceFactory struct{}

type errorsTestOther struct{}

func TestSentinelErrors(t *testing.T) {
	sentinelErrors := []struct {
		err     error
		message string
	}{
		{ErrKeyNil, "abstraction key cannot be nil"},
		{ErrFactoryNil, "factory cannot be nil"},
		{ErrInstanceNil, "instance cannot be nil"},
		{ErrResolverNil, "resolver cannot be nil"},
		{ErrRegistrarNil, "registrar cannot be nil"},
		{ErrServiceNotFound, "service not registered"},
		{ErrFactoryReturnedNil, "factory returned nil"},
		{ErrContainerClosed, "container has been closed"},
		{ErrConstructorNil, "constructor cannot be nil"},
		{ErrConstructorNotFunction, "constructor must be a function"},
		{ErrConstructorNoReturn, "constructor must return at least one value"},
		{ErrConstructorTooManyReturns, "constructor must return at most 2 values"},
		{ErrConstructorInvalidSecondReturn, "constructor's second return value must be error"},
		{ErrConstructorVariadic, "constructor cannot be variadic"},
		{ErrDigContainerNil, "dig container cannot be nil"},
	}

	for _, tt := range sentinelErrors {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.message, tt.err.Error())
		})
	}
}

func TestLifetimeError(t *testing.T) {
	assert.Equal(t, "invalid lifetime: forever", LifetimeError{Value: "forever"}.Error())
	assert.Equal(t, "invalid lifetime: Instance", LifetimeError{Value: Instance}.Error())
}

func TestAlreadyRegisteredError(t *testing.T) {
	err := AlreadyRegisteredError{Key: ContractKey("clock")}

	assert.Equal(t, `service "clock" already registered (use Replace to override)`, err.Error())
	assert.True(t, IsAlreadyRegistered(fmt.Errorf("install: %w", err)))
	assert.False(t, IsAlreadyRegistered(ErrKeyNil))
}

func TestResolutionError(t *testing.T) {
	t.Run("plain message", func(t *testing.T) {
		err := ResolutionError{Key: TypeKey[*errorsTestService](), Cause: ErrServiceNotFound}

		assert.Equal(t, "service not registered: *errorsTestService", err.Error())
		assert.ErrorIs(t, err, ErrServiceNotFound)
	})

	t.Run("suggests similar keys", func(t *testing.T) {
		err := ResolutionError{
			Key:   TypeKey[*errorsTestService](),
			Cause: ErrServiceNotFound,
			Available: []Key{
				TypeKey[*errorsTestServiceFactory](),
				NamedKey[*errorsTestService]("primary"),
				TypeKey[*errorsTestOther](),
			},
		}

		msg := err.Error()
		assert.Contains(t, msg, "Did you mean one of these?")
		assert.Contains(t, msg, "*errorsTestServiceFactory")
		assert.Contains(t, msg, "*errorsTestService[primary]")
		assert.NotContains(t, msg, "errorsTestOther")
	})

	t.Run("suggestions are capped", func(t *testing.T) {
		available := make([]Key, 10)
		for i := range available {
			available[i] = ContractKey(fmt.Sprintf("clock%d", i))
		}

		similar := findSimilarKeys(ContractKey("clock"), available)
		assert.Len(t, similar, 5)
	})
}

func TestConstructionError(t *testing.T) {
	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("dial failed")
		err := ConstructionError{Key: ContractKey("db"), Cause: cause}

		assert.Equal(t, `construction of "db" failed: dial failed`, err.Error())
		assert.ErrorIs(t, err, cause)
		assert.True(t, IsConstruction(err))
	})

	t.Run("with panic", func(t *testing.T) {
		err := ConstructionError{Key: ContractKey("db"), Panic: "boom", Stack: []byte("goroutine 1")}

		assert.Contains(t, err.Error(), "factory panicked: boom")
		assert.Contains(t, err.Error(), "Stack trace:")
		assert.Nil(t, err.Unwrap())
	})
}

func TestRegistrationError(t *testing.T) {
	err := RegistrationError{Key: ContractKey("db"), Operation: "register", Cause: ErrFactoryNil}

	assert.Equal(t, `failed to register "db": factory cannot be nil`, err.Error())
	assert.ErrorIs(t, err, ErrFactoryNil)
}

func TestModuleError(t *testing.T) {
	cause := AlreadyRegisteredError{Key: ContractKey("db")}
	err := ModuleError{Module: "data", Cause: cause}

	assert.Contains(t, err.Error(), `module "data": `)
	assert.True(t, IsAlreadyRegistered(err))
}

func TestTypeMismatchError(t *testing.T) {
	err := TypeMismatchError{
		Key:      ContractKey("port"),
		Expected: reflect.TypeOf(""),
		Actual:   reflect.TypeOf(0),
	}

	assert.Equal(t, `type assertion for "port": expected string, got int`, err.Error())
}

func TestCircularDependencyError(t *testing.T) {
	a, b := ContractKey("a"), ContractKey("b")
	err := CircularDependencyError{Path: []Key{a, b, a}}

	msg := err.Error()
	assert.Contains(t, msg, "circular dependency detected")
	assert.Contains(t, msg, `"a" (cycle)`)
	assert.True(t, IsCircular(ConstructionError{Key: a, Cause: err}))
}

func TestDisposalError(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")

	t.Run("single error", func(t *testing.T) {
		err := DisposalError{Errors: []error{first}}
		assert.Equal(t, "container disposal failed: first", err.Error())
	})

	t.Run("multiple errors", func(t *testing.T) {
		err := DisposalError{Errors: []error{first, second}}

		assert.Contains(t, err.Error(), "failed with 2 errors")
		assert.Contains(t, err.Error(), "1. first")
		assert.Contains(t, err.Error(), "2. second")
		assert.ErrorIs(t, err, first)
		assert.ErrorIs(t, err, second)
	})
}

func TestIsNotFound(t *testing.T) {
	notFound := ResolutionError{Key: ContractKey("db"), Cause: ErrServiceNotFound}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"resolution error", notFound, true},
		{"wrapped resolution error", fmt.Errorf("startup: %w", notFound), true},
		{"missing dependency of a factory", ConstructionError{Key: ContractKey("svc"), Cause: notFound}, false},
		{"unrelated error", ErrKeyNil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsNotFound(tt.err))
		})
	}
}
