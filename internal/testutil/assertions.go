package testutil

import (
	"testing"

	"github.com/junioryono/ioc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertServiceResolvable checks if a service can be resolved
func AssertServiceResolvable[T any](t *testing.T, r ioc.Resolver) T {
	t.Helper()
	service, err := ioc.Resolve[T](r)
	require.NoError(t, err, "failed to resolve service of type %T", *new(T))
	require.NotNil(t, service, "resolved service is nil")
	return service
}

// AssertNamedServiceResolvable checks if a named service can be resolved
func AssertNamedServiceResolvable[T any](t *testing.T, r ioc.Resolver, name string) T {
	t.Helper()
	service, err := ioc.ResolveNamed[T](r, name)
	require.NoError(t, err, "failed to resolve service of type %T named %q", *new(T), name)
	require.NotNil(t, service, "resolved named service is nil")
	return service
}

// AssertServiceNotFound checks if a service resolution fails with a not registered error
func AssertServiceNotFound[T any](t *testing.T, r ioc.Resolver) {
	t.Helper()
	service, err := ioc.Resolve[T](r)
	assert.Error(t, err)
	assert.True(t, ioc.IsNotFound(err), "expected service not registered error, got: %v", err)
	assert.Zero(t, service)
}

// AssertSameInstance verifies two services are the same instance
func AssertSameInstance(t *testing.T, expected, actual any, msgAndArgs ...any) {
	t.Helper()
	assert.Same(t, expected, actual, msgAndArgs...)
}

// AssertDifferentInstances verifies two services are different instances
func AssertDifferentInstances(t *testing.T, first, second any, msgAndArgs ...any) {
	t.Helper()
	assert.NotSame(t, first, second, msgAndArgs...)
}

// AssertContainerClosed checks that a closed container refuses work
func AssertContainerClosed(t *testing.T, c *ioc.Container) {
	t.Helper()
	assert.True(t, c.IsClosed(), "container should be closed")

	_, err := c.Resolve(ioc.ContractKey("anything"))
	assert.ErrorIs(t, err, ioc.ErrContainerClosed)

	err = c.RegisterInstance(ioc.ContractKey("anything"), 1)
	assert.ErrorIs(t, err, ioc.ErrContainerClosed)
}
