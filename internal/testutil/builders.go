package testutil

import (
	"testing"

	"github.com/junioryono/ioc"
	"github.com/stretchr/testify/require"
)

// ContainerBuilder provides a fluent interface for building test containers
type ContainerBuilder struct {
	t         *testing.T
	container *ioc.Container
}

// NewContainerBuilder creates a new ContainerBuilder. The built container is
// closed when the test ends.
func NewContainerBuilder(t *testing.T) *ContainerBuilder {
	c := ioc.New()
	t.Cleanup(func() { _ = c.Close() })

	return &ContainerBuilder{
		t:         t,
		container: c,
	}
}

// WithFactory registers a factory for key
func (b *ContainerBuilder) WithFactory(key ioc.Key, factory ioc.Factory, opts ...ioc.RegisterOption) *ContainerBuilder {
	require.NoError(b.t, b.container.Register(key, factory, opts...))
	return b
}

// WithInstance registers a pre-built value for key
func (b *ContainerBuilder) WithInstance(key ioc.Key, instance any) *ContainerBuilder {
	require.NoError(b.t, b.container.RegisterInstance(key, instance))
	return b
}

// WithConstructor registers a constructor function
func (b *ContainerBuilder) WithConstructor(constructor any, opts ...ioc.RegisterOption) *ContainerBuilder {
	require.NoError(b.t, ioc.Provide(b.container, constructor, opts...))
	return b
}

// WithInstaller runs an installer against the container
func (b *ContainerBuilder) WithInstaller(installer ioc.Installer) *ContainerBuilder {
	require.NoError(b.t, b.container.Install(installer))
	return b
}

// WithCommonServices registers the logger, database and cache fixtures as singletons
func (b *ContainerBuilder) WithCommonServices() *ContainerBuilder {
	return b.
		WithConstructor(NewTestLogger, ioc.AsSingleton()).
		WithConstructor(NewTestDatabase, ioc.AsSingleton()).
		WithConstructor(NewTestCache, ioc.AsSingleton())
}

// Build returns the container
func (b *ContainerBuilder) Build() *ioc.Container {
	return b.container
}
