package ioc_test

import (
	"bytes"
	"testing"

	"github.com/junioryono/ioc"
	"github.com/junioryono/ioc/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validateTestA struct{}
type validateTestB struct{}

func TestContainer_Validate(t *testing.T) {
	t.Run("complete graph is valid", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewContainerBuilder(t).
			WithCommonServices().
			WithConstructor(testutil.NewTestServiceWithDeps).
			Build()

		assert.NoError(t, c.Validate())
	})

	t.Run("reports missing dependencies", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewContainerBuilder(t).
			WithConstructor(testutil.NewTestLogger).
			WithConstructor(testutil.NewTestServiceWithDeps).
			Build()

		err := c.Validate()

		var validation ioc.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Len(t, validation.Errors, 2)
		assert.ErrorIs(t, err, ioc.ErrServiceNotFound)

		var missing ioc.MissingDependencyError
		require.ErrorAs(t, validation.Errors[0], &missing)
		assert.Equal(t, ioc.TypeKey[*testutil.TestService](), missing.Key)
		assert.Equal(t, ioc.TypeKey[testutil.TestDatabase](), missing.Dependency)
	})

	t.Run("dependencies on the parent count", func(t *testing.T) {
		t.Parallel()

		parent := testutil.NewContainerBuilder(t).WithCommonServices().Build()
		child := parent.Child()
		require.NoError(t, ioc.Provide(child, testutil.NewTestServiceWithDeps))

		assert.NoError(t, child.Validate())
	})

	t.Run("parent singleton cannot depend on a child registration", func(t *testing.T) {
		t.Parallel()

		parent := ioc.New()
		require.NoError(t, ioc.Provide(parent, func(*validateTestB) *validateTestA {
			return &validateTestA{}
		}, ioc.AsSingleton()))

		child := parent.Child()
		require.NoError(t, ioc.RegisterInstance(child, &validateTestB{}))

		err := child.Validate()

		var missing ioc.MissingDependencyError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, ioc.TypeKey[*validateTestA](), missing.Key)
		assert.Equal(t, ioc.TypeKey[*validateTestB](), missing.Dependency)

		_, err = ioc.Resolve[*validateTestA](child)
		assert.ErrorIs(t, err, ioc.ErrServiceNotFound)
	})

	t.Run("parent transient may depend on a child registration", func(t *testing.T) {
		t.Parallel()

		parent := ioc.New()
		require.NoError(t, ioc.Provide(parent, func(*validateTestB) *validateTestA {
			return &validateTestA{}
		}))

		child := parent.Child()
		require.NoError(t, ioc.RegisterInstance(child, &validateTestB{}))

		assert.NoError(t, child.Validate())
		_, err := ioc.Resolve[*validateTestA](child)
		assert.NoError(t, err)
	})

	t.Run("reports cycles between constructors", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewContainerBuilder(t).
			WithConstructor(func(*validateTestB) *validateTestA { return &validateTestA{} }).
			WithConstructor(func(*validateTestA) *validateTestB { return &validateTestB{} }).
			Build()

		err := c.Validate()

		assert.True(t, ioc.IsCircular(err))
		assert.Contains(t, err.Error(), "(cycle)")
	})
}

func TestContainer_WriteGraph(t *testing.T) {
	c := testutil.NewContainerBuilder(t).
		WithCommonServices().
		WithConstructor(testutil.NewTestServiceWithDeps).
		Build()

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, c.WriteGraph(&buf, false))

		assert.Contains(t, buf.String(), "Level 1:\n  *TestService\n    -> TestLogger\n")
	})

	t.Run("dot", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, c.WriteGraph(&buf, true))

		assert.Contains(t, buf.String(), `label="*TestService"`)
	})
}
