package ioc_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/junioryono/ioc"
	"github.com/junioryono/ioc/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainer_Creation(t *testing.T) {
	t.Run("creates empty container", func(t *testing.T) {
		t.Parallel()

		c := ioc.New()

		assert.NotNil(t, c)
		assert.NotEmpty(t, c.ID())
		assert.Equal(t, 0, c.Count())
		assert.Empty(t, c.Keys())
		assert.Nil(t, c.Parent())
		assert.False(t, c.IsClosed())
	})

	t.Run("containers have distinct ids", func(t *testing.T) {
		t.Parallel()

		assert.NotEqual(t, ioc.New().ID(), ioc.New().ID())
	})
}

func TestContainer_Register(t *testing.T) {
	loggerKey := ioc.TypeKey[testutil.TestLogger]()
	newLogger := func(ioc.Resolver) (any, error) { return testutil.NewTestLogger(), nil }

	tests := []struct {
		name     string
		setup    func(t *testing.T) *ioc.Container
		key      ioc.Key
		factory  ioc.Factory
		opts     []ioc.RegisterOption
		wantErr  error
		validate func(t *testing.T, c *ioc.Container)
	}{
		{
			name:    "registers transient factory",
			setup:   func(t *testing.T) *ioc.Container { return ioc.New() },
			key:     loggerKey,
			factory: newLogger,
			validate: func(t *testing.T, c *ioc.Container) {
				assert.Equal(t, 1, c.Count())
				assert.True(t, c.Contains(loggerKey))
				assert.Equal(t, ioc.Transient, c.Descriptors()[0].Lifetime)
			},
		},
		{
			name:    "registers singleton factory",
			setup:   func(t *testing.T) *ioc.Container { return ioc.New() },
			key:     loggerKey,
			factory: newLogger,
			opts:    []ioc.RegisterOption{ioc.AsSingleton()},
			validate: func(t *testing.T, c *ioc.Container) {
				assert.Equal(t, ioc.Singleton, c.Descriptors()[0].Lifetime)
			},
		},
		{
			name:    "registers contract key",
			setup:   func(t *testing.T) *ioc.Container { return ioc.New() },
			key:     ioc.ContractKey("logger"),
			factory: newLogger,
			validate: func(t *testing.T, c *ioc.Container) {
				assert.True(t, c.Contains(ioc.ContractKey("logger")))
				assert.False(t, c.Contains(loggerKey))
			},
		},
		{
			name:    "rejects zero key",
			setup:   func(t *testing.T) *ioc.Container { return ioc.New() },
			key:     ioc.Key{},
			factory: newLogger,
			wantErr: ioc.ErrKeyNil,
			validate: func(t *testing.T, c *ioc.Container) {
				assert.Equal(t, 0, c.Count())
			},
		},
		{
			name:    "rejects nil factory",
			setup:   func(t *testing.T) *ioc.Container { return ioc.New() },
			key:     loggerKey,
			factory: nil,
			wantErr: ioc.ErrFactoryNil,
			validate: func(t *testing.T, c *ioc.Container) {
				assert.Equal(t, 0, c.Count())
			},
		},
		{
			name:    "rejects instance lifetime for factories",
			setup:   func(t *testing.T) *ioc.Container { return ioc.New() },
			key:     loggerKey,
			factory: newLogger,
			opts:    []ioc.RegisterOption{ioc.WithLifetime(ioc.Instance)},
			wantErr: ioc.LifetimeError{Value: ioc.Instance},
			validate: func(t *testing.T, c *ioc.Container) {
				assert.Equal(t, 0, c.Count())
			},
		},
		{
			name: "rejects duplicate registration",
			setup: func(t *testing.T) *ioc.Container {
				c := ioc.New()
				require.NoError(t, c.Register(loggerKey, newLogger))
				return c
			},
			key:     loggerKey,
			factory: newLogger,
			wantErr: ioc.AlreadyRegisteredError{Key: loggerKey},
			validate: func(t *testing.T, c *ioc.Container) {
				assert.Equal(t, 1, c.Count())
			},
		},
		{
			name: "accepts named variants of the same type",
			setup: func(t *testing.T) *ioc.Container {
				c := ioc.New()
				require.NoError(t, c.Register(loggerKey, newLogger))
				return c
			},
			key:     ioc.NamedKey[testutil.TestLogger]("audit"),
			factory: newLogger,
			validate: func(t *testing.T, c *ioc.Container) {
				assert.Equal(t, 2, c.Count())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := tt.setup(t)
			err := c.Register(tt.key, tt.factory, tt.opts...)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			tt.validate(t, c)
		})
	}
}

func TestContainer_RegisterInstance(t *testing.T) {
	t.Run("resolves the stored instance", func(t *testing.T) {
		t.Parallel()

		c := ioc.New()
		logger := testutil.NewTestLogger()

		require.NoError(t, c.RegisterInstance(ioc.TypeKey[testutil.TestLogger](), logger))

		first, err := c.Resolve(ioc.TypeKey[testutil.TestLogger]())
		require.NoError(t, err)
		second, err := c.Resolve(ioc.TypeKey[testutil.TestLogger]())
		require.NoError(t, err)

		assert.Same(t, logger, first)
		assert.Same(t, logger, second)
		assert.Equal(t, ioc.Instance, c.Descriptors()[0].Lifetime)
	})

	t.Run("rejects nil instance", func(t *testing.T) {
		t.Parallel()

		c := ioc.New()
		var db *testutil.TestDatabaseImpl

		err := c.RegisterInstance(ioc.TypeKey[*testutil.TestDatabaseImpl](), db)

		assert.ErrorIs(t, err, ioc.ErrInstanceNil)
		assert.Equal(t, 0, c.Count())
	})

	t.Run("rejects instance of the wrong type", func(t *testing.T) {
		t.Parallel()

		c := ioc.New()

		err := c.RegisterInstance(ioc.TypeKey[testutil.TestLogger](), "not a logger")

		var mismatch ioc.TypeMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, ioc.TypeKey[testutil.TestLogger]().Type, mismatch.Expected)
	})

	t.Run("contract keys accept any value", func(t *testing.T) {
		t.Parallel()

		c := ioc.New()
		require.NoError(t, c.RegisterInstance(ioc.ContractKey("answer"), 42))

		v, err := c.Resolve(ioc.ContractKey("answer"))
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	})

	t.Run("duplicate of a factory registration fails", func(t *testing.T) {
		t.Parallel()

		c := ioc.New()
		key := ioc.ContractKey("answer")
		require.NoError(t, c.Register(key, func(ioc.Resolver) (any, error) { return 1, nil }))

		err := c.RegisterInstance(key, 2)
		assert.True(t, ioc.IsAlreadyRegistered(err))

		v, err := c.Resolve(key)
		require.NoError(t, err)
		assert.Equal(t, 1, v, "first registration is kept")
	})
}

func TestContainer_Resolve(t *testing.T) {
	t.Run("transient factory runs on every resolve", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		c := testutil.NewContainerBuilder(t).
			WithFactory(ioc.TypeKey[testutil.TestLogger](), func(ioc.Resolver) (any, error) {
				calls.Add(1)
				return testutil.NewTestLogger(), nil
			}).
			Build()

		first := testutil.AssertServiceResolvable[testutil.TestLogger](t, c)
		second := testutil.AssertServiceResolvable[testutil.TestLogger](t, c)

		testutil.AssertDifferentInstances(t, first, second)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("singleton factory runs once", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		c := testutil.NewContainerBuilder(t).
			WithFactory(ioc.TypeKey[testutil.TestLogger](), func(ioc.Resolver) (any, error) {
				calls.Add(1)
				return testutil.NewTestLogger(), nil
			}, ioc.AsSingleton()).
			Build()

		first := testutil.AssertServiceResolvable[testutil.TestLogger](t, c)
		second := testutil.AssertServiceResolvable[testutil.TestLogger](t, c)

		testutil.AssertSameInstance(t, first, second)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("unregistered key is not found", func(t *testing.T) {
		t.Parallel()

		c := ioc.New()

		v, err := c.Resolve(ioc.TypeKey[testutil.TestLogger]())

		assert.Nil(t, v)
		assert.True(t, ioc.IsNotFound(err))
		assert.ErrorIs(t, err, ioc.ErrServiceNotFound)
		testutil.AssertServiceNotFound[testutil.TestCache](t, c)
	})

	t.Run("zero key is an invalid argument", func(t *testing.T) {
		t.Parallel()

		_, err := ioc.New().Resolve(ioc.Key{})
		assert.ErrorIs(t, err, ioc.ErrKeyNil)
	})

	t.Run("not found error suggests similar keys", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewContainerBuilder(t).
			WithInstance(ioc.NamedKey[testutil.TestLogger]("audit"), testutil.NewTestLogger()).
			Build()

		_, err := c.Resolve(ioc.TypeKey[testutil.TestLogger]())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "Did you mean")
		assert.Contains(t, err.Error(), "TestLogger[audit]")
	})

	t.Run("factory error is a construction failure", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		c := testutil.NewContainerBuilder(t).
			WithFactory(ioc.ContractKey("broken"), func(ioc.Resolver) (any, error) {
				return nil, boom
			}).
			Build()

		_, err := c.Resolve(ioc.ContractKey("broken"))

		assert.True(t, ioc.IsConstruction(err))
		assert.False(t, ioc.IsNotFound(err))
		assert.ErrorIs(t, err, boom)
	})

	t.Run("factory panic is a construction failure", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewContainerBuilder(t).
			WithFactory(ioc.ContractKey("panics"), func(ioc.Resolver) (any, error) {
				panic("kaboom")
			}).
			Build()

		_, err := c.Resolve(ioc.ContractKey("panics"))

		var ce ioc.ConstructionError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "kaboom", ce.Panic)
		assert.NotEmpty(t, ce.Stack)
	})

	t.Run("nil result is a construction failure", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewContainerBuilder(t).
			WithFactory(ioc.ContractKey("nil"), func(ioc.Resolver) (any, error) {
				var db *testutil.TestDatabaseImpl
				return db, nil
			}).
			Build()

		_, err := c.Resolve(ioc.ContractKey("nil"))

		assert.ErrorIs(t, err, ioc.ErrFactoryReturnedNil)
	})

	t.Run("failed singleton construction is retried", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		c := testutil.NewContainerBuilder(t).
			WithFactory(ioc.ContractKey("flaky"), func(ioc.Resolver) (any, error) {
				if calls.Add(1) == 1 {
					return nil, errors.New("first attempt fails")
				}
				return "ok", nil
			}, ioc.AsSingleton()).
			Build()

		_, err := c.Resolve(ioc.ContractKey("flaky"))
		require.Error(t, err)

		v, err := c.Resolve(ioc.ContractKey("flaky"))
		require.NoError(t, err)
		assert.Equal(t, "ok", v)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("missing dependency is a construction failure of the dependent", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewContainerBuilder(t).
			WithConstructor(testutil.NewTestServiceWithDeps).
			Build()

		_, err := ioc.Resolve[*testutil.TestService](c)

		assert.True(t, ioc.IsConstruction(err))
		assert.False(t, ioc.IsNotFound(err))
		assert.ErrorIs(t, err, ioc.ErrServiceNotFound)
	})
}

func TestContainer_CircularDependency(t *testing.T) {
	t.Run("factory resolving its own key", func(t *testing.T) {
		t.Parallel()

		key := ioc.ContractKey("self")
		c := testutil.NewContainerBuilder(t).
			WithFactory(key, func(r ioc.Resolver) (any, error) {
				return r.Resolve(key)
			}).
			Build()

		_, err := c.Resolve(key)

		var cycle ioc.CircularDependencyError
		require.ErrorAs(t, err, &cycle)
		assert.Equal(t, []ioc.Key{key, key}, cycle.Path)
		assert.True(t, ioc.IsCircular(err))
	})

	t.Run("indirect cycle through another key", func(t *testing.T) {
		t.Parallel()

		a, b := ioc.ContractKey("a"), ioc.ContractKey("b")
		c := testutil.NewContainerBuilder(t).
			WithFactory(a, func(r ioc.Resolver) (any, error) { return r.Resolve(b) }, ioc.AsSingleton()).
			WithFactory(b, func(r ioc.Resolver) (any, error) { return r.Resolve(a) }).
			Build()

		_, err := c.Resolve(a)

		var cycle ioc.CircularDependencyError
		require.ErrorAs(t, err, &cycle)
		assert.Equal(t, []ioc.Key{a, b, a}, cycle.Path)
		assert.Contains(t, err.Error(), "(cycle)")
	})

	t.Run("diamond is not a cycle", func(t *testing.T) {
		t.Parallel()

		c := testutil.NewContainerBuilder(t).
			WithCommonServices().
			WithConstructor(testutil.NewTestServiceWithDeps).
			WithFactory(ioc.ContractKey("pair"), func(r ioc.Resolver) (any, error) {
				first, err := ioc.Resolve[*testutil.TestService](r)
				if err != nil {
					return nil, err
				}
				second, err := ioc.Resolve[*testutil.TestService](r)
				if err != nil {
					return nil, err
				}
				return []*testutil.TestService{first, second}, nil
			}).
			Build()

		v, err := c.Resolve(ioc.ContractKey("pair"))
		require.NoError(t, err)

		pair := v.([]*testutil.TestService)
		assert.Same(t, pair[0].Logger, pair[1].Logger)
	})
}

func TestContainer_Replace(t *testing.T) {
	t.Run("replace overrides and drops cached singleton", func(t *testing.T) {
		t.Parallel()

		key := ioc.ContractKey("value")
		c := testutil.NewContainerBuilder(t).
			WithFactory(key, func(ioc.Resolver) (any, error) { return "old", nil }, ioc.AsSingleton()).
			Build()

		v, err := c.Resolve(key)
		require.NoError(t, err)
		require.Equal(t, "old", v)

		require.NoError(t, c.Replace(key, func(ioc.Resolver) (any, error) { return "new", nil }, ioc.AsSingleton()))

		v, err = c.Resolve(key)
		require.NoError(t, err)
		assert.Equal(t, "new", v)
		assert.Equal(t, 1, c.Count())
	})

	t.Run("replace instance on unregistered key registers it", func(t *testing.T) {
		t.Parallel()

		c := ioc.New()
		require.NoError(t, c.ReplaceInstance(ioc.ContractKey("value"), 7))

		v, err := c.Resolve(ioc.ContractKey("value"))
		require.NoError(t, err)
		assert.Equal(t, 7, v)
	})

	t.Run("remove deletes the registration", func(t *testing.T) {
		t.Parallel()

		c := ioc.New()
		require.NoError(t, c.RegisterInstance(ioc.ContractKey("value"), 7))

		assert.True(t, c.Remove(ioc.ContractKey("value")))
		assert.False(t, c.Remove(ioc.ContractKey("value")))
		assert.False(t, c.Contains(ioc.ContractKey("value")))
	})
}

func TestContainer_Keys(t *testing.T) {
	t.Parallel()

	c := ioc.New()
	keys := []ioc.Key{
		ioc.ContractKey("c"),
		ioc.TypeKey[testutil.TestLogger](),
		ioc.ContractKey("a"),
		ioc.NamedKey[testutil.TestLogger]("b"),
	}
	for i, k := range keys {
		require.NoError(t, c.RegisterInstance(k, testutil.NewTestLogger()), "key %d", i)
	}

	assert.Equal(t, keys, c.Keys())

	descriptors := c.Descriptors()
	require.Len(t, descriptors, 4)
	for i, d := range descriptors {
		assert.Equal(t, keys[i], d.Key)
		assert.Equal(t, i+1, d.Order)
	}
}

func TestContainer_Child(t *testing.T) {
	t.Run("child falls back to parent", func(t *testing.T) {
		t.Parallel()

		parent := testutil.NewContainerBuilder(t).WithCommonServices().Build()
		child := parent.Child()
		defer child.Close()

		assert.Same(t, parent, child.Parent())
		assert.Equal(t, 0, child.Count())
		assert.True(t, child.Contains(ioc.TypeKey[testutil.TestLogger]()))

		fromChild := testutil.AssertServiceResolvable[testutil.TestLogger](t, child)
		fromParent := testutil.AssertServiceResolvable[testutil.TestLogger](t, parent)
		testutil.AssertSameInstance(t, fromParent, fromChild)
	})

	t.Run("child registrations shadow parent", func(t *testing.T) {
		t.Parallel()

		key := ioc.ContractKey("name")
		parent := testutil.NewContainerBuilder(t).WithInstance(key, "parent").Build()
		child := parent.Child()
		require.NoError(t, child.RegisterInstance(key, "child"))

		v, err := child.Resolve(key)
		require.NoError(t, err)
		assert.Equal(t, "child", v)

		v, err = parent.Resolve(key)
		require.NoError(t, err)
		assert.Equal(t, "parent", v)
	})

	t.Run("transient factories see child registrations", func(t *testing.T) {
		t.Parallel()

		parent := testutil.NewContainerBuilder(t).
			WithFactory(ioc.ContractKey("greeting"), func(r ioc.Resolver) (any, error) {
				name, err := ioc.ResolveKey[string](r, ioc.ContractKey("name"))
				if err != nil {
					return nil, err
				}
				return "hello " + name, nil
			}).
			Build()

		child := parent.Child()
		require.NoError(t, child.RegisterInstance(ioc.ContractKey("name"), "request"))

		v, err := child.Resolve(ioc.ContractKey("greeting"))
		require.NoError(t, err)
		assert.Equal(t, "hello request", v)

		_, err = parent.Resolve(ioc.ContractKey("greeting"))
		assert.True(t, ioc.IsConstruction(err))
	})

	t.Run("parent singletons do not capture child registrations", func(t *testing.T) {
		t.Parallel()

		parent := testutil.NewContainerBuilder(t).
			WithInstance(ioc.ContractKey("name"), "root").
			WithFactory(ioc.ContractKey("greeting"), func(r ioc.Resolver) (any, error) {
				name, err := ioc.ResolveKey[string](r, ioc.ContractKey("name"))
				if err != nil {
					return nil, err
				}
				return "hello " + name, nil
			}, ioc.AsSingleton()).
			Build()

		child := parent.Child()
		require.NoError(t, child.RegisterInstance(ioc.ContractKey("name"), "request"))

		v, err := child.Resolve(ioc.ContractKey("greeting"))
		require.NoError(t, err)
		assert.Equal(t, "hello root", v)
	})
}

func TestContainer_Close(t *testing.T) {
	t.Run("disposes constructed singletons in reverse order", func(t *testing.T) {
		t.Parallel()

		var order []string
		record := func(id string) { order = append(order, id) }

		c := ioc.New()
		require.NoError(t, c.Register(ioc.ContractKey("first"), func(ioc.Resolver) (any, error) {
			return testutil.NewTestDisposableRecording("first", record), nil
		}, ioc.AsSingleton()))
		require.NoError(t, c.Register(ioc.ContractKey("second"), func(ioc.Resolver) (any, error) {
			return testutil.NewTestDisposableRecording("second", record), nil
		}, ioc.AsSingleton()))

		_, err := c.Resolve(ioc.ContractKey("first"))
		require.NoError(t, err)
		_, err = c.Resolve(ioc.ContractKey("second"))
		require.NoError(t, err)

		require.NoError(t, c.Close())
		assert.Equal(t, []string{"second", "first"}, order)
		testutil.AssertContainerClosed(t, c)
	})

	t.Run("does not dispose instances or transients", func(t *testing.T) {
		t.Parallel()

		instance := testutil.NewTestDisposable()
		var transient *testutil.TestDisposable

		c := ioc.New()
		require.NoError(t, c.RegisterInstance(ioc.ContractKey("instance"), instance))
		require.NoError(t, c.Register(ioc.ContractKey("transient"), func(ioc.Resolver) (any, error) {
			transient = testutil.NewTestDisposable()
			return transient, nil
		}))

		_, err := c.Resolve(ioc.ContractKey("transient"))
		require.NoError(t, err)

		require.NoError(t, c.Close())
		assert.False(t, instance.IsDisposed())
		assert.False(t, transient.IsDisposed())
	})

	t.Run("aggregates disposal errors", func(t *testing.T) {
		t.Parallel()

		closeErr := errors.New("close failed")
		c := ioc.New()
		require.NoError(t, c.Register(ioc.TypeKey[testutil.TestDatabase](), func(ioc.Resolver) (any, error) {
			return testutil.NewTestDatabaseWithCloseError(closeErr), nil
		}, ioc.AsSingleton()))

		_, err := c.Resolve(ioc.TypeKey[testutil.TestDatabase]())
		require.NoError(t, err)

		err = c.Close()

		var disposal ioc.DisposalError
		require.ErrorAs(t, err, &disposal)
		assert.Len(t, disposal.Errors, 1)
		assert.ErrorIs(t, err, closeErr)
	})

	t.Run("close twice is a no-op", func(t *testing.T) {
		t.Parallel()

		c := ioc.New()
		require.NoError(t, c.Close())
		assert.NoError(t, c.Close())
	})

	t.Run("closing a child leaves the parent usable", func(t *testing.T) {
		t.Parallel()

		parent := testutil.NewContainerBuilder(t).WithCommonServices().Build()
		child := parent.Child()

		require.NoError(t, child.Close())

		testutil.AssertServiceResolvable[testutil.TestLogger](t, parent)
	})

	t.Run("singleton finished during close is disposed", func(t *testing.T) {
		t.Parallel()

		started := make(chan struct{})
		release := make(chan struct{})
		built := testutil.NewTestDisposable()

		c := ioc.New()
		require.NoError(t, c.Register(ioc.ContractKey("slow"), func(ioc.Resolver) (any, error) {
			close(started)
			<-release
			return built, nil
		}, ioc.AsSingleton()))

		type result struct {
			value any
			err   error
		}
		done := make(chan result, 1)
		go func() {
			v, err := c.Resolve(ioc.ContractKey("slow"))
			done <- result{value: v, err: err}
		}()

		<-started
		require.NoError(t, c.Close())
		close(release)

		res := <-done
		assert.Nil(t, res.value)
		assert.ErrorIs(t, res.err, ioc.ErrContainerClosed)
		assert.True(t, built.IsDisposed())

		_, err := c.Resolve(ioc.ContractKey("slow"))
		assert.ErrorIs(t, err, ioc.ErrContainerClosed)
	})
}

func TestContainer_ConcurrentResolve(t *testing.T) {
	t.Parallel()

	c := testutil.NewContainerBuilder(t).
		WithCommonServices().
		WithConstructor(testutil.NewTestServiceWithDeps).
		Build()

	const goroutines = 32

	var wg sync.WaitGroup
	loggers := make([]testutil.TestLogger, goroutines)
	errs := make([]error, goroutines)

	for i := range goroutines {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			svc, err := ioc.Resolve[*testutil.TestService](c)
			errs[i] = err
			if err == nil {
				loggers[i] = svc.Logger
			}
		}(i)
	}
	wg.Wait()

	for i := range goroutines {
		require.NoError(t, errs[i])
	}

	final := testutil.AssertServiceResolvable[testutil.TestLogger](t, c)
	for i := range goroutines {
		assert.NotNil(t, loggers[i])
	}
	assert.NotNil(t, final)
}
