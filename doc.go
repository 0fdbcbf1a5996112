// Package ioc provides a small dependency registration container.
//
// # Overview
//
// A Container maps abstraction keys to construction strategies:
//   - Transient: a factory invoked on every resolution
//   - Singleton: a factory invoked once, its result cached
//   - Instance: a value built by the caller
//
// Installers group registrations into reusable units that can be composed
// with NewModule. Empty is the installer that registers nothing.
//
// # Basic Usage
//
//	c := ioc.New()
//	defer c.Close()
//
//	ioc.RegisterInstance[Clock](c, systemClock{})
//	ioc.RegisterSingleton(c, func(r ioc.Resolver) (*Logger, error) {
//	    return NewLogger(), nil
//	})
//
//	logger, err := ioc.Resolve[*Logger](c)
//
// # Keys
//
// A Key is a type identity (TypeKey), a named variant of a type (NamedKey) or
// a bare string contract (ContractKey):
//
//	c.Register(ioc.ContractKey("clock"), func(ioc.Resolver) (any, error) {
//	    return systemClock{}, nil
//	})
//
//	clock, err := ioc.ResolveKey[Clock](c, ioc.ContractKey("clock"))
//
// # Constructor Injection
//
// Provide registers a constructor whose parameters are resolved by type:
//
//	func NewUserService(repo UserRepository, logger *Logger) *UserService
//
//	ioc.Provide(c, NewUserService, ioc.AsSingleton())
//
// Bind maps an abstraction onto a registered concrete type:
//
//	ioc.Bind[UserRepository, *SQLUserRepository](c)
//
// # Installers
//
//	var DataModule = ioc.NewModule("data",
//	    ioc.AddConstructor(NewSQLUserRepository, ioc.AsSingleton()),
//	    ioc.AddConstructor(NewUserService),
//	)
//
//	c, err := ioc.Build(DataModule, ioc.Empty)
//
// # Registration Policy
//
// Registering a key twice fails with AlreadyRegisteredError. Replace and
// ReplaceInstance override a registration on purpose.
//
// # Error Handling
//
// Errors surface at the call that triggered them:
//   - ErrKeyNil, ErrFactoryNil, ErrInstanceNil: invalid arguments
//   - ResolutionError: the key is not registered (IsNotFound)
//   - ConstructionError: the factory failed, returned nil or panicked (IsConstruction)
//   - CircularDependencyError: a factory resolved its own key (IsCircular)
//   - AlreadyRegisteredError: duplicate registration (IsAlreadyRegistered)
//
// The container never logs and never retries.
//
// # Thread Safety
//
// Registration is meant to finish before concurrent resolution starts.
// The registration map is guarded, so concurrent Resolve calls are safe.
package ioc
