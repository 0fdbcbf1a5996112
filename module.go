package ioc

// Installer groups related registrations into a reusable unit.
//
// Example:
//
//	type DatabaseInstaller struct {
//	    DSN string
//	}
//
//	func (i DatabaseInstaller) Install(r ioc.Registrar) error {
//	    return ioc.RegisterSingleton(r, func(ioc.Resolver) (*sql.DB, error) {
//	        return sql.Open("postgres", i.DSN)
//	    })
//	}
type Installer interface {
	Install(r Registrar) error
}

// InstallerFunc adapts a function to the Installer interface.
type InstallerFunc func(r Registrar) error

// Install calls f(r).
func (f InstallerFunc) Install(r Registrar) error {
	return f(r)
}

// Empty is an installer that registers nothing. It stands in wherever an
// installer is required but no registrations are wanted.
var Empty Installer = emptyInstaller{}

type emptyInstaller struct{}

func (emptyInstaller) Install(Registrar) error { return nil }

// NewModule creates an installer that runs the given installers in order.
// Nil installers are skipped. The first failure stops the module and is
// returned wrapped in a ModuleError carrying the module name.
//
// Example:
//
//	var DatabaseModule = ioc.NewModule("database",
//	    ioc.AddSingleton(ioc.TypeKey[*sql.DB](), openDatabase),
//	    ioc.AddConstructor(NewUserRepository),
//	)
//
//	var AppModule = ioc.NewModule("app",
//	    DatabaseModule,
//	    logging.Installer(opts),
//	)
func NewModule(name string, installers ...Installer) Installer {
	return InstallerFunc(func(r Registrar) error {
		for _, installer := range installers {
			if installer == nil {
				continue
			}

			if err := installer.Install(r); err != nil {
				return ModuleError{Module: name, Cause: err}
			}
		}

		return nil
	})
}

// AddFactory creates an installer registering factory for key.
func AddFactory(key Key, factory Factory, opts ...RegisterOption) Installer {
	return InstallerFunc(func(r Registrar) error {
		return r.Register(key, factory, opts...)
	})
}

// AddSingleton creates an installer registering factory for key as a singleton.
func AddSingleton(key Key, factory Factory) Installer {
	return AddFactory(key, factory, AsSingleton())
}

// AddTransient creates an installer registering factory for key as transient.
func AddTransient(key Key, factory Factory) Installer {
	return AddFactory(key, factory, AsTransient())
}

// AddInstance creates an installer registering a pre-built value for key.
func AddInstance(key Key, instance any) Installer {
	return InstallerFunc(func(r Registrar) error {
		return r.RegisterInstance(key, instance)
	})
}

// AddConstructor creates an installer registering a constructor function
// with Provide.
func AddConstructor(constructor any, opts ...RegisterOption) Installer {
	return InstallerFunc(func(r Registrar) error {
		return Provide(r, constructor, opts...)
	})
}
