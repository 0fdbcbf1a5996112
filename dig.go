package ioc

import (
	"errors"

	"go.uber.org/dig"
)

// ErrDigContainerNil is returned by FromDig installers given a nil dig container.
var ErrDigContainerNil = errors.New("dig container cannot be nil")

// FromDig creates an installer that registers T with a factory extracting T
// from an existing dig container. Applications wired with dig can hand parts
// of their graph to code that resolves from a Container.
//
// dig caches what it constructs, so the default Transient lifetime still
// yields the same value on every resolution.
//
// Example:
//
//	dc := dig.New()
//	_ = dc.Provide(NewConfig)
//
//	c, err := ioc.Build(ioc.FromDig[*Config](dc))
func FromDig[T any](dc *dig.Container, opts ...RegisterOption) Installer {
	return InstallerFunc(func(r Registrar) error {
		if dc == nil {
			return RegistrationError{Key: TypeKey[T](), Operation: "register", Cause: ErrDigContainerNil}
		}

		return Register(r, func(Resolver) (T, error) {
			var out T
			err := dc.Invoke(func(v T) {
				out = v
			})
			return out, err
		}, opts...)
	})
}
