package logging

import (
	"log/slog"

	"github.com/junioryono/ioc"
)

// Installer registers a *Setup singleton built from opts and a *slog.Logger
// resolved from it. Closing the container closes the Setup.
func Installer(opts Options, options ...Option) ioc.Installer {
	return ioc.NewModule("logging",
		ioc.InstallerFunc(func(r ioc.Registrar) error {
			return ioc.RegisterSingleton(r, func(ioc.Resolver) (*Setup, error) {
				return Configure(opts, options...)
			})
		}),
		ioc.InstallerFunc(func(r ioc.Registrar) error {
			return ioc.RegisterSingleton(r, func(res ioc.Resolver) (*slog.Logger, error) {
				setup, err := ioc.Resolve[*Setup](res)
				if err != nil {
					return nil, err
				}
				return setup.Logger, nil
			})
		}),
	)
}
