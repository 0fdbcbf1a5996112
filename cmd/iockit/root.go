package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/junioryono/ioc"
	"github.com/junioryono/ioc/logging"
)

const (
	defaultEnvFile = ".env"
	logLevelEnv    = "IOCKIT_LOG_LEVEL"
)

// app holds the state shared by every subcommand.
type app struct {
	cfgFile string
	envFile string

	v     *viper.Viper
	setup *logging.Setup
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "iockit",
		Short:        "Inspect values and container wiring",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "",
		"config file (yaml, json or toml)")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", defaultEnvFile,
		"dotenv file loaded before the config")

	root.AddCommand(
		newDumpCmd(a),
		newServicesCmd(a),
		newServeCmd(a),
	)

	return root
}

func (a *app) init(cmd *cobra.Command) error {
	if err := godotenv.Load(a.envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) || cmd.Flags().Changed("env-file") {
			return fmt.Errorf("loading env file: %w", err)
		}
	}

	a.v = viper.New()
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	opts, err := logging.LoadOptions(a.v, logging.DefaultSection)
	if err != nil {
		return err
	}
	if level := os.Getenv(logLevelEnv); level != "" {
		opts.Level = level
	}

	setup, err := logging.Configure(opts, logging.WithConsoleWriter(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	a.setup = setup
	a.setup.Logger.Debug("configured", "config", a.v.ConfigFileUsed())

	return nil
}

func (a *app) close() error {
	if a.setup == nil {
		return nil
	}
	return a.setup.Close()
}

// container builds the container the services and serve commands inspect.
func (a *app) container() (*ioc.Container, error) {
	c, err := ioc.Build(ioc.NewModule("iockit",
		ioc.AddInstance(ioc.TypeKey[*viper.Viper](), a.v),
		ioc.AddInstance(ioc.TypeKey[*logging.Setup](), a.setup),
		ioc.AddInstance(ioc.TypeKey[*slog.Logger](), a.setup.Logger),
		ioc.AddConstructor(newCatalog, ioc.AsSingleton()),
		ioc.AddConstructor(newServicesController),
	))
	if err != nil {
		return nil, err
	}

	if err := c.RegisterInstance(ioc.TypeKey[*ioc.Container](), c); err != nil {
		return nil, err
	}
	return c, nil
}
