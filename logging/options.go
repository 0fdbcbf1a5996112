// Package logging builds a structured logger from an explicit Options value.
//
// Records fan out to every enabled sink: the console (text or JSON on
// stdout), a debug sink (text on stderr at debug level) and Graylog over
// GELF (UDP or TCP). Fixed fields in Options.Fields are stamped on every
// record.
//
//	opts, err := logging.LoadOptions(v, "Logging")
//	setup, err := logging.Configure(opts)
//	defer setup.Close()
//	setup.Logger.Info("started")
//
// Configure never touches the process-wide logger; call Setup.SetDefault to
// install it.
package logging

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// DefaultSection is the configuration section LoadOptions reads when given
// an empty section name.
const DefaultSection = "Logging"

var (
	ErrGraylogAddressEmpty = errors.New("graylog address cannot be empty when graylog is enabled")
	ErrUnknownFormat       = errors.New("unknown log format")
	ErrUnknownProtocol     = errors.New("unknown graylog protocol")
)

// ConfigError reports an invalid option value.
type ConfigError struct {
	Field string
	Value string
	Cause error
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("invalid logging option %s=%q: %v", e.Field, e.Value, e.Cause)
}

func (e ConfigError) Unwrap() error {
	return e.Cause
}

// Options configures the logger.
type Options struct {
	// Level is the minimum level: debug, info, warn or error, optionally
	// with an offset such as "warn+2".
	Level string `mapstructure:"level"`

	// Format is the console encoding: text or json.
	Format string `mapstructure:"format"`

	Console ConsoleOptions `mapstructure:"console"`
	Debug   DebugOptions   `mapstructure:"debug"`
	Graylog GraylogOptions `mapstructure:"graylog"`

	// Fields are added to every record.
	Fields map[string]string `mapstructure:"fields"`
}

// ConsoleOptions configures the stdout sink.
type ConsoleOptions struct {
	Enabled bool `mapstructure:"enabled"`
}

// DebugOptions configures the stderr sink, which always logs at debug level.
type DebugOptions struct {
	Enabled bool `mapstructure:"enabled"`
}

// GraylogOptions configures the GELF sink.
type GraylogOptions struct {
	Enabled bool `mapstructure:"enabled"`

	// Address is the host:port of the GELF input.
	Address string `mapstructure:"address"`

	// Protocol is udp or tcp.
	Protocol string `mapstructure:"protocol"`

	// Facility is sent with every message.
	Facility string `mapstructure:"facility"`

	// Host overrides the reported host name. Defaults to os.Hostname.
	Host string `mapstructure:"host"`
}

// Defaults returns options logging text at info level to the console.
func Defaults() Options {
	return Options{
		Level:   "info",
		Format:  "text",
		Console: ConsoleOptions{Enabled: true},
		Graylog: GraylogOptions{
			Protocol: "udp",
			Facility: "ioc",
		},
	}
}

// LoadOptions reads options from section of v on top of Defaults.
// A missing section yields Defaults. An empty section means DefaultSection.
func LoadOptions(v *viper.Viper, section string) (Options, error) {
	opts := Defaults()
	if v == nil {
		return opts, nil
	}

	if section == "" {
		section = DefaultSection
	}

	sub := v.Sub(section)
	if sub == nil {
		return opts, nil
	}

	if err := sub.Unmarshal(&opts); err != nil {
		return Options{}, fmt.Errorf("decode %s section: %w", section, err)
	}

	return opts, opts.Validate()
}

// Validate checks that every option has a usable value.
func (o Options) Validate() error {
	if _, err := ParseLevel(o.Level); err != nil {
		return err
	}

	switch strings.ToLower(o.Format) {
	case "", "text", "json":
	default:
		return ConfigError{Field: "format", Value: o.Format, Cause: ErrUnknownFormat}
	}

	if o.Graylog.Enabled {
		if strings.TrimSpace(o.Graylog.Address) == "" {
			return ConfigError{Field: "graylog.address", Value: o.Graylog.Address, Cause: ErrGraylogAddressEmpty}
		}

		switch strings.ToLower(o.Graylog.Protocol) {
		case "", "udp", "tcp":
		default:
			return ConfigError{Field: "graylog.protocol", Value: o.Graylog.Protocol, Cause: ErrUnknownProtocol}
		}
	}

	return nil
}

// ParseLevel parses a level name. An empty name is info.
func ParseLevel(s string) (slog.Level, error) {
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, ConfigError{Field: "level", Value: s, Cause: err}
	}
	return level, nil
}
