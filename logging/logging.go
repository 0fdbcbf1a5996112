package logging

import (
	"errors"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"
)

// Setup is a configured logger together with the resources it holds.
type Setup struct {
	Logger *slog.Logger

	mu      sync.Mutex
	closers []io.Closer
	closed  bool
}

// Close releases the sinks. It is safe to call more than once.
func (s *Setup) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SetDefault installs the logger as slog's default.
func (s *Setup) SetDefault() {
	slog.SetDefault(s.Logger)
}

type sinks struct {
	console io.Writer
	debug   io.Writer
	gelf    MessageWriter
}

// Option overrides where Configure sends output.
type Option func(*sinks)

// WithConsoleWriter replaces stdout for the console sink.
func WithConsoleWriter(w io.Writer) Option {
	return func(s *sinks) {
		s.console = w
	}
}

// WithDebugWriter replaces stderr for the debug sink.
func WithDebugWriter(w io.Writer) Option {
	return func(s *sinks) {
		s.debug = w
	}
}

// WithGELFWriter replaces the Graylog connection. Configure does not dial
// when one is given, and Setup.Close closes it.
func WithGELFWriter(w MessageWriter) Option {
	return func(s *sinks) {
		s.gelf = w
	}
}

// Configure builds a logger from opts. A configuration with no enabled
// sink yields a logger that discards everything.
func Configure(opts Options, options ...Option) (*Setup, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	s := &sinks{
		console: os.Stdout,
		debug:   os.Stderr,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}

	level, _ := ParseLevel(opts.Level)
	setup := &Setup{}

	var handlers fanout
	if opts.Console.Enabled {
		handlerOpts := &slog.HandlerOptions{Level: level}
		if strings.EqualFold(opts.Format, "json") {
			handlers = append(handlers, slog.NewJSONHandler(s.console, handlerOpts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(s.console, handlerOpts))
		}
	}

	if opts.Debug.Enabled {
		handlers = append(handlers, slog.NewTextHandler(s.debug, &slog.HandlerOptions{
			Level:     slog.LevelDebug,
			AddSource: true,
		}))
	}

	if opts.Graylog.Enabled {
		w := s.gelf
		if w == nil {
			var err error
			if w, err = dialGELF(opts.Graylog); err != nil {
				return nil, err
			}
		}
		setup.closers = append(setup.closers, w)
		handlers = append(handlers, newGELFHandler(w, level, opts.Graylog))
	}

	var handler slog.Handler
	switch len(handlers) {
	case 0:
		handler = slog.DiscardHandler
	case 1:
		handler = handlers[0]
	default:
		handler = handlers
	}

	logger := slog.New(handler)
	if len(opts.Fields) > 0 {
		args := make([]any, 0, len(opts.Fields))
		for _, k := range slices.Sorted(maps.Keys(opts.Fields)) {
			args = append(args, slog.String(k, opts.Fields[k]))
		}
		logger = logger.With(args...)
	}

	setup.Logger = logger
	return setup, nil
}
