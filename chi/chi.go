// Package chi provides ioc integration for the Chi router.
//
// This package provides middleware that gives every request its own child
// container and type-safe handler wrappers for resolving controllers.
//
// Example usage:
//
//	root, _ := ioc.Build(AppModule)
//
//	r := iocchi.NewRouter(root)
//
//	r.Post("/login", iocchi.Handle(AuthController.Login))
//	r.Get("/users/{id}", iocchi.Handle(UserController.GetByID))
package chi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/junioryono/ioc"
)

// ErrNoContainerInContext is returned by FromContext when the request did not
// pass through ScopeMiddleware.
var ErrNoContainerInContext = errors.New("no container found in context")

// RequestIDKey is the contract under which the request ID is registered in
// the request container.
var RequestIDKey = ioc.ContractKey("request-id")

type contextKey struct{}

// WithContainer returns a copy of ctx carrying c.
func WithContainer(ctx context.Context, c *ioc.Container) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// FromContext returns the request container attached by ScopeMiddleware.
func FromContext(ctx context.Context) (*ioc.Container, error) {
	c, ok := ctx.Value(contextKey{}).(*ioc.Container)
	if !ok || c == nil {
		return nil, ErrNoContainerInContext
	}
	return c, nil
}

// Config holds the configuration for the scope middleware.
type Config struct {
	// ErrorHandler is called when preparing the request container fails.
	// If nil, a default handler returning 500 Internal Server Error is used.
	ErrorHandler func(http.ResponseWriter, *http.Request, error)

	// CloseErrorHandler is called when closing the request container fails.
	// If nil, errors are logged with the request logger.
	CloseErrorHandler func(*http.Request, error)

	// Middlewares are functions that run after the request container is
	// prepared. They can register request data such as the current user.
	Middlewares []func(*ioc.Container, *http.Request) error

	// Logger is the base for request loggers when the root container does
	// not register a *slog.Logger. Defaults to slog.Default().
	Logger *slog.Logger
}

// Option configures the scope middleware.
type Option func(*Config)

// WithErrorHandler sets the error handler for request container failures.
func WithErrorHandler(h func(http.ResponseWriter, *http.Request, error)) Option {
	return func(c *Config) {
		c.ErrorHandler = h
	}
}

// WithCloseErrorHandler sets the error handler for close failures.
func WithCloseErrorHandler(h func(*http.Request, error)) Option {
	return func(c *Config) {
		c.CloseErrorHandler = h
	}
}

// WithMiddleware adds a function that runs after the request container is
// prepared. Middlewares run in the order they are added.
func WithMiddleware(mw func(*ioc.Container, *http.Request) error) Option {
	return func(c *Config) {
		c.Middlewares = append(c.Middlewares, mw)
	}
}

// WithLogger sets the fallback base logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

func defaultConfig() *Config {
	return &Config{
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		},
		CloseErrorHandler: nil,
		Middlewares:       nil,
	}
}

// ScopeMiddleware creates a Chi middleware that derives a child container from
// root for each request. The child holds the *http.Request, the request ID
// (under RequestIDKey) and a *slog.Logger tagged with that ID. It is attached
// to the request context and closed when the request completes.
//
// The request ID comes from chi's RequestID middleware when it ran first,
// otherwise a UUID is generated.
//
// Example:
//
//	r := chi.NewRouter()
//	r.Use(middleware.RequestID)
//	r.Use(iocchi.ScopeMiddleware(root))
func ScopeMiddleware(root *ioc.Container, opts ...Option) func(http.Handler) http.Handler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if root.IsClosed() {
				cfg.ErrorHandler(w, r, ioc.ErrContainerClosed)
				return
			}

			requestID := middleware.GetReqID(r.Context())
			if requestID == "" {
				requestID = uuid.NewString()
			}

			logger := baseLogger(root, cfg).With(
				slog.String("request_id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)

			scope := root.Child()
			defer func() {
				if err := scope.Close(); err != nil {
					if cfg.CloseErrorHandler != nil {
						cfg.CloseErrorHandler(r, err)
						return
					}
					logger.Error("failed to close request container", "error", err)
				}
			}()

			r = r.WithContext(WithContainer(r.Context(), scope))

			if err := registerRequest(scope, r, requestID, logger); err != nil {
				cfg.ErrorHandler(w, r, err)
				return
			}

			for _, mw := range cfg.Middlewares {
				if err := mw(scope, r); err != nil {
					cfg.ErrorHandler(w, r, err)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func baseLogger(root *ioc.Container, cfg *Config) *slog.Logger {
	if root.Contains(ioc.TypeKey[*slog.Logger]()) {
		if l, err := ioc.Resolve[*slog.Logger](root); err == nil {
			return l
		}
	}
	if cfg.Logger != nil {
		return cfg.Logger
	}
	return slog.Default()
}

func registerRequest(scope *ioc.Container, r *http.Request, requestID string, logger *slog.Logger) error {
	if err := ioc.RegisterInstance(scope, r); err != nil {
		return err
	}
	if err := scope.RegisterInstance(RequestIDKey, requestID); err != nil {
		return err
	}
	return ioc.RegisterInstance(scope, logger)
}

// NewRouter creates a Chi router with chi's RequestID middleware and
// ScopeMiddleware mounted.
func NewRouter(root *ioc.Container, opts ...Option) *gochi.Mux {
	r := gochi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(ScopeMiddleware(root, opts...))
	return r
}

// HandlerConfig holds configuration for the Handle wrapper.
type HandlerConfig struct {
	// PanicRecovery enables panic recovery in the handler.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	PanicHandler func(http.ResponseWriter, *http.Request, any)

	// ScopeErrorHandler is called when the request has no container.
	ScopeErrorHandler func(http.ResponseWriter, *http.Request, error)

	// ResolutionErrorHandler is called when controller resolution fails.
	ResolutionErrorHandler func(http.ResponseWriter, *http.Request, error)
}

// HandlerOption configures the Handle wrapper.
type HandlerOption func(*HandlerConfig)

// WithPanicRecovery enables or disables panic recovery in the handler.
func WithPanicRecovery(enabled bool) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicRecovery = enabled
	}
}

// WithPanicHandler sets the handler for panics.
func WithPanicHandler(h func(http.ResponseWriter, *http.Request, any)) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicHandler = h
	}
}

// WithScopeErrorHandler sets the error handler for a missing request container.
func WithScopeErrorHandler(h func(http.ResponseWriter, *http.Request, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.ScopeErrorHandler = h
	}
}

// WithResolutionErrorHandler sets the error handler for resolution failures.
func WithResolutionErrorHandler(h func(http.ResponseWriter, *http.Request, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.ResolutionErrorHandler = h
	}
}

func defaultHandlerConfig() *HandlerConfig {
	return &HandlerConfig{
		PanicRecovery: false,
		PanicHandler: func(w http.ResponseWriter, r *http.Request, v any) {
			requestLogger(r).Error("panic in handler", "panic", v)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		},
		ScopeErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slog.Error("failed to get container from context", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		},
		ResolutionErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			requestLogger(r).Error("failed to resolve controller", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		},
	}
}

// requestLogger returns the logger registered in the request container, or
// slog.Default().
func requestLogger(r *http.Request) *slog.Logger {
	if scope, err := FromContext(r.Context()); err == nil {
		if l, err := ioc.Resolve[*slog.Logger](scope); err == nil {
			return l
		}
	}
	return slog.Default()
}

// Handle wraps a controller method for type-safe resolution from the request
// container. The controller type T is resolved from the container attached
// to the request context.
//
// The method signature should be: func(T, http.ResponseWriter, *http.Request)
//
// Example:
//
//	type UserController interface {
//	    GetByID(http.ResponseWriter, *http.Request)
//	}
//
//	r.Get("/users/{id}", iocchi.Handle(UserController.GetByID))
func Handle[T any](method func(T, http.ResponseWriter, *http.Request), opts ...HandlerOption) http.HandlerFunc {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					cfg.PanicHandler(w, r, v)
				}
			}()
		}

		scope, err := FromContext(r.Context())
		if err != nil {
			cfg.ScopeErrorHandler(w, r, err)
			return
		}

		controller, err := ioc.Resolve[T](scope)
		if err != nil {
			cfg.ResolutionErrorHandler(w, r, err)
			return
		}

		method(controller, w, r)
	}
}
