package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/junioryono/ioc"
	iocchi "github.com/junioryono/ioc/chi"
)

const shutdownTimeout = 5 * time.Second

type servicesController struct {
	catalog *catalog
	logger  *slog.Logger
}

func newServicesController(cat *catalog, logger *slog.Logger) *servicesController {
	return &servicesController{catalog: cat, logger: logger}
}

func (sc *servicesController) List(w http.ResponseWriter, _ *http.Request) {
	services := sc.catalog.Services()
	sc.logger.Debug("listing services", "count", len(services))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(services); err != nil {
		sc.logger.Error("encode services", "error", err)
	}
}

func (sc *servicesController) Health(w http.ResponseWriter, _ *http.Request) {
	if err := sc.catalog.Validate(); err != nil {
		sc.logger.Warn("container is invalid", "error", err)
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	_, _ = w.Write([]byte("ok\n"))
}

func newHandler(root *ioc.Container) http.Handler {
	r := iocchi.NewRouter(root)
	r.Get("/services", iocchi.Handle((*servicesController).List))
	r.Get("/healthz", iocchi.Handle((*servicesController).Health))
	return r
}

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the service catalog over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.container()
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, a.setup.Logger, addr, newHandler(c))
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

func serve(ctx context.Context, logger *slog.Logger, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
