package serverapp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"hometasks/internal/config"
	"hometasks/internal/gateway"
)

const shutdownTimeout = 10 * time.Second

// ListenAndServe serves h on addr until ctx is cancelled, then drains
// in-flight requests. ready, when non-nil, receives the bound address.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, log logrus.FieldLogger, ready chan<- net.Addr) error {
	if log == nil {
		log = logrus.StandardLogger()
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	if ready != nil {
		ready <- listener.Addr()
	}

	server := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.WithField("addr", listener.Addr().String()).Info("http server listening")

	serveDone := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveDone <- err
		}
		close(serveDone)
	}()

	select {
	case <-ctx.Done():
		log.Info("http server shutting down")
	case err := <-serveDone:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	log.Info("http server stopped")
	return nil
}

// Serve opens the configured store and serves the app until ctx is done.
func Serve(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) error {
	gw, err := gateway.Open(ctx, cfg.GatewayOptions())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := gateway.Close(gw); err != nil {
			log.WithError(err).Warn("close store")
		}
	}()

	app, err := New(Options{Config: cfg, Gateway: gw, Logger: log})
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"backend": cfg.Store.Backend,
		"auth":    app.Auth.Enabled(),
	}).Info("hometasks starting")
	return ListenAndServe(ctx, cfg.Server.Addr, app.Handler, log, nil)
}
