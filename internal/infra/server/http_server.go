package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/Miraines/MoonyAndStarry/initdata-service/internal/infra/config"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func NewHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// ServeHTTP обслуживает lis до отмены ctx и затем делает Shutdown.
func ServeHTTP(ctx context.Context, cfg *config.Config, srv *http.Server, lis net.Listener, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening",
			zap.String("addr", lis.Addr().String()),
			zap.Bool("tls", cfg.TLSEnabled()),
		)
		var err error
		if cfg.TLSEnabled() {
			err = srv.ServeTLS(lis, cfg.HTTPSCertFile, cfg.HTTPSKeyFile)
		} else {
			err = srv.Serve(lis)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return errors.Wrap(err, "serve HTTP")
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown HTTP")
	}
	logger.Info("HTTP server stopped")
	return nil
}

func StartHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler, logger *zap.Logger) error {
	lis, err := net.Listen("tcp", cfg.HTTPAddress)
	if err != nil {
		return errors.Wrapf(err, "listen %s", cfg.HTTPAddress)
	}
	return ServeHTTP(ctx, cfg, NewHTTPServer(cfg, handler), lis, logger)
}
