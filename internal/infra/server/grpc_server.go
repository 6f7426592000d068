package server

import (
	"context"
	"net"

	myGrpc "github.com/Miraines/MoonyAndStarry/initdata-service/internal/adapters/transport/grpc"
	"github.com/Miraines/MoonyAndStarry/initdata-service/internal/adapters/transport/grpc/middleware"
	"github.com/Miraines/MoonyAndStarry/initdata-service/internal/infra/config"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// NewGRPCServer собирает gRPC-сервер с middleware, health-сервисом и метриками.
func NewGRPCServer(cfg *config.Config, handler myGrpc.InitDataVerifierServer, logger *zap.Logger) (*grpc.Server, error) {
	opts := []grpc.ServerOption{
		grpc.UnaryInterceptor(middleware.ChainUnaryServer(logger)),
	}
	if cfg.TLSEnabled() {
		creds, err := credentials.NewServerTLSFromFile(cfg.HTTPSCertFile, cfg.HTTPSKeyFile)
		if err != nil {
			return nil, errors.Wrap(err, "load gRPC TLS credentials")
		}
		opts = append(opts, grpc.Creds(creds))
	}

	grpcServer := grpc.NewServer(opts...)
	myGrpc.RegisterInitDataVerifierServer(grpcServer, handler)

	hs := health.NewServer()
	hs.SetServingStatus(myGrpc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, hs)

	grpc_prometheus.Register(grpcServer)
	grpc_prometheus.EnableHandlingTimeHistogram()
	return grpcServer, nil
}

// ServeGRPC обслуживает lis до отмены ctx, затем делает graceful stop,
// а по истечении cfg.ShutdownTimeout делает жёсткий Stop.
func ServeGRPC(ctx context.Context, cfg *config.Config, grpcServer *grpc.Server, lis net.Listener, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return errors.Wrap(err, "serve gRPC")
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("ctx cancelled, stopping gRPC server…")

	stopCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-stopCtx.Done():
		grpcServer.Stop()
	case <-done:
	}
	logger.Info("gRPC server stopped")
	return nil
}

// StartGRPCServer слушает cfg.GRPCAddress и блокируется до отмены ctx.
func StartGRPCServer(ctx context.Context, cfg *config.Config, handler myGrpc.InitDataVerifierServer, logger *zap.Logger) error {
	grpcServer, err := NewGRPCServer(cfg, handler, logger)
	if err != nil {
		return err
	}
	lis, err := net.Listen("tcp", cfg.GRPCAddress)
	if err != nil {
		return errors.Wrapf(err, "listen %s", cfg.GRPCAddress)
	}
	return ServeGRPC(ctx, cfg, grpcServer, lis, logger)
}
