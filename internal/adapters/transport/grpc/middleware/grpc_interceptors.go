package middleware

import (
	"context"

	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_zap "github.com/grpc-ecosystem/go-grpc-middleware/logging/zap"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/recovery"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func RecoveryInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return grpc_recovery.UnaryServerInterceptor(
		grpc_recovery.WithRecoveryHandlerContext(func(ctx context.Context, p any) error {
			logger.Error("panic in gRPC handler", zap.Any("panic", p))
			return status.Error(codes.Internal, "internal error")
		}),
	)
}

// LoggingInterceptor логирует метод, код и длительность. Тела запросов
// (init data) в лог не попадают.
func LoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return grpc_zap.UnaryServerInterceptor(logger,
		grpc_zap.WithLevels(func(code codes.Code) zapcore.Level {
			switch code {
			case codes.OK, codes.InvalidArgument, codes.Unauthenticated:
				return zap.InfoLevel
			default:
				return grpc_zap.DefaultCodeToLevel(code)
			}
		}),
	)
}

func MetricsInterceptor() grpc.UnaryServerInterceptor {
	return grpc_prometheus.UnaryServerInterceptor
}

func ChainUnaryServer(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return grpc_middleware.ChainUnaryServer(
		RecoveryInterceptor(logger),
		LoggingInterceptor(logger),
		MetricsInterceptor(),
	)
}
