package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/Miraines/MoonyAndStarry/initdata-service/internal/adapters/transport/grpc"
	"github.com/Miraines/MoonyAndStarry/initdata-service/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/initdata-service/internal/domain/initdata/model"
	"github.com/Miraines/MoonyAndStarry/initdata-service/internal/infra/config"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type okSvc struct{}

func (okSvc) Validate(context.Context, dto.ValidateDTO) (model.Outcome, error) {
	return model.Outcome{OK: true, Reason: "ok"}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		TelegramBotToken: "t",
		HTTPAddress:      "127.0.0.1:0",
		GRPCAddress:      "127.0.0.1:0",
		AllowedOrigins:   []string{"*"},
		ShutdownTimeout:  2 * time.Second,
	}
}

func listen(t *testing.T) net.Listener {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	return lis
}

func TestServeHTTP_ShutsDownOnCancel(t *testing.T) {
	cfg := testConfig()
	lis := listen(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "ok") })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ServeHTTP(ctx, cfg, NewHTTPServer(cfg, mux), lis, zap.NewNop()) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + lis.Addr().String() + "/health")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("HTTP server did not stop")
	}
}

func TestServeGRPC_HealthAndStop(t *testing.T) {
	cfg := testConfig()
	lis := listen(t)
	srv, err := NewGRPCServer(cfg, grpc.NewHandler(okSvc{}), zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ServeGRPC(ctx, cfg, srv, lis, zap.NewNop()) }()

	conn, err := grpclib.NewClient(lis.Addr().String(), grpclib.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	callCtx, callCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer callCancel()
	resp, err := healthpb.NewHealthClient(conn).Check(callCtx, &healthpb.HealthCheckRequest{Service: grpc.ServiceName})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("gRPC server did not stop")
	}
}

func TestNewGRPCServer_BadTLSFiles(t *testing.T) {
	cfg := testConfig()
	cfg.HTTPSCertFile, cfg.HTTPSKeyFile = "missing-cert.pem", "missing-key.pem"

	_, err := NewGRPCServer(cfg, grpc.NewHandler(okSvc{}), zap.NewNop())
	require.Error(t, err)
}
