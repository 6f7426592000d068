package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	myGrpc "github.com/Miraines/MoonyAndStarry/initdata-service/internal/adapters/transport/grpc"
	myHttp "github.com/Miraines/MoonyAndStarry/initdata-service/internal/adapters/transport/http"
	appsvc "github.com/Miraines/MoonyAndStarry/initdata-service/internal/app/initdata/service"
	"github.com/Miraines/MoonyAndStarry/initdata-service/internal/infra/config"
	lg "github.com/Miraines/MoonyAndStarry/initdata-service/internal/infra/log"
	"github.com/Miraines/MoonyAndStarry/initdata-service/internal/infra/metrics"
	"github.com/Miraines/MoonyAndStarry/initdata-service/internal/infra/server"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zapLog := lg.Must("")
		zapLog.Fatal("failed to load config", zap.Error(err))
	}

	zapLog := lg.Must(cfg.LogLevel)
	defer zapLog.Sync()

	if cfg.InitDataMaxAge == 0 {
		zapLog.Warn("init data expiry check disabled (INIT_DATA_MAX_AGE=0)")
	}

	svc := appsvc.New(appsvc.Settings{
		BotToken: cfg.TelegramBotToken,
		MaxAge:   cfg.InitDataMaxAge,
	}, zapLog, metrics.NewValidations(prometheus.DefaultRegisterer))

	gin.SetMode(gin.ReleaseMode)
	router := myHttp.NewRouter(myHttp.RouterConfig{
		Service:          svc,
		Logger:           zapLog,
		Metrics:          metrics.NewHTTP(prometheus.DefaultRegisterer),
		Gatherer:         prometheus.DefaultGatherer,
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: cfg.AllowCredentials,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.StartHTTPServer(ctx, cfg, router, zapLog)
	})

	if cfg.GRPCAddress != "" {
		g.Go(func() error {
			return server.StartGRPCServer(ctx, cfg, myGrpc.NewHandler(svc), zapLog)
		})
	}

	<-ctx.Done()
	zapLog.Info("shutting down")
	if err := g.Wait(); err != nil {
		zapLog.Fatal("server terminated", zap.Error(err))
	}
}
