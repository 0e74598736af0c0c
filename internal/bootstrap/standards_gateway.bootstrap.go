package bootstrap

import (
	"context"
	"fmt"

	"github.com/krobus00/feed-standards/internal/config"
	"github.com/krobus00/feed-standards/internal/constant"
	"github.com/krobus00/feed-standards/internal/entity"
	httpHandler "github.com/krobus00/feed-standards/internal/handler/standards/http"
	"github.com/krobus00/feed-standards/internal/infrastructure"
	"github.com/krobus00/feed-standards/internal/service/gateway"
	"github.com/krobus00/feed-standards/internal/service/ordermanager"
	"github.com/krobus00/feed-standards/internal/util"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func StartStandardsGateway(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ops := map[string]operation{}

	router := newPairProviderRouter(ctx, ops)
	std := loadStandards(router)
	js := connectJetstream("standards-gateway", ops)

	gatewayService := gateway.NewStandardsGatewayService(std, js, parseExchanges(config.Env.Standards.WarmOnStart))

	if js != nil {
		publishers := []entity.Publisher{gatewayService}
		for _, v := range publishers {
			err := v.JetstreamEventInit(ctx)
			util.ContinueOrFatal(err)
		}

		subscribers := []entity.Subscriber{gatewayService}
		for _, v := range subscribers {
			err := v.JetstreamEventSubscribe(ctx)
			util.ContinueOrFatal(err)
		}
	}

	go func() {
		if err := gatewayService.WarmOnStart(ctx); err != nil {
			logrus.Errorf("warm on start: %v", err)
			return
		}
		logrus.Info("startup warm finished")
	}()

	orderManagerService := ordermanager.NewOrderManagerService(
		ordermanager.NewPayloadBuilder(std),
		ordermanager.NewLogDispatcher(),
	).WithInstruments(router)

	grpcPort := fmt.Sprintf(":%s", config.Env.Port["grpc"])
	grpcServer, err := infrastructure.NewGRPCServer(grpcPort, config.Env.Env == constant.DevelopmentEnvironment)
	util.ContinueOrFatal(err)

	go func() {
		if err := grpcServer.Start(); err != nil {
			logrus.Error(err)
		}
	}()
	grpcServer.WatchReadiness(ctx, gatewayService.Ready)
	logrus.Info(fmt.Sprintf("grpc health server started on %s", grpcPort))

	standardsHTTPHandler := httpHandler.NewStandardsHTTPHandler(gatewayService, orderManagerService)
	httpMux := infrastructure.NewHealthMux(gatewayService.Ready)
	standardsHTTPHandler.Register(httpMux)

	httpServer := infrastructure.NewHTTPServer(infrastructure.HTTPServerConfigFromEnv("http"), httpMux)

	go func() {
		err := httpServer.Start()
		if err != nil {
			logrus.Error(err)
		}
	}()
	logrus.Info(fmt.Sprintf("http server started on %s", httpServer.Addr()))

	ops["grpc"] = func(ctx context.Context) error {
		cancel()
		return grpcServer.Shutdown(ctx)
	}
	ops["http"] = func(ctx context.Context) error {
		return httpServer.Shutdown(ctx)
	}

	wait := gracefulShutdown(ctx, config.Env.GracefulShutdownTimeout, ops)

	<-wait
}
