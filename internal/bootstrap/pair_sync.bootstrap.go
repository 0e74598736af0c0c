package bootstrap

import (
	"context"

	"github.com/krobus00/feed-standards/internal/config"
	"github.com/krobus00/feed-standards/internal/repository"
	"github.com/krobus00/feed-standards/internal/service/gateway"
	"github.com/krobus00/feed-standards/internal/service/pairprovider"
	"github.com/krobus00/feed-standards/internal/service/pairsync"
	"github.com/krobus00/feed-standards/internal/util"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func StartPairSync(cmd *cobra.Command, args []string) {
	rawExchanges, _ := cmd.Flags().GetStringSlice("exchanges")
	toPostgres, _ := cmd.Flags().GetBool("postgres")
	toRedis, _ := cmd.Flags().GetBool("redis")
	interval, _ := cmd.Flags().GetDuration("interval")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ops := map[string]operation{}

	restProvider := pairprovider.NewRESTProvider(config.Env.RestExchanges)

	exchanges := restProvider.Exchanges()
	if len(rawExchanges) > 0 {
		exchanges = parseExchanges(rawExchanges)
	}

	opts := make([]pairsync.Option, 0, 3)
	if toPostgres {
		db := openMarketDataDB(ctx, ops)
		opts = append(opts, pairsync.WithPostgres(
			repository.NewSymbolMappingRepository(db),
			repository.NewInstrumentInfoRepository(db),
		))
	}
	if toRedis {
		opts = append(opts, pairsync.WithRedis(pairprovider.NewRedisProvider(openStandardsRedis(ctx, ops))))
	}
	if js := connectJetstream("pair-sync", ops); js != nil {
		opts = append(opts, pairsync.WithWarmRequests(gateway.NewStandardsGatewayService(nil, js, nil)))
	}

	pairSyncService := pairsync.NewPairSyncService(restProvider, opts...)

	if interval <= 0 {
		results, err := pairSyncService.SyncAll(ctx, exchanges)
		for _, result := range results {
			logrus.WithFields(logrus.Fields{
				"exchange":    result.Exchange,
				"pairs":       result.Pairs,
				"instruments": result.Instruments,
			}).Info("synced")
		}
		runCleanup(ctx, ops)
		util.ContinueOrFatal(err)
		return
	}

	go pairSyncService.Run(ctx, exchanges, interval)

	ops["pair sync"] = func(ctx context.Context) error {
		cancel()
		return nil
	}

	wait := gracefulShutdown(ctx, config.Env.GracefulShutdownTimeout, ops)

	<-wait
}
