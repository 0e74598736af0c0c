package bootstrap

import (
	"context"
	"time"

	"github.com/krobus00/feed-standards/internal/config"
	"github.com/krobus00/feed-standards/internal/entity"
	"github.com/krobus00/feed-standards/internal/service/feedprobe"
	"github.com/krobus00/feed-standards/internal/service/gateway"
	"github.com/krobus00/feed-standards/internal/util"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func StartFeedProbe(cmd *cobra.Command, args []string) {
	rawExchange, _ := cmd.Flags().GetString("exchange")
	rawChannels, _ := cmd.Flags().GetStringSlice("channels")
	symbols, _ := cmd.Flags().GetStringSlice("symbols")
	duration, _ := cmd.Flags().GetDuration("duration")

	exchange, err := entity.ParseExchangeName(rawExchange)
	util.ContinueOrFatal(err)

	channels := make([]entity.Channel, 0, len(rawChannels))
	for _, raw := range rawChannels {
		channels = append(channels, entity.Channel(raw))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ops := map[string]operation{}

	router := newPairProviderRouter(ctx, ops)
	std := loadStandards(router)

	err = std.Registry.Warm(ctx, exchange)
	util.ContinueOrFatal(err)

	builder, err := feedprobe.NewSubscriptionBuilder(std, config.Env.FeedProbe.Endpoints)
	util.ContinueOrFatal(err)

	sub, err := builder.Build(exchange, channels, symbols)
	util.ContinueOrFatal(err)

	opts := []feedprobe.StreamOption{
		feedprobe.WithPingInterval(config.Env.FeedProbe.PingInterval),
		feedprobe.WithReconnectDelay(config.Env.FeedProbe.ReconnectMinDelay, config.Env.FeedProbe.ReconnectMaxDelay),
	}
	if config.Env.FeedProbe.PublishTrades {
		if js := connectJetstream("feed-probe", ops); js != nil {
			err = gateway.NewStandardsGatewayService(std, js, nil).JetstreamEventInit(ctx)
			util.ContinueOrFatal(err)
			opts = append(opts, feedprobe.WithTradePublisher(js))
		}
	}

	stream := feedprobe.NewStream(std, sub, logTrade, opts...)

	runCtx := ctx
	if duration > 0 {
		var stop context.CancelFunc
		runCtx, stop = context.WithTimeout(ctx, duration)
		defer stop()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = stream.Run(runCtx)
	}()

	ops["feed stream"] = func(ctx context.Context) error {
		cancel()
		<-done
		return nil
	}

	select {
	case <-done:
		runCleanup(ctx, ops)
	case <-gracefulShutdown(ctx, config.Env.GracefulShutdownTimeout, ops):
	}
}

func logTrade(_ context.Context, trade entity.Trade) error {
	logrus.WithFields(logrus.Fields{
		"exchange": trade.Exchange,
		"symbol":   trade.Symbol,
		"side":     trade.Side,
		"price":    trade.Price.String(),
		"amount":   trade.Amount.String(),
		"trade_id": trade.TradeID,
		"ts":       time.UnixMilli(int64(trade.Timestamp * 1000)).UTC().Format(time.RFC3339Nano),
	}).Info("trade")

	return nil
}
