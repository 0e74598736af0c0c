package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/krobus00/feed-standards/internal/config"
	"github.com/krobus00/feed-standards/internal/constant"
	"github.com/krobus00/feed-standards/internal/entity"
	"github.com/krobus00/feed-standards/internal/infrastructure"
	"github.com/krobus00/feed-standards/internal/repository"
	"github.com/krobus00/feed-standards/internal/service/pairprovider"
	"github.com/krobus00/feed-standards/internal/service/standards"
	"github.com/krobus00/feed-standards/internal/util"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type operation func(ctx context.Context) error

// gracefulShutdown waits for termination syscalls and doing clean up operations after received it.
func gracefulShutdown(ctx context.Context, timeout time.Duration, ops map[string]operation) <-chan struct{} {
	wait := make(chan struct{})
	go func() {
		s := make(chan os.Signal, 1)

		// add any other syscalls that you want to be notified with
		signal.Notify(s, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		<-s

		logrus.Info("shutting down")

		// set timeout for the ops to be done to prevent system hang
		timeoutFunc := time.AfterFunc(timeout, func() {
			logrus.Error(fmt.Sprintf("timeout %d ms has been elapsed, force exit", timeout.Milliseconds()))
			os.Exit(0)
		})

		defer timeoutFunc.Stop()

		// ops may cancel ctx themselves, the others still need a live one
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		runCleanup(cleanupCtx, ops)

		close(wait)
	}()

	return wait
}

// runCleanup runs every op concurrently and waits for all of them.
func runCleanup(ctx context.Context, ops map[string]operation) {
	var wg sync.WaitGroup

	for key, op := range ops {
		wg.Add(1)
		go func() {
			defer wg.Done()

			logrus.Info(fmt.Sprintf("cleaning up: %s", key))
			if err := op(ctx); err != nil {
				logrus.Error(fmt.Sprintf("%s: clean up failed: %s", key, err.Error()))
				return
			}

			logrus.Info(fmt.Sprintf("%s was shutdown gracefully", key))
		}()
	}

	wg.Wait()
}

func openMarketDataDB(ctx context.Context, ops map[string]operation) *sqlx.DB {
	name := config.Env.PairProvider.Database
	if name == "" {
		name = constant.DatabaseMarketData
	}

	db, err := infrastructure.NewPostgresConnection(ctx, config.Env.Database[name])
	util.ContinueOrFatal(err)
	infrastructure.StartPostgresHealthCheck(ctx, db, config.Env.Database[name].PingInterval)

	ops[name+" database"] = func(ctx context.Context) error {
		return db.Close()
	}

	return db
}

func openStandardsRedis(ctx context.Context, ops map[string]operation) *redis.Client {
	name := config.Env.PairProvider.RedisName
	if name == "" {
		name = constant.RedisStandards
	}

	client, err := infrastructure.NewRedisClient(ctx, config.Env.Redis[name])
	util.ContinueOrFatal(err)

	ops[name+" redis"] = func(ctx context.Context) error {
		return infrastructure.CloseRedis(client)
	}

	return client
}

// connectJetstream returns a nil context when no nats url is configured.
func connectJetstream(clientName string, ops map[string]operation) nats.JetStreamContext {
	nc, js, err := infrastructure.NewJetstream(config.Env.NatsJetstream, clientName)
	if errors.Is(err, infrastructure.ErrJetstreamNotConfigured) {
		logrus.Warn("nats jetstream is not configured, running without it")
		return nil
	}
	util.ContinueOrFatal(err)

	ops["nats connection"] = func(ctx context.Context) error {
		return infrastructure.CloseJetstream(nc)
	}

	return js
}

// newPairProviderRouter opens only the stores of the sources some exchange is
// routed to.
func newPairProviderRouter(ctx context.Context, ops map[string]operation) *pairprovider.Router {
	cfg := config.Env.PairProvider
	sources := make(map[string]entity.PairProvider)

	for _, source := range pairprovider.SourcesInUse(cfg) {
		switch source {
		case constant.PairProviderPostgres:
			db := openMarketDataDB(ctx, ops)
			sources[source] = pairprovider.NewPostgresProvider(
				repository.NewSymbolMappingRepository(db),
				repository.NewInstrumentInfoRepository(db),
			)
		case constant.PairProviderRedis:
			sources[source] = pairprovider.NewRedisProvider(openStandardsRedis(ctx, ops))
		case constant.PairProviderFile:
			provider, err := pairprovider.NewFileProvider(cfg.FilePath)
			util.ContinueOrFatal(err)
			sources[source] = provider
		case constant.PairProviderREST:
			sources[source] = pairprovider.NewRESTProvider(config.Env.RestExchanges)
		default:
			logrus.WithField("source", source).Warn("unknown pair provider source")
		}
	}

	router, err := pairprovider.NewRouter(cfg, sources)
	util.ContinueOrFatal(err)

	return router
}

func loadStandards(provider entity.PairProvider) *standards.Standards {
	tables, err := standards.LoadTables(config.Env.Standards.TablesDir)
	util.ContinueOrFatal(err)

	return standards.New(tables, provider)
}

func parseExchanges(raw []string) []entity.ExchangeName {
	exchanges := make([]entity.ExchangeName, 0, len(raw))
	for _, v := range raw {
		exchange, err := entity.ParseExchangeName(v)
		util.ContinueOrFatal(err)
		exchanges = append(exchanges, exchange)
	}

	return exchanges
}
