package pairsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/guregu/null/v6"
	"github.com/krobus00/feed-standards/internal/constant"
	"github.com/krobus00/feed-standards/internal/entity"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
)

var (
	ErrSyncInProgress = errors.New("pair sync already running for exchange")
	ErrNoSink         = errors.New("pair sync has nowhere to write")
)

const syncLockTTL = 2 * time.Minute

type marketSource interface {
	Markets(ctx context.Context, exchange entity.ExchangeName) (entity.PairMapping, entity.InstrumentInfo, error)
}

type symbolMappingWriter interface {
	Upsert(ctx context.Context, data []entity.SymbolMapping) error
}

type instrumentInfoWriter interface {
	Upsert(ctx context.Context, data []entity.InstrumentInfoRecord) error
}

type pairStore interface {
	Save(ctx context.Context, exchange entity.ExchangeName, pairs entity.PairMapping, info entity.InstrumentInfo) error
	AcquireSyncLock(ctx context.Context, exchange entity.ExchangeName, ttl time.Duration, owner string) (bool, error)
	ReleaseSyncLock(ctx context.Context, exchange entity.ExchangeName, owner string) error
}

type warmRequester interface {
	RequestWarm(ctx context.Context, exchange entity.ExchangeName, reset bool) error
}

type Result struct {
	Exchange    entity.ExchangeName
	Pairs       int
	Instruments int
}

// PairSyncService copies exchange market listings into the stores the
// runtime pair providers read from.
type PairSyncService struct {
	source             marketSource
	symbolMappingRepo  symbolMappingWriter
	instrumentInfoRepo instrumentInfoWriter
	store              pairStore
	warmRequester      warmRequester
	owner              string
}

type Option func(*PairSyncService)

func WithPostgres(symbolMappingRepo symbolMappingWriter, instrumentInfoRepo instrumentInfoWriter) Option {
	return func(s *PairSyncService) {
		s.symbolMappingRepo = symbolMappingRepo
		s.instrumentInfoRepo = instrumentInfoRepo
	}
}

func WithRedis(store pairStore) Option {
	return func(s *PairSyncService) {
		s.store = store
	}
}

// WithWarmRequests asks running gateways to reload an exchange after sync.
func WithWarmRequests(requester warmRequester) Option {
	return func(s *PairSyncService) {
		s.warmRequester = requester
	}
}

func NewPairSyncService(source marketSource, opts ...Option) *PairSyncService {
	s := &PairSyncService{
		source: source,
		owner:  uuid.NewString(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SyncAll syncs exchanges in parallel. Results are returned for the exchanges
// that succeeded alongside the joined errors of the others.
func (s *PairSyncService) SyncAll(ctx context.Context, exchanges []entity.ExchangeName) ([]Result, error) {
	results := make([]Result, len(exchanges))
	p := pool.New().WithContext(ctx)
	for idx, exchange := range exchanges {
		p.Go(func(ctx context.Context) error {
			result, err := s.Sync(ctx, exchange)
			if err != nil {
				return err
			}
			results[idx] = result
			return nil
		})
	}
	err := p.Wait()

	synced := make([]Result, 0, len(results))
	for _, result := range results {
		if result.Exchange != "" {
			synced = append(synced, result)
		}
	}

	return synced, err
}

func (s *PairSyncService) Sync(ctx context.Context, exchange entity.ExchangeName) (Result, error) {
	if s.symbolMappingRepo == nil && s.store == nil {
		return Result{}, ErrNoSink
	}

	logger := logrus.WithField("exchange", exchange)

	if s.store != nil {
		acquired, err := s.store.AcquireSyncLock(ctx, exchange, syncLockTTL, s.owner)
		if err != nil {
			return Result{}, fmt.Errorf("acquire sync lock for %s: %w", exchange, err)
		}
		if !acquired {
			return Result{}, fmt.Errorf("%w: %s", ErrSyncInProgress, exchange)
		}
		defer func() {
			if releaseErr := s.store.ReleaseSyncLock(context.WithoutCancel(ctx), exchange, s.owner); releaseErr != nil {
				logger.Warnf("failed to release sync lock: %v", releaseErr)
			}
		}()
	}

	pairs, info, err := s.source.Markets(ctx, exchange)
	if err != nil {
		return Result{}, fmt.Errorf("fetch markets for %s: %w", exchange, err)
	}

	if s.symbolMappingRepo != nil {
		mappings, records, err := buildRecords(exchange, pairs, info)
		if err != nil {
			return Result{}, err
		}

		if err := s.symbolMappingRepo.Upsert(ctx, mappings); err != nil {
			return Result{}, fmt.Errorf("store symbol mappings for %s: %w", exchange, err)
		}
		if s.instrumentInfoRepo != nil {
			if err := s.instrumentInfoRepo.Upsert(ctx, records); err != nil {
				return Result{}, fmt.Errorf("store instrument info for %s: %w", exchange, err)
			}
		}
	}

	if s.store != nil {
		if err := s.store.Save(ctx, exchange, pairs, info); err != nil {
			return Result{}, fmt.Errorf("cache pairs for %s: %w", exchange, err)
		}
	}

	if s.warmRequester != nil {
		if err := s.warmRequester.RequestWarm(ctx, exchange, true); err != nil {
			logger.Warnf("failed to request warm up: %v", err)
		}
	}

	logger.WithFields(logrus.Fields{
		"pairs":       len(pairs),
		"instruments": len(info),
	}).Info("pair sync finished")

	return Result{
		Exchange:    exchange,
		Pairs:       len(pairs),
		Instruments: len(info),
	}, nil
}

func buildRecords(exchange entity.ExchangeName, pairs entity.PairMapping, info entity.InstrumentInfo) ([]entity.SymbolMapping, []entity.InstrumentInfoRecord, error) {
	now := time.Now().UTC()

	mappings := make([]entity.SymbolMapping, 0, len(pairs))
	for standard, native := range pairs {
		mappings = append(mappings, entity.SymbolMapping{
			ID:             uuid.NewString(),
			Exchange:       exchange.String(),
			Symbol:         standard,
			ExchangeSymbol: native,
			Source:         null.StringFrom(constant.PairProviderREST),
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	records := make([]entity.InstrumentInfoRecord, 0, len(info))
	for symbol, metadata := range info {
		payload, err := json.Marshal(metadata)
		if err != nil {
			return nil, nil, fmt.Errorf("encode metadata of %s on %s: %w", symbol, exchange, err)
		}

		records = append(records, entity.InstrumentInfoRecord{
			ID:        uuid.NewString(),
			Exchange:  exchange.String(),
			Symbol:    symbol,
			Metadata:  payload,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	return mappings, records, nil
}

// Run syncs exchanges immediately and then on every interval until ctx is
// done. Failures are logged and retried on the next tick.
func (s *PairSyncService) Run(ctx context.Context, exchanges []entity.ExchangeName, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.syncAndLog(ctx, exchanges)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.syncAndLog(ctx, exchanges)
		}
	}
}

func (s *PairSyncService) syncAndLog(ctx context.Context, exchanges []entity.ExchangeName) {
	if ctx.Err() != nil {
		return
	}

	results, err := s.SyncAll(ctx, exchanges)
	if err != nil {
		logrus.WithError(err).Error("pair sync failed")
	}
	logrus.WithField("synced", len(results)).Debug("pair sync round finished")
}
