package pairsync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/krobus00/feed-standards/internal/entity"
)

type fakeSource struct {
	markets map[entity.ExchangeName]entity.PairMapping
	info    map[entity.ExchangeName]entity.InstrumentInfo
}

func (f fakeSource) Markets(_ context.Context, exchange entity.ExchangeName) (entity.PairMapping, entity.InstrumentInfo, error) {
	pairs, ok := f.markets[exchange]
	if !ok {
		return nil, nil, errors.New("exchange not listed")
	}
	return pairs, f.info[exchange], nil
}

type fakeMappingRepo struct {
	mu   sync.Mutex
	rows []entity.SymbolMapping
}

func (r *fakeMappingRepo) Upsert(_ context.Context, data []entity.SymbolMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, data...)
	return nil
}

type fakeInfoRepo struct {
	mu   sync.Mutex
	rows []entity.InstrumentInfoRecord
}

func (r *fakeInfoRepo) Upsert(_ context.Context, data []entity.InstrumentInfoRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, data...)
	return nil
}

type fakeStore struct {
	mu      sync.Mutex
	saved   map[entity.ExchangeName]entity.PairMapping
	locked  map[entity.ExchangeName]string
	release int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		saved:  make(map[entity.ExchangeName]entity.PairMapping),
		locked: make(map[entity.ExchangeName]string),
	}
}

func (s *fakeStore) Save(_ context.Context, exchange entity.ExchangeName, pairs entity.PairMapping, _ entity.InstrumentInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[exchange] = pairs
	return nil
}

func (s *fakeStore) AcquireSyncLock(_ context.Context, exchange entity.ExchangeName, _ time.Duration, owner string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locked[exchange]; ok {
		return false, nil
	}
	s.locked[exchange] = owner
	return true, nil
}

func (s *fakeStore) ReleaseSyncLock(_ context.Context, exchange entity.ExchangeName, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked[exchange] == owner {
		delete(s.locked, exchange)
		s.release++
	}
	return nil
}

type fakeRequester struct {
	mu        sync.Mutex
	exchanges []entity.ExchangeName
}

func (r *fakeRequester) RequestWarm(_ context.Context, exchange entity.ExchangeName, reset bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reset {
		r.exchanges = append(r.exchanges, exchange)
	}
	return nil
}

func testSource() fakeSource {
	return fakeSource{
		markets: map[entity.ExchangeName]entity.PairMapping{
			entity.ExchangeBinance:  {"BTC-USDT": "BTCUSDT", "ETH-USDT": "ETHUSDT"},
			entity.ExchangeCoinbase: {"BTC-USD": "BTC-USD"},
		},
		info: map[entity.ExchangeName]entity.InstrumentInfo{
			entity.ExchangeBinance: {"BTC-USDT": {"tick_size": "0.01"}},
		},
	}
}

func TestSync(t *testing.T) {
	mappingRepo := &fakeMappingRepo{}
	infoRepo := &fakeInfoRepo{}
	store := newFakeStore()
	requester := &fakeRequester{}

	svc := NewPairSyncService(testSource(), WithPostgres(mappingRepo, infoRepo), WithRedis(store), WithWarmRequests(requester))

	result, err := svc.Sync(context.Background(), entity.ExchangeBinance)
	if err != nil {
		t.Fatal(err)
	}
	if result.Pairs != 2 || result.Instruments != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	if len(mappingRepo.rows) != 2 {
		t.Fatalf("expected 2 mapping rows, got %d", len(mappingRepo.rows))
	}
	for _, row := range mappingRepo.rows {
		if row.ID == "" || row.Exchange != "BINANCE" || row.Source.String != "rest" {
			t.Fatalf("unexpected mapping row: %+v", row)
		}
	}

	if len(infoRepo.rows) != 1 {
		t.Fatalf("expected 1 instrument row, got %d", len(infoRepo.rows))
	}
	var metadata map[string]any
	if err := json.Unmarshal(infoRepo.rows[0].Metadata, &metadata); err != nil {
		t.Fatal(err)
	}
	if metadata["tick_size"] != "0.01" {
		t.Fatalf("unexpected metadata: %v", metadata)
	}

	if store.saved[entity.ExchangeBinance]["BTC-USDT"] != "BTCUSDT" {
		t.Fatalf("expected pairs to be cached, got %v", store.saved)
	}
	if store.release != 1 || len(store.locked) != 0 {
		t.Fatal("expected sync lock to be released")
	}
	if len(requester.exchanges) != 1 || requester.exchanges[0] != entity.ExchangeBinance {
		t.Fatalf("expected a reset warm request, got %v", requester.exchanges)
	}
}

func TestSyncLocked(t *testing.T) {
	store := newFakeStore()
	store.locked[entity.ExchangeBinance] = "another-worker"

	svc := NewPairSyncService(testSource(), WithRedis(store))

	_, err := svc.Sync(context.Background(), entity.ExchangeBinance)
	if !errors.Is(err, ErrSyncInProgress) {
		t.Fatalf("expected ErrSyncInProgress, got %v", err)
	}
	if store.locked[entity.ExchangeBinance] != "another-worker" {
		t.Fatal("lock held by another worker must not be released")
	}
}

func TestSyncWithoutSink(t *testing.T) {
	svc := NewPairSyncService(testSource())

	if _, err := svc.Sync(context.Background(), entity.ExchangeBinance); !errors.Is(err, ErrNoSink) {
		t.Fatalf("expected ErrNoSink, got %v", err)
	}
}

func TestSyncAll(t *testing.T) {
	store := newFakeStore()
	svc := NewPairSyncService(testSource(), WithRedis(store))

	results, err := svc.SyncAll(context.Background(), []entity.ExchangeName{
		entity.ExchangeBinance,
		entity.ExchangeCoinbase,
		entity.ExchangeKraken,
	})
	if err == nil {
		t.Fatal("expected error for kraken")
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 successful results, got %+v", results)
	}
	if len(store.locked) != 0 {
		t.Fatal("every lock must be released")
	}
}

func TestRun(t *testing.T) {
	store := newFakeStore()
	svc := NewPairSyncService(testSource(), WithRedis(store))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.Run(ctx, []entity.ExchangeName{entity.ExchangeBinance, entity.ExchangeCoinbase}, 10*time.Millisecond)
	}()

	deadline := time.After(2 * time.Second)
	for {
		store.mu.Lock()
		saved := len(store.saved)
		store.mu.Unlock()
		if saved == 2 {
			break
		}

		select {
		case <-deadline:
			t.Fatal("run did not sync both exchanges")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("run did not stop after cancel")
	}
}
