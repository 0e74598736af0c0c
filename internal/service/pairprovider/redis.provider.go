package pairprovider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/krobus00/feed-standards/internal/constant"
	"github.com/krobus00/feed-standards/internal/entity"
	"github.com/redis/go-redis/v9"
)

const defaultSyncLockTTL = 30 * time.Second

// RedisProvider keeps one hash of pairs and one hash of instrument metadata
// per exchange. It is also the store pair-sync writes to.
type RedisProvider struct {
	client *redis.Client
}

func NewRedisProvider(client *redis.Client) *RedisProvider {
	return &RedisProvider{client: client}
}

func pairsKey(exchange entity.ExchangeName) string {
	return constant.RedisKeyPairsPrefix + exchange.String()
}

func instrumentsKey(exchange entity.ExchangeName) string {
	return constant.RedisKeyInstrumentsPrefix + exchange.String()
}

func syncLockKey(exchange entity.ExchangeName) string {
	return fmt.Sprintf("%s:sync-lock", pairsKey(exchange))
}

func (p *RedisProvider) GeneratePairs(ctx context.Context, exchange entity.ExchangeName) (entity.PairMapping, error) {
	raw, err := p.client.HGetAll(ctx, pairsKey(exchange)).Result()
	if err != nil {
		return nil, err
	}

	return entity.PairMapping(raw), nil
}

func (p *RedisProvider) InstrumentInfo(ctx context.Context, exchange entity.ExchangeName) (entity.InstrumentInfo, error) {
	raw, err := p.client.HGetAll(ctx, instrumentsKey(exchange)).Result()
	if err != nil {
		return nil, err
	}

	info := make(entity.InstrumentInfo, len(raw))
	for symbol, payload := range raw {
		metadata := make(map[string]any)
		if err := json.Unmarshal([]byte(payload), &metadata); err != nil {
			return nil, fmt.Errorf("decode metadata of %s on %s: %w", symbol, exchange, err)
		}
		info[symbol] = metadata
	}

	return info, nil
}

// Save replaces the stored pairs and metadata of exchange in one transaction.
func (p *RedisProvider) Save(ctx context.Context, exchange entity.ExchangeName, pairs entity.PairMapping, info entity.InstrumentInfo) error {
	encoded := make(map[string]any, len(info))
	for symbol, metadata := range info {
		payload, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("encode metadata of %s on %s: %w", symbol, exchange, err)
		}
		encoded[symbol] = string(payload)
	}

	fields := make(map[string]any, len(pairs))
	for standard, native := range pairs {
		fields[standard] = native
	}

	_, err := p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, pairsKey(exchange), instrumentsKey(exchange))
		if len(fields) > 0 {
			pipe.HSet(ctx, pairsKey(exchange), fields)
		}
		if len(encoded) > 0 {
			pipe.HSet(ctx, instrumentsKey(exchange), encoded)
		}
		return nil
	})

	return err
}

func (p *RedisProvider) AcquireSyncLock(ctx context.Context, exchange entity.ExchangeName, ttl time.Duration, owner string) (bool, error) {
	if ttl <= 0 {
		ttl = defaultSyncLockTTL
	}

	acquired, err := p.client.SetNX(ctx, syncLockKey(exchange), owner, ttl).Result()
	if err != nil {
		return false, err
	}

	return acquired, nil
}

func (p *RedisProvider) ReleaseSyncLock(ctx context.Context, exchange entity.ExchangeName, owner string) error {
	script := redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
else
    return 0
end
`)

	_, err := script.Run(ctx, p.client, []string{syncLockKey(exchange)}, owner).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	return nil
}
