package pairprovider

import (
	"context"
	"fmt"
	"maps"
	"os"
	"sync"

	"github.com/krobus00/feed-standards/internal/entity"
	"gopkg.in/yaml.v3"
)

type fileExchange struct {
	Pairs       map[string]string         `yaml:"pairs"`
	Instruments map[string]map[string]any `yaml:"instruments"`
}

// FileProvider serves pairs from a YAML document keyed by exchange name:
//
//	COINBASE:
//	  pairs:
//	    BTC-USD: BTC-USD
//	  instruments:
//	    BTC-USD:
//	      tick_size: "0.01"
type FileProvider struct {
	path string

	lock      sync.RWMutex
	exchanges map[entity.ExchangeName]fileExchange
}

func NewFileProvider(path string) (*FileProvider, error) {
	p := &FileProvider{path: path}
	if err := p.Reload(); err != nil {
		return nil, err
	}

	return p, nil
}

// Reload reads the file again. The previous content is kept on failure.
func (p *FileProvider) Reload() error {
	raw, err := os.ReadFile(p.path)
	if err != nil {
		return err
	}

	var decoded map[string]fileExchange
	if err := yaml.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("parse %s: %w", p.path, err)
	}

	exchanges := make(map[entity.ExchangeName]fileExchange, len(decoded))
	for rawExchange, content := range decoded {
		exchange, err := entity.ParseExchangeName(rawExchange)
		if err != nil {
			return fmt.Errorf("parse %s: %w", p.path, err)
		}
		exchanges[exchange] = content
	}

	p.lock.Lock()
	p.exchanges = exchanges
	p.lock.Unlock()

	return nil
}

func (p *FileProvider) GeneratePairs(_ context.Context, exchange entity.ExchangeName) (entity.PairMapping, error) {
	p.lock.RLock()
	defer p.lock.RUnlock()

	content, ok := p.exchanges[exchange]
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrExchangeNotListed, exchange, p.path)
	}

	pairs := make(entity.PairMapping, len(content.Pairs))
	maps.Copy(pairs, content.Pairs)

	return pairs, nil
}

func (p *FileProvider) InstrumentInfo(_ context.Context, exchange entity.ExchangeName) (entity.InstrumentInfo, error) {
	p.lock.RLock()
	defer p.lock.RUnlock()

	content, ok := p.exchanges[exchange]
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrExchangeNotListed, exchange, p.path)
	}

	info := make(entity.InstrumentInfo, len(content.Instruments))
	for symbol, metadata := range content.Instruments {
		info[symbol] = maps.Clone(metadata)
	}

	return info, nil
}
