package pairprovider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/krobus00/feed-standards/internal/config"
	"github.com/krobus00/feed-standards/internal/entity"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	defaultRESTTimeout     = 15 * time.Second
	defaultRESTMaxRetries  = 3
	defaultRESTBackoffBase = 200 * time.Millisecond
	defaultRESTJitter      = 100 * time.Millisecond
)

type marketFetcher func(ctx context.Context, client *restClient) (entity.PairMapping, entity.InstrumentInfo, error)

type restExchange struct {
	baseURL string
	timeout time.Duration
	fetch   marketFetcher
}

var restFetchers = map[entity.ExchangeName]struct {
	baseURL string
	fetch   marketFetcher
}{
	entity.ExchangeBinance:   {baseURL: "https://api.binance.com", fetch: fetchBinanceMarkets},
	entity.ExchangeBinanceUS: {baseURL: "https://api.binance.us", fetch: fetchBinanceMarkets},
	entity.ExchangeCoinbase:  {baseURL: "https://api.exchange.coinbase.com", fetch: fetchCoinbaseMarkets},
}

// RESTProvider lists the markets of an exchange from its public REST API.
type RESTProvider struct {
	httpClient *http.Client
	exchanges  map[entity.ExchangeName]restExchange
	backoff    func() retry.Backoff
}

// NewRESTProvider builds a provider for every exchange with a known market
// listing endpoint. cfgs overrides base url and timeout per exchange.
func NewRESTProvider(cfgs map[string]config.RestExchangeConfig) *RESTProvider {
	exchanges := make(map[entity.ExchangeName]restExchange, len(restFetchers))
	for name, fetcher := range restFetchers {
		exchanges[name] = restExchange{
			baseURL: fetcher.baseURL,
			timeout: defaultRESTTimeout,
			fetch:   fetcher.fetch,
		}
	}

	for rawName, cfg := range cfgs {
		name, err := entity.ParseExchangeName(rawName)
		if err != nil {
			logrus.WithField("exchange", rawName).Warn("ignoring rest exchange config: unknown exchange")
			continue
		}

		exchange, ok := exchanges[name]
		if !ok {
			logrus.WithField("exchange", name).Warn("ignoring rest exchange config: no market listing support")
			continue
		}
		if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
			exchange.baseURL = strings.TrimRight(baseURL, "/")
		}
		if cfg.Timeout > 0 {
			exchange.timeout = cfg.Timeout
		}
		exchanges[name] = exchange
	}

	return &RESTProvider{
		httpClient: &http.Client{},
		exchanges:  exchanges,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(defaultRESTMaxRetries, retry.WithJitter(defaultRESTJitter, retry.NewExponential(defaultRESTBackoffBase)))
		},
	}
}

func (p *RESTProvider) Supports(exchange entity.ExchangeName) bool {
	_, ok := p.exchanges[exchange]
	return ok
}

func (p *RESTProvider) Exchanges() []entity.ExchangeName {
	names := make([]entity.ExchangeName, 0, len(p.exchanges))
	for name := range p.exchanges {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	return names
}

// Markets fetches pairs and instrument metadata in a single request.
func (p *RESTProvider) Markets(ctx context.Context, exchange entity.ExchangeName) (entity.PairMapping, entity.InstrumentInfo, error) {
	target, ok := p.exchanges[exchange]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s has no rest market listing", ErrExchangeNotListed, exchange)
	}

	ctx, cancel := context.WithTimeout(ctx, target.timeout)
	defer cancel()

	client := &restClient{
		httpClient: p.httpClient,
		baseURL:    target.baseURL,
		exchange:   exchange,
		backoff:    p.backoff,
	}

	pairs, info, err := target.fetch(ctx, client)
	if err != nil {
		return nil, nil, err
	}

	logrus.WithFields(logrus.Fields{
		"exchange": exchange,
		"pairs":    len(pairs),
	}).Info("fetched exchange markets")

	return pairs, info, nil
}

func (p *RESTProvider) GeneratePairs(ctx context.Context, exchange entity.ExchangeName) (entity.PairMapping, error) {
	pairs, _, err := p.Markets(ctx, exchange)
	return pairs, err
}

func (p *RESTProvider) InstrumentInfo(ctx context.Context, exchange entity.ExchangeName) (entity.InstrumentInfo, error) {
	_, info, err := p.Markets(ctx, exchange)
	return info, err
}

type restClient struct {
	httpClient *http.Client
	baseURL    string
	exchange   entity.ExchangeName
	backoff    func() retry.Backoff
}

// getJSON retries transport failures and 5xx/429 responses.
func (c *restClient) getJSON(ctx context.Context, path string, out any) error {
	endpoint := c.baseURL + path

	return retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(err)
		}

		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			logrus.WithFields(logrus.Fields{
				"exchange": c.exchange,
				"endpoint": endpoint,
				"status":   resp.StatusCode,
			}).Warn("exchange market request failed, retrying")
			return retry.RetryableError(fmt.Errorf("%w: %s status=%d", ErrUnexpectedResponse, c.exchange, resp.StatusCode))
		}
		if resp.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("%w: %s status=%d body=%s", ErrUnexpectedResponse, c.exchange, resp.StatusCode, string(body))
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("%w: %s parse failed: %v", ErrUnexpectedResponse, c.exchange, err)
		}

		return nil
	})
}

// normalizeDecimal drops trailing zeros, "0.01000000" becomes "0.01".
func normalizeDecimal(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	value, err := decimal.NewFromString(raw)
	if err != nil {
		return "", false
	}

	return value.String(), true
}

func standardSymbol(base, quote string) string {
	return strings.ToUpper(strings.TrimSpace(base)) + entity.SymbolSeparator + strings.ToUpper(strings.TrimSpace(quote))
}
