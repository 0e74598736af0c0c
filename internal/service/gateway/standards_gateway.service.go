package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/krobus00/feed-standards/internal/config"
	"github.com/krobus00/feed-standards/internal/constant"
	"github.com/krobus00/feed-standards/internal/entity"
	"github.com/krobus00/feed-standards/internal/service/standards"
	"github.com/krobus00/feed-standards/internal/util"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/singleflight"
)

var (
	ErrWarmFailed           = errors.New("failed to warm exchange")
	ErrPublishWarmFailed    = errors.New("failed to publish warm request")
	ErrJetstreamUnavailable = errors.New("jetstream is not configured")
)

const defaultWarmTimeout = 30 * time.Second

type StandardsGatewayService struct {
	standards *standards.Standards
	js        nats.JetStreamContext

	warmGroup    singleflight.Group
	warmLocks    sync.Map // exchange -> *sync.Mutex
	startupWarms []entity.ExchangeName
}

// NewStandardsGatewayService wires the translators to JetStream. js may be nil,
// in which case warm requests are served locally only.
func NewStandardsGatewayService(std *standards.Standards, js nats.JetStreamContext, startupWarms []entity.ExchangeName) *StandardsGatewayService {
	return &StandardsGatewayService{
		standards:    std,
		js:           js,
		startupWarms: startupWarms,
	}
}

func (s *StandardsGatewayService) Standards() *standards.Standards {
	return s.standards
}

// Warm loads exchange into the registry. Concurrent calls for one exchange
// share a single provider round trip.
func (s *StandardsGatewayService) Warm(ctx context.Context, exchange entity.ExchangeName, reset bool) (entity.WarmedEvent, error) {
	key := exchange.String()
	if reset {
		key += ":reset"
	}

	result, err, shared := s.warmGroup.Do(key, func() (any, error) {
		// a reset and a plain warm of one exchange must not interleave
		unlock := s.lockExchange(exchange)
		defer unlock()

		if reset {
			s.standards.Registry.Reset(exchange)
		}

		if err := s.standards.Registry.Warm(ctx, exchange); err != nil {
			return nil, err
		}

		return entity.WarmedEvent{
			Exchange:  exchange,
			PairCount: len(s.standards.Registry.Pairs(exchange)),
			Exempt:    s.standards.Registry.IsExempt(exchange),
			WarmedAt:  time.Now().UTC(),
		}, nil
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"exchange": exchange,
			"reset":    reset,
		}).Error(err)
		return entity.WarmedEvent{}, fmt.Errorf("%w: %v", ErrWarmFailed, err)
	}

	event := result.(entity.WarmedEvent)
	if !shared && s.js != nil {
		if err := util.PublishEvent(s.js, constant.StandardsStreamSubjectWarmed, event); err != nil {
			logrus.WithField("exchange", exchange).Warnf("failed to publish warmed event: %v", err)
		}
	}

	return event, nil
}

func (s *StandardsGatewayService) lockExchange(exchange entity.ExchangeName) func() {
	value, _ := s.warmLocks.LoadOrStore(exchange, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()

	return mu.Unlock
}

// WarmAll warms exchanges in parallel and reports every failure.
func (s *StandardsGatewayService) WarmAll(ctx context.Context, exchanges []entity.ExchangeName) error {
	p := pool.New().WithContext(ctx)
	for _, exchange := range exchanges {
		p.Go(func(ctx context.Context) error {
			_, err := s.Warm(ctx, exchange, false)
			return err
		})
	}

	return p.Wait()
}

func (s *StandardsGatewayService) WarmOnStart(ctx context.Context) error {
	return s.WarmAll(ctx, s.startupWarms)
}

// Ready reports whether every exchange warmed on start is loaded.
func (s *StandardsGatewayService) Ready() bool {
	for _, exchange := range s.startupWarms {
		if !s.standards.Registry.Warmed(exchange) {
			return false
		}
	}

	return true
}

// RequestWarm asks every gateway replica to warm exchange.
func (s *StandardsGatewayService) RequestWarm(ctx context.Context, exchange entity.ExchangeName, reset bool) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if s.js == nil {
		return ErrJetstreamUnavailable
	}

	err := util.PublishEvent(s.js, constant.StandardsStreamSubjectWarm, entity.WarmRequestEvent{
		Exchange: exchange,
		Reset:    reset,
	})
	if err != nil {
		logrus.Error(err)
		return ErrPublishWarmFailed
	}

	return nil
}

func (s *StandardsGatewayService) JetstreamEventInit(ctx context.Context) error {
	if s.js == nil {
		return ErrJetstreamUnavailable
	}

	streamConfig := &nats.StreamConfig{
		Name:      constant.StandardsStreamName,
		Subjects:  []string{constant.StandardsStreamSubjectAll},
		Retention: nats.LimitsPolicy,
		Storage:   nats.FileStorage,
		MaxAge:    1 * time.Hour,
		Replicas:  1,
	}

	stream, err := s.js.StreamInfo(constant.StandardsStreamName, nats.Context(ctx))
	if err != nil && !errors.Is(err, nats.ErrStreamNotFound) {
		logrus.Error(err)
		return err
	}

	if stream == nil {
		logrus.Infof("creating stream: %s", constant.StandardsStreamName)
		_, err = s.js.AddStream(streamConfig, nats.Context(ctx))
		return err
	}

	logrus.Infof("updating stream: %s", constant.StandardsStreamName)
	_, err = s.js.UpdateStream(streamConfig, nats.Context(ctx))
	if err != nil {
		logrus.Error(err)
		return err
	}

	return nil
}

// JetstreamEventSubscribe consumes warm requests. Every replica keeps its own
// registry, so each one gets every request instead of sharing a queue.
func (s *StandardsGatewayService) JetstreamEventSubscribe(ctx context.Context) error {
	err := s.JetstreamEventInit(ctx)
	if err != nil {
		logrus.Error(err)
		return err
	}

	timeout := defaultWarmTimeout
	if config.Env != nil {
		if configured := config.Env.NatsJetstream.TimeoutHandler["warm"]; configured > 0 {
			timeout = configured
		}
	}

	_, err = s.js.Subscribe(
		constant.StandardsStreamSubjectWarm,
		func(msg *nats.Msg) {
			err := util.ProcessWithTimeout(timeout, msg, s.handleWarmEvent)
			if err != nil {
				logrus.Errorf("error processing message: %v", err)
				return
			}

			err = msg.Ack()
			if err != nil {
				logrus.Errorf("failed to acknowledge message: %v", err)
				return
			}
		},
		nats.ManualAck(),
		nats.DeliverNew(),
	)
	util.ContinueOrFatal(err)

	return nil
}

func (s *StandardsGatewayService) handleWarmEvent(ctx context.Context, msg *nats.Msg) (err error) {
	logger := logrus.WithFields(logrus.Fields{
		"req": string(msg.Data),
	})

	var req *entity.WarmRequestEvent
	err = json.Unmarshal(msg.Data, &req)
	if err != nil {
		logger.Error(err)
		return err
	}
	if req == nil {
		return nil
	}

	exchange, err := entity.ParseExchangeName(req.Exchange.String())
	if err != nil {
		// malformed requests are dropped, retrying cannot fix them
		logger.Warn(err)
		return nil
	}

	defer func() {
		if err != nil {
			req.RetryCount++
			if s.js == nil || req.RetryCount >= maxRetries() {
				return
			}

			err := util.PublishEvent(s.js, constant.StandardsStreamSubjectWarm, req)
			if err != nil {
				logger.Error(err)
				return
			}
		}
	}()

	_, err = s.Warm(ctx, exchange, req.Reset)
	return err
}

func maxRetries() int {
	if config.Env == nil {
		return 0
	}

	return config.Env.NatsJetstream.MaxRetries
}
