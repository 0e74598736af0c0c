package feedprobe

import (
	"bytes"
	"compress/flate"
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/gorilla/websocket"
	"github.com/krobus00/feed-standards/internal/constant"
	"github.com/krobus00/feed-standards/internal/entity"
	"github.com/krobus00/feed-standards/internal/infrastructure"
	"github.com/krobus00/feed-standards/internal/service/standards"
	"github.com/krobus00/feed-standards/internal/util"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

const (
	defaultPingInterval      = 30 * time.Second
	defaultReconnectMinDelay = 1 * time.Second
	defaultReconnectMaxDelay = 15 * time.Second
	reconnectFactor          = 2.0
)

type TradeHandler func(ctx context.Context, trade entity.Trade) error

type StreamOption func(*Stream)

func WithPingInterval(interval time.Duration) StreamOption {
	return func(s *Stream) {
		if interval > 0 {
			s.pingInterval = interval
		}
	}
}

func WithReconnectDelay(minDelay, maxDelay time.Duration) StreamOption {
	return func(s *Stream) {
		if minDelay > 0 {
			s.reconnectMin = minDelay
		}
		if maxDelay >= s.reconnectMin {
			s.reconnectMax = maxDelay
		}
	}
}

// WithTradePublisher publishes every decoded trade to JetStream before the
// handler runs.
func WithTradePublisher(js nats.JetStreamContext) StreamOption {
	return func(s *Stream) {
		s.js = js
	}
}

// Stream keeps one exchange websocket open, resubscribing after every
// reconnect, and hands decoded trades to a handler.
type Stream struct {
	std     *standards.Standards
	sub     Subscription
	handler TradeHandler
	dialer  *websocket.Dialer
	js      nats.JetStreamContext

	pingInterval time.Duration
	reconnectMin time.Duration
	reconnectMax time.Duration
}

func NewStream(std *standards.Standards, sub Subscription, handler TradeHandler, opts ...StreamOption) *Stream {
	s := &Stream{
		std:          std,
		sub:          sub,
		handler:      handler,
		dialer:       websocket.DefaultDialer,
		pingInterval: defaultPingInterval,
		reconnectMin: defaultReconnectMinDelay,
		reconnectMax: defaultReconnectMaxDelay,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run blocks until ctx is done. Dial, subscribe and read failures are logged
// and retried with jittered exponential backoff.
func (s *Stream) Run(ctx context.Context) error {
	logger := logrus.WithFields(logrus.Fields{"exchange": s.sub.Exchange, "url": s.sub.URL})

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	attempt := 0

	for {
		if ctx.Err() != nil {
			return nil
		}

		if err := s.session(ctx, logger); err != nil {
			wait := s.reconnectDelay(attempt, rng)
			attempt++
			logger.WithFields(logrus.Fields{"retry_in": wait.String(), "attempt": attempt}).Warnf("feed stream failed: %v", err)
			select {
			case <-time.After(wait):
				continue
			case <-ctx.Done():
				return nil
			}
		}

		attempt = 0
	}
}

// session runs one connection. It returns nil only when ctx is done.
func (s *Stream) session(ctx context.Context, logger *logrus.Entry) error {
	decoder, err := NewTradeDecoder(s.std, s.sub.Exchange)
	if err != nil {
		return err
	}

	logger.Info("connecting feed stream")
	conn, _, err := s.dialer.DialContext(ctx, s.sub.URL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	for _, message := range s.sub.Messages {
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return fmt.Errorf("subscribe: %w", err)
		}
	}

	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					logger.Error(err)
					return
				}
			case <-ctx.Done():
				_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
				_ = conn.Close()
				return
			case <-done:
				return
			}
		}
	}()

	for {
		kind, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		if kind == websocket.BinaryMessage {
			message, err = inflate(message)
			if err != nil {
				logger.Errorf("inflate message: %v", err)
				continue
			}
		}

		trades, err := decoder.Decode(message)
		if err != nil {
			logger.Errorf("decode message: %v", err)
			continue
		}

		for _, trade := range trades {
			s.publish(logger, trade)

			if err := s.handler(ctx, trade); err != nil {
				logger.WithField("symbol", trade.Symbol).Errorf("handle trade: %v", err)
			}
		}
	}
}

func (s *Stream) publish(logger *logrus.Entry, trade entity.Trade) {
	if s.js == nil {
		return
	}

	var opts []nats.PubOpt
	if trade.TradeID != "" {
		// lets JetStream drop trades replayed after a reconnect
		opts = append(opts, nats.MsgId(trade.Exchange.String()+":"+trade.Symbol+":"+trade.TradeID))
	}

	err := util.PublishEvent(s.js, constant.StandardsStreamSubjectTrades, entity.TradeEvent{Data: trade}, opts...)
	if err != nil {
		logger.WithField("symbol", trade.Symbol).Errorf("publish trade: %v", err)
	}
}

func (s *Stream) reconnectDelay(attempt int, rng *rand.Rand) time.Duration {
	return infrastructure.BackoffWithJitter(attempt, reconnectFactor, s.reconnectMin, s.reconnectMax, rng)
}

// OKEx compresses frames with raw deflate.
func inflate(message []byte) ([]byte, error) {
	reader := flate.NewReader(bytes.NewReader(message))
	defer reader.Close()

	return io.ReadAll(reader)
}
