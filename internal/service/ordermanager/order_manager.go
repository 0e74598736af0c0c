package ordermanager

import (
	"context"

	"github.com/krobus00/feed-standards/internal/entity"
	"github.com/sirupsen/logrus"
)

type instrumentSource interface {
	InstrumentInfo(ctx context.Context, exchange entity.ExchangeName) (entity.InstrumentInfo, error)
}

type OrderManagerService struct {
	builder     *PayloadBuilder
	dispatcher  entity.OrderDispatcher
	instruments instrumentSource
}

func NewOrderManagerService(builder *PayloadBuilder, dispatcher entity.OrderDispatcher) *OrderManagerService {
	return &OrderManagerService{
		builder:    builder,
		dispatcher: dispatcher,
	}
}

// WithInstruments sets the lookup used to round prices and quantities to the
// increments of the traded instrument.
func (s *OrderManagerService) WithInstruments(source instrumentSource) *OrderManagerService {
	s.instruments = source
	return s
}

// PlaceOrder builds the native payload for order and hands it to the
// dispatcher. The built payload is returned even when dispatching fails.
func (s *OrderManagerService) PlaceOrder(ctx context.Context, order entity.OrderRequest) (entity.OrderPayload, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	instrument := s.instrumentFor(ctx, order)

	payload, err := s.builder.Build(order, instrument)
	if err != nil {
		return nil, err
	}

	if err := s.dispatcher.Dispatch(ctx, order.Exchange, payload); err != nil {
		logrus.WithFields(logrus.Fields{
			"exchange": order.Exchange,
			"symbol":   order.Symbol,
		}).Error(err)
		return payload, err
	}

	return payload, nil
}

func (s *OrderManagerService) instrumentFor(ctx context.Context, order entity.OrderRequest) map[string]any {
	if s.instruments == nil {
		return nil
	}

	info, err := s.instruments.InstrumentInfo(ctx, order.Exchange)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"exchange": order.Exchange,
			"symbol":   order.Symbol,
		}).Warnf("instrument info unavailable, skipping rounding: %v", err)
		return nil
	}

	return info[order.Symbol]
}

// LogDispatcher only logs payloads. Nothing is sent to the exchange.
type LogDispatcher struct{}

func NewLogDispatcher() *LogDispatcher {
	return &LogDispatcher{}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, exchange entity.ExchangeName, payload entity.OrderPayload) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	logrus.WithFields(logrus.Fields{
		"exchange": exchange,
		"payload":  payload,
	}).Info("order payload dispatched")

	return nil
}
