package entity

import (
	"context"
	"time"
)

type Publisher interface {
	JetstreamEventInit(ctx context.Context) error
}

type Subscriber interface {
	JetstreamEventSubscribe(ctx context.Context) error
}

type WarmRequestEvent struct {
	RetryCount int          `json:"retry"`
	Exchange   ExchangeName `json:"exchange"`
	Reset      bool         `json:"reset"`
}

type WarmedEvent struct {
	Exchange  ExchangeName `json:"exchange"`
	PairCount int          `json:"pair_count"`
	Exempt    bool         `json:"exempt"`
	WarmedAt  time.Time    `json:"warmed_at"`
}
