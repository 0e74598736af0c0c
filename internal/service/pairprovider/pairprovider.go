// Package pairprovider implements the sources a symbol registry is warmed
// from: postgres, redis, a YAML file and the public REST endpoints of a few
// exchanges, plus a Router that picks one per exchange.
package pairprovider

import (
	"errors"
)

var (
	ErrNoSource           = errors.New("no pair provider configured for exchange")
	ErrUnsupportedSource  = errors.New("unsupported pair provider source")
	ErrExchangeNotListed  = errors.New("exchange not listed by provider")
	ErrUnexpectedResponse = errors.New("unexpected exchange response")
)
