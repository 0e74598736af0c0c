package standards

import (
	"fmt"
	"strings"

	"github.com/krobus00/feed-standards/internal/entity"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

type TimestampNormalizer struct {
	classes TimestampClasses
}

func NewTimestampNormalizer(classes TimestampClasses) *TimestampNormalizer {
	return &TimestampNormalizer{classes: classes}
}

// Class returns TimestampSeconds for exchanges without an entry.
func (n *TimestampNormalizer) Class(exchange entity.ExchangeName) TimestampClass {
	return n.classes[exchange]
}

// Normalize converts an exchange timestamp into epoch seconds.
func (n *TimestampNormalizer) Normalize(exchange entity.ExchangeName, ts any) (float64, error) {
	switch n.Class(exchange) {
	case TimestampGeneric:
		return parseGenericTimestamp(ts)
	case TimestampMilliseconds:
		value, err := toFloat(ts)
		if err != nil {
			return 0, err
		}
		return value / 1000.0, nil
	case TimestampMicroseconds:
		value, err := toFloat(ts)
		if err != nil {
			return 0, err
		}
		return value / 1000000.0, nil
	default:
		return toFloat(ts)
	}
}

func parseGenericTimestamp(ts any) (float64, error) {
	raw, ok := ts.(string)
	if !ok {
		return toFloat(ts)
	}

	raw = strings.TrimSpace(raw)
	if seconds, err := decimal.NewFromString(raw); err == nil {
		return seconds.InexactFloat64(), nil
	}

	parsed, err := cast.ToTimeE(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidTimestamp, raw, err)
	}

	return float64(parsed.Unix()) + float64(parsed.Nanosecond())/1e9, nil
}

func toFloat(ts any) (float64, error) {
	if raw, ok := ts.(string); ok {
		value, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrInvalidTimestamp, raw, err)
		}
		return value.InexactFloat64(), nil
	}

	value, err := cast.ToFloat64E(ts)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidTimestamp, err)
	}

	return value, nil
}
