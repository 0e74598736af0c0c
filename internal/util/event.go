package util

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
)

// ProcessWithTimeout runs callback with a deadline. The callback keeps
// running after a timeout but its result is dropped.
func ProcessWithTimeout(timeout time.Duration, msg *nats.Msg, callback func(ctx context.Context, msg *nats.Msg) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- callback(ctx, msg)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("processing timeout on %s: %s", msg.Subject, string(msg.Data))
	case err := <-done:
		return err
	}
}

// PublishEvent encodes data as JSON and publishes it on subject.
func PublishEvent(js nats.JetStreamContext, subject string, data any, opts ...nats.PubOpt) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", subject, err)
	}

	if _, err := js.Publish(subject, payload, opts...); err != nil {
		return fmt.Errorf("publish %s event: %w", subject, err)
	}

	return nil
}
