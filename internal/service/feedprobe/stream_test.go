package feedprobe

import (
	"bytes"
	"compress/flate"
	"context"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/krobus00/feed-standards/internal/entity"
)

func newFeedServer(t *testing.T, subscribed chan<- string, frames func(conn *websocket.Conn)) string {
	t.Helper()

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		subscribed <- string(message)

		frames(conn)

		// hold the connection until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func runStream(t *testing.T, exchange entity.ExchangeName, url string) entity.Trade {
	t.Helper()

	std := newTestStandards(t)
	builder, err := NewSubscriptionBuilder(std, map[string]string{string(exchange): url})
	if err != nil {
		t.Fatal(err)
	}

	symbol := "BTC-USD"
	if exchange == entity.ExchangeBinance || exchange == entity.ExchangeOKEx {
		symbol = "BTC-USDT"
	}

	sub, err := builder.Build(exchange, []entity.Channel{entity.ChannelTrades}, []string{symbol})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	received := make(chan entity.Trade, 1)
	stream := NewStream(std, sub, func(ctx context.Context, trade entity.Trade) error {
		select {
		case received <- trade:
		default:
		}
		return nil
	}, WithPingInterval(time.Hour), WithReconnectDelay(10*time.Millisecond, 20*time.Millisecond))

	done := make(chan error, 1)
	go func() {
		done <- stream.Run(ctx)
	}()

	var trade entity.Trade
	select {
	case trade = <-received:
	case <-ctx.Done():
		t.Fatal("timed out waiting for trade")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	return trade
}

func TestStreamRun(t *testing.T) {
	subscribed := make(chan string, 4)
	url := newFeedServer(t, subscribed, func(conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"subscriptions"}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"match","trade_id":1,"product_id":"BTC-USD","size":"0.1","price":"10000","side":"sell","time":"2020-09-13T12:26:40Z"}`))
	})

	trade := runStream(t, entity.ExchangeCoinbase, url)

	if got := <-subscribed; got != `{"channels":["matches"],"product_ids":["BTC-USD"],"type":"subscribe"}` {
		t.Fatalf("unexpected subscribe message %s", got)
	}
	if trade.Symbol != "BTC-USD" || trade.Side != entity.OrderSideBuy || trade.Timestamp != 1600000000 {
		t.Fatalf("unexpected trade %+v", trade)
	}
}

func TestStreamRunInflatesBinaryFrames(t *testing.T) {
	subscribed := make(chan string, 4)
	url := newFeedServer(t, subscribed, func(conn *websocket.Conn) {
		var buf bytes.Buffer
		writer, _ := flate.NewWriter(&buf, flate.BestSpeed)
		_, _ = writer.Write([]byte(`{"table":"spot/trade","data":[{"instrument_id":"BTC-USDT","price":"1","side":"sell","size":"2","timestamp":"2020-09-13T12:26:40Z","trade_id":"9"}]}`))
		_ = writer.Close()
		_ = conn.WriteMessage(websocket.BinaryMessage, buf.Bytes())
	})

	trade := runStream(t, entity.ExchangeOKEx, url)

	<-subscribed
	if trade.Symbol != "BTC-USDT" || trade.Side != entity.OrderSideSell || trade.TradeID != "9" {
		t.Fatalf("unexpected trade %+v", trade)
	}
}

func TestStreamRunReconnects(t *testing.T) {
	subscribed := make(chan string, 4)
	var connections atomic.Int32
	url := newFeedServer(t, subscribed, func(conn *websocket.Conn) {
		if connections.Add(1) == 1 {
			_ = conn.Close()
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"e":"aggTrade","s":"BTCUSDT","a":5,"p":"1","q":"1","T":1600000000000,"m":false}`))
	})

	trade := runStream(t, entity.ExchangeBinance, url)

	if len(subscribed) < 2 {
		t.Fatalf("expected a resubscribe after reconnect, got %d subscriptions", len(subscribed))
	}
	if trade.Symbol != "BTC-USDT" || trade.Side != entity.OrderSideBuy {
		t.Fatalf("unexpected trade %+v", trade)
	}
}

func TestStreamReconnectDelay(t *testing.T) {
	stream := NewStream(nil, Subscription{}, nil, WithReconnectDelay(time.Second, 4*time.Second))
	rng := rand.New(rand.NewSource(1))

	for attempt := 0; attempt < 10; attempt++ {
		wait := stream.reconnectDelay(attempt, rng)
		if wait < time.Second || wait > 4*time.Second {
			t.Fatalf("attempt %d: delay %s out of range", attempt, wait)
		}
	}
}
