package binance

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"algocrafter/internal/domain/model"
)

func TestKlinesParsesRESTResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v3/klines":
			if r.URL.Query().Get("symbol") != "BTCUSDT" || r.URL.Query().Get("interval") != "1h" {
				t.Errorf("unexpected query %s", r.URL.RawQuery)
			}
			fmt.Fprint(w, `[
				[1767225600000,"100.5","110.0","99.0","105.25","12.5",1767229199999,"0",10,"0","0","0"],
				[1767229200000,"105.25","106.0","101.0","102.0","8",1767232799999,"0",7,"0","0","0"]
			]`)
		case "/api/v3/exchangeInfo":
			fmt.Fprint(w, `{"symbols":[{"symbol":"BTCUSDT","status":"TRADING"},{"symbol":"OLDUSDT","status":"BREAK"}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	k := NewKlines(Config{RestURL: srv.URL, Timeout: time.Second})
	start := time.UnixMilli(1767225600000)
	candles, err := k.Klines(context.Background(), "BTCUSDT", model.OneHour, start, start.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("klines: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(candles))
	}
	if candles[0].Close.String() != "105.25" || !candles[1].Timestamp.Equal(start.Add(time.Hour)) {
		t.Fatalf("unexpected candles %+v", candles)
	}
	if candles[0].Interval != model.OneHour || candles[0].Symbol != "BTCUSDT" {
		t.Fatalf("candle metadata missing: %+v", candles[0])
	}

	symbols, err := k.Symbols(context.Background())
	if err != nil || len(symbols) != 1 || symbols[0] != "BTCUSDT" {
		t.Fatalf("symbols: %v %v", symbols, err)
	}
}

func TestStreamForwardsClosedKlines(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws/ethusdt@kline_1m" {
			t.Errorf("unexpected stream path %s", r.URL.Path)
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		frames := []string{
			`{"e":"kline","s":"ETHUSDT","k":{"t":1767225600000,"i":"1m","o":"10","c":"11","h":"12","l":"9","v":"3","x":false}}`,
			`{"e":"kline","s":"ETHUSDT","k":{"t":1767225600000,"i":"1m","o":"10","c":"11.5","h":"12","l":"9","v":"4","x":true}}`,
			`not json`,
		}
		for _, f := range frames {
			conn.WriteMessage(websocket.TextMessage, []byte(f))
		}
		// Hold the connection until the client goes away.
		conn.ReadMessage()
	}))
	defer srv.Close()

	s := NewStream(StreamConfig{
		StreamURL:      "ws" + strings.TrimPrefix(srv.URL, "http"),
		ReconnectDelay: 10 * time.Millisecond,
		ClosedOnly:     true,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ch, err := s.Stream(ctx, "ETHUSDT", model.OneMinute)
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	c, ok := <-ch
	if !ok {
		t.Fatalf("stream closed early")
	}
	if c.Close.String() != "11.5" || c.Volume.String() != "4" {
		t.Fatalf("expected the closed kline, got %+v", c)
	}

	cancel()
	for range ch {
	}
}
