package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"algocrafter/internal/domain/model"
	"algocrafter/logger"
)

type StreamConfig struct {
	StreamURL      string
	ReconnectDelay time.Duration
	// ClosedOnly drops klines that are still forming.
	ClosedOnly bool
}

// Stream subscribes to <symbol>@kline_<interval> and reconnects after
// ReconnectDelay whenever the connection drops.
type Stream struct {
	cfg StreamConfig
	log *logger.Log
}

func NewStream(cfg StreamConfig) *Stream {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	return &Stream{cfg: cfg, log: logger.GetLogger()}
}

type klineEvent struct {
	Event  string `json:"e"`
	Symbol string `json:"s"`
	Kline  struct {
		OpenTime int64  `json:"t"`
		Interval string `json:"i"`
		Open     string `json:"o"`
		Close    string `json:"c"`
		High     string `json:"h"`
		Low      string `json:"l"`
		Volume   string `json:"v"`
		Closed   bool   `json:"x"`
	} `json:"k"`
}

func (s *Stream) url(symbol string, interval model.TimeInterval) string {
	return fmt.Sprintf("%s/ws/%s@kline_%s", strings.TrimRight(s.cfg.StreamURL, "/"), strings.ToLower(symbol), interval)
}

func (s *Stream) Stream(ctx context.Context, symbol string, interval model.TimeInterval) (<-chan model.Candle, error) {
	if !interval.Valid() {
		return nil, model.Invalidf("unsupported interval %d", int(interval))
	}
	out := make(chan model.Candle)
	go s.run(ctx, symbol, interval, out)
	return out, nil
}

func (s *Stream) run(ctx context.Context, symbol string, interval model.TimeInterval, out chan<- model.Candle) {
	defer close(out)
	wsURL := s.url(symbol, interval)
	log := s.log.WithComponent("binance_kline_stream").WithFields(logger.Fields{"symbol": symbol, "interval": interval.String()})

	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
		if err != nil {
			log.WithError(err).Warn("failed to connect websocket, retrying")
			select {
			case <-time.After(s.cfg.ReconnectDelay):
				continue
			case <-ctx.Done():
				return
			}
		}
		log.Info("kline stream connected")

		// Closing the connection unblocks ReadMessage on cancellation.
		var once sync.Once
		closeConn := func() { once.Do(func() { conn.Close() }) }
		stop := context.AfterFunc(ctx, closeConn)

		err = s.read(ctx, conn, symbol, interval, out)
		stop()
		closeConn()
		if ctx.Err() != nil {
			return
		}
		log.WithError(err).Warn("kline stream dropped, reconnecting")
		select {
		case <-time.After(s.cfg.ReconnectDelay):
		case <-ctx.Done():
			return
		}
	}
}

func (s *Stream) read(ctx context.Context, conn *websocket.Conn, symbol string, interval model.TimeInterval, out chan<- model.Candle) error {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var ev klineEvent
		if err := json.Unmarshal(msg, &ev); err != nil || ev.Event != "kline" {
			continue
		}
		if s.cfg.ClosedOnly && !ev.Kline.Closed {
			continue
		}
		c, err := ev.candle(symbol, interval)
		if err != nil {
			s.log.WithComponent("binance_kline_stream").WithError(err).Warn("dropping malformed kline")
			continue
		}
		select {
		case out <- c:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (ev klineEvent) candle(symbol string, interval model.TimeInterval) (model.Candle, error) {
	values := make([]decimal.Decimal, 5)
	for i, raw := range []string{ev.Kline.Open, ev.Kline.High, ev.Kline.Low, ev.Kline.Close, ev.Kline.Volume} {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return model.Candle{}, fmt.Errorf("parse kline value %q: %w", raw, err)
		}
		values[i] = v
	}
	c := model.Candle{
		Symbol:    strings.ToUpper(symbol),
		Timestamp: time.UnixMilli(ev.Kline.OpenTime).UTC(),
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    values[4],
		Interval:  interval,
	}
	return c, c.Validate()
}
