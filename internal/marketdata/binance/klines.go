// Package binance reads candles from the Binance spot API: REST klines via
// go-binance and live klines over the websocket stream.
package binance

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	gobinance "github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"

	"algocrafter/internal/domain/model"
	"algocrafter/logger"
)

// maxKlinesPerRequest is the exchange limit for one klines call.
const maxKlinesPerRequest = 1000

type Config struct {
	RestURL string
	Timeout time.Duration
}

// Klines pages historical klines out of the REST API.
type Klines struct {
	client *gobinance.Client
	log    *logger.Log
}

func NewKlines(cfg Config) *Klines {
	client := gobinance.NewClient("", "")
	client.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	if cfg.RestURL != "" {
		client.BaseURL = strings.TrimRight(cfg.RestURL, "/")
	}

	log := logger.GetLogger()
	log.WithComponent("binance_klines").WithFields(logger.Fields{
		"base_url": client.BaseURL,
		"timeout":  cfg.Timeout,
	}).Info("binance klines client initialized")

	return &Klines{client: client, log: log}
}

func (k *Klines) Klines(ctx context.Context, symbol string, interval model.TimeInterval, start, end time.Time) ([]model.Candle, error) {
	step := interval.Duration()
	if step <= 0 {
		return nil, model.Invalidf("unsupported interval %s", interval)
	}

	var out []model.Candle
	from := start
	for !from.After(end) {
		page, err := k.client.NewKlinesService().
			Symbol(symbol).
			Interval(interval.String()).
			StartTime(from.UnixMilli()).
			EndTime(end.UnixMilli()).
			Limit(maxKlinesPerRequest).
			Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("klines request: %w", err)
		}
		for _, kl := range page {
			c, err := toCandle(symbol, interval, kl)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
		if len(page) < maxKlinesPerRequest {
			break
		}
		from = time.UnixMilli(page[len(page)-1].OpenTime).Add(step)
	}

	k.log.WithComponent("binance_klines").WithFields(logger.Fields{
		"symbol":   symbol,
		"interval": interval.String(),
		"candles":  len(out),
	}).Debug("klines fetched")
	return out, nil
}

func (k *Klines) Symbols(ctx context.Context) ([]string, error) {
	info, err := k.client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("exchange info: %w", err)
	}
	out := make([]string, 0, len(info.Symbols))
	for _, s := range info.Symbols {
		if s.Status == "TRADING" {
			out = append(out, s.Symbol)
		}
	}
	return out, nil
}

func toCandle(symbol string, interval model.TimeInterval, kl *gobinance.Kline) (model.Candle, error) {
	values := make([]decimal.Decimal, 5)
	for i, raw := range []string{kl.Open, kl.High, kl.Low, kl.Close, kl.Volume} {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return model.Candle{}, fmt.Errorf("parse kline value %q: %w", raw, err)
		}
		values[i] = v
	}
	return model.Candle{
		Symbol:    symbol,
		Timestamp: time.UnixMilli(kl.OpenTime).UTC(),
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    values[4],
		Interval:  interval,
	}, nil
}
