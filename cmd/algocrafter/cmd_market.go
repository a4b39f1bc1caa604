package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"algocrafter/internal/app"
	"algocrafter/internal/domain/model"
)

var (
	intervalFlag string
	daysFlag     int
	force        bool
	refreshStale bool
)

var marketCmd = &cobra.Command{
	Use:   "market",
	Short: "Refresh and inspect market data",
}

var marketRefreshCmd = &cobra.Command{
	Use:   "refresh [symbol...]",
	Short: "Refresh recent candles for one or more symbols",
	Args:  cobra.MinimumNArgs(1),
	RunE:  withContainer(refreshMarket),
}

var marketWatchCmd = &cobra.Command{
	Use:   "watch [symbol]",
	Short: "Print real-time candles until interrupted",
	Args:  cobra.ExactArgs(1),
	RunE:  withContainer(watchMarket),
}

var marketStaleCmd = &cobra.Command{
	Use:   "stale",
	Short: "Report which watchlist entries need a refresh",
	Args:  cobra.NoArgs,
	RunE:  withContainer(reportStale),
}

func init() {
	for _, cmd := range []*cobra.Command{marketRefreshCmd, marketWatchCmd} {
		cmd.Flags().StringVarP(&intervalFlag, "interval", "i", model.OneHour.String(), "Candle interval, e.g. 15m, 1h, 1d")
	}
	marketRefreshCmd.Flags().IntVar(&daysFlag, "days", 0, "Days of history to refresh (default from config)")
	marketRefreshCmd.Flags().BoolVar(&force, "force", false, "Clear the cache before refreshing")
	marketStaleCmd.Flags().BoolVar(&refreshStale, "refresh", false, "Refresh the stale entries")

	marketCmd.AddCommand(marketRefreshCmd)
	marketCmd.AddCommand(marketWatchCmd)
	marketCmd.AddCommand(marketStaleCmd)
}

func refreshMarket(ctx context.Context, c *app.Container, args []string) error {
	interval, err := model.ParseTimeInterval(intervalFlag)
	if err != nil {
		return err
	}
	days := daysFlag
	if days == 0 {
		days = c.Config.MarketData.RefreshDays
	}

	if force {
		for _, symbol := range args {
			data, err := c.RefreshMarketData.ForceRefresh(ctx, symbol, interval)
			if err != nil {
				return err
			}
			printMarketData(symbol, data)
		}
		return nil
	}

	results, err := c.RefreshMarketData.RefreshMultiple(ctx, args, interval, days)
	if err != nil {
		return err
	}
	for _, symbol := range args {
		printMarketData(symbol, results[symbol])
	}
	return nil
}

func printMarketData(symbol string, data *model.MarketData) {
	if data == nil || data.CandleCount() == 0 {
		fmt.Printf("%-10s no data\n", symbol)
		return
	}
	last := data.Candles[len(data.Candles)-1]
	fmt.Printf("%-10s %4d candles  last close %s  updated %s\n",
		data.Symbol, data.CandleCount(), last.Close.StringFixed(2), data.LastUpdated.Format(time.RFC3339))
}

func watchMarket(ctx context.Context, c *app.Container, args []string) error {
	interval, err := model.ParseTimeInterval(intervalFlag)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	candles, err := c.GetCandleData.RealTime(ctx, args[0], interval)
	if err != nil {
		return err
	}
	for candle := range candles {
		fmt.Printf("%s %s O %s H %s L %s C %s V %s\n",
			candle.Timestamp.Format(time.RFC3339), candle.Symbol,
			candle.Open.StringFixed(2), candle.High.StringFixed(2), candle.Low.StringFixed(2),
			candle.Close.StringFixed(2), candle.Volume.StringFixed(2))
	}
	return nil
}

func reportStale(ctx context.Context, c *app.Container, _ []string) error {
	entries, err := app.Watchlist(c.Config.MarketData)
	if err != nil {
		return err
	}
	maxAge := c.Config.MarketData.MaxAge
	for _, e := range entries {
		stale, err := c.RefreshMarketData.NeedsUpdate(ctx, e.Symbol, e.Interval, maxAge)
		if err != nil {
			return err
		}
		fmt.Printf("%-10s %-4s stale=%t\n", e.Symbol, e.Interval, stale)
	}
	if refreshStale {
		c.Scheduler.RunNow(ctx)
	}
	return nil
}
