package store

import (
	"time"

	"algocrafter/internal/domain/model"
)

// SampleStrategies returns the starter set with timestamps relative to now.
func SampleStrategies(now time.Time) []model.Strategy {
	day := 24 * time.Hour
	return []model.Strategy{
		{
			ID:          "strategy_1",
			Name:        "Moving Average Crossover",
			Description: "Simple trend-following strategy using 20 and 50 period moving averages",
			Type:        model.TrendFollowing,
			IsActive:    true,
			CreatedAt:   now.Add(-10 * day),
			UpdatedAt:   now.Add(-2 * day),
			Parameters: map[string]interface{}{
				"fastPeriod": 20,
				"slowPeriod": 50,
				"symbol":     "AAPL",
			},
			Tags: []string{"beginner", "trend", "moving-average"},
		},
		{
			ID:          "strategy_2",
			Name:        "RSI Mean Reversion",
			Description: "Buy oversold and sell overbought conditions using RSI indicator",
			Type:        model.MeanReversion,
			IsActive:    true,
			CreatedAt:   now.Add(-7 * day),
			UpdatedAt:   now.Add(-1 * day),
			Parameters: map[string]interface{}{
				"rsiPeriod":       14,
				"oversoldLevel":   30,
				"overboughtLevel": 70,
				"symbol":          "MSFT",
			},
			Tags: []string{"intermediate", "oscillator", "rsi"},
		},
		{
			ID:          "strategy_3",
			Name:        "Bollinger Band Squeeze",
			Description: "Momentum strategy that trades breakouts from low volatility periods",
			Type:        model.Momentum,
			IsActive:    false,
			CreatedAt:   now.Add(-15 * day),
			UpdatedAt:   now.Add(-5 * day),
			Parameters: map[string]interface{}{
				"period":             20,
				"standardDeviations": 2.0,
				"symbol":             "GOOGL",
			},
			Tags: []string{"advanced", "volatility", "bollinger"},
		},
		{
			ID:          "strategy_4",
			Name:        "AI-Generated Momentum",
			Description: "Machine learning based momentum strategy with adaptive parameters",
			Type:        model.Custom,
			IsActive:    true,
			CreatedAt:   now.Add(-3 * day),
			UpdatedAt:   now.Add(-6 * time.Hour),
			Parameters: map[string]interface{}{
				"lookbackPeriod":      30,
				"confidenceThreshold": 0.75,
				"symbol":              "TSLA",
			},
			Tags: []string{"ai", "machine-learning", "momentum"},
		},
	}
}
