package model

import "strings"

type StrategyType string

const (
	TrendFollowing StrategyType = "TREND_FOLLOWING"
	MeanReversion  StrategyType = "MEAN_REVERSION"
	Arbitrage      StrategyType = "ARBITRAGE"
	Momentum       StrategyType = "MOMENTUM"
	RangeTrading   StrategyType = "RANGE_TRADING"
	Custom         StrategyType = "CUSTOM"
)

// StrategyTypes lists every type in declaration order.
func StrategyTypes() []StrategyType {
	return []StrategyType{TrendFollowing, MeanReversion, Arbitrage, Momentum, RangeTrading, Custom}
}

// ParseStrategyType matches names case-insensitively.
func ParseStrategyType(s string) (StrategyType, error) {
	for _, t := range StrategyTypes() {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", Invalidf("unknown strategy type %q", s)
}

func (t StrategyType) String() string { return string(t) }
