package model

import (
	"fmt"
	"time"
)

// TimeInterval is a candle period.
type TimeInterval int

const (
	OneMinute TimeInterval = iota + 1
	FiveMinutes
	FifteenMinutes
	ThirtyMinutes
	OneHour
	FourHours
	OneDay
	OneWeek
	OneMonth
)

var intervalTable = []struct {
	interval TimeInterval
	name     string
	minutes  int
}{
	{OneMinute, "1m", 1},
	{FiveMinutes, "5m", 5},
	{FifteenMinutes, "15m", 15},
	{ThirtyMinutes, "30m", 30},
	{OneHour, "1h", 60},
	{FourHours, "4h", 240},
	{OneDay, "1d", 1440},
	{OneWeek, "1w", 10080},
	{OneMonth, "1M", 43200},
}

// Intervals lists every supported interval, shortest first.
func Intervals() []TimeInterval {
	out := make([]TimeInterval, 0, len(intervalTable))
	for _, row := range intervalTable {
		out = append(out, row.interval)
	}
	return out
}

// ParseTimeInterval accepts the display name, e.g. "15m" or "1M".
func ParseTimeInterval(s string) (TimeInterval, error) {
	for _, row := range intervalTable {
		if row.name == s {
			return row.interval, nil
		}
	}
	return 0, Invalidf("unknown time interval %q", s)
}

func (i TimeInterval) String() string {
	if i >= OneMinute && int(i) <= len(intervalTable) {
		return intervalTable[i-1].name
	}
	return fmt.Sprintf("TimeInterval(%d)", int(i))
}

func (i TimeInterval) Minutes() int {
	if i >= OneMinute && int(i) <= len(intervalTable) {
		return intervalTable[i-1].minutes
	}
	return 0
}

func (i TimeInterval) Duration() time.Duration {
	return time.Duration(i.Minutes()) * time.Minute
}

func (i TimeInterval) Valid() bool { return i.Minutes() > 0 }

func (i TimeInterval) MarshalText() ([]byte, error) {
	if !i.Valid() {
		return nil, Invalidf("unknown time interval %d", int(i))
	}
	return []byte(i.String()), nil
}

func (i *TimeInterval) UnmarshalText(b []byte) error {
	v, err := ParseTimeInterval(string(b))
	if err != nil {
		return err
	}
	*i = v
	return nil
}
