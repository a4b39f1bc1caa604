package metrics

import (
	"context"
	"time"

	"algocrafter/logger"
)

// BufferGauge reports the occupancy of one effect queue.
type BufferGauge struct {
	Name     string
	Length   func() int
	Capacity int
}

// StartEffectBufferMetrics emits occupancy gauges for the given queues every
// interval until ctx is cancelled. When interval <= 0, a one-second cadence
// is used.
func StartEffectBufferMetrics(ctx context.Context, gauges []BufferGauge, interval time.Duration) {
	if !IsFeatureEnabled(FeatureEffectBuffer) || len(gauges) == 0 {
		return
	}
	if interval <= 0 {
		interval = time.Second
	}

	log := logger.GetLogger()
	ticker := time.NewTicker(interval)
	component := "effect_buffers"

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, g := range gauges {
					EmitMetric(log, component, EffectBufferLength, g.Length(), logger.Fields{
						"buffer":   g.Name,
						"capacity": g.Capacity,
					})
				}
			}
		}
	}()
}
