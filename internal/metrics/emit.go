package metrics

import (
	"sync"
	"time"

	"algocrafter/config"
	"algocrafter/logger"
)

// Feature groups metrics that can be switched off from configuration.
type Feature string

const (
	FeatureRefresh      Feature = "refresh"
	FeatureEffectBuffer Feature = "effect_buffer"
)

var (
	featuresMu sync.RWMutex
	features   = map[Feature]bool{
		FeatureRefresh:      true,
		FeatureEffectBuffer: true,
	}

	now = time.Now
)

// Configure applies the metrics section of the configuration.
func Configure(cfg config.MetricsConfig) {
	featuresMu.Lock()
	features[FeatureRefresh] = cfg.Refresh
	features[FeatureEffectBuffer] = cfg.EffectBuffer
	featuresMu.Unlock()
}

func IsFeatureEnabled(f Feature) bool {
	featuresMu.RLock()
	defer featuresMu.RUnlock()
	return features[f]
}

// IsMetricEnabled reports whether name is catalogued and its feature is on.
func IsMetricEnabled(name Name) bool {
	return name.Known() && IsFeatureEnabled(name.Feature())
}

// EmitMetric logs the metric and hands it to every handler subscribed to its
// feature. The kind comes from the catalogue.
func EmitMetric(log *logger.Log, component string, name Name, value interface{}, fields logger.Fields) {
	recordMetric(log, component, name, value, fields)
}
