package metrics

import (
	"sync"
	"time"

	"algocrafter/logger"
)

// Kind is how a metric value should be read.
type Kind string

const (
	Counter Kind = "counter"
	Gauge   Kind = "gauge"
)

// Name is one metric of the catalogue below. Names outside it are never
// emitted.
type Name string

const (
	RefreshCandles     Name = "refresh_candles"
	RefreshFailures    Name = "refresh_failures"
	SchedulerPasses    Name = "scheduler_passes"
	SchedulerFailures  Name = "scheduler_failures"
	EffectBufferLength Name = "effect_buffer_length"
)

type descriptor struct {
	feature Feature
	kind    Kind
}

var catalogue = map[Name]descriptor{
	RefreshCandles:     {FeatureRefresh, Gauge},
	RefreshFailures:    {FeatureRefresh, Counter},
	SchedulerPasses:    {FeatureRefresh, Counter},
	SchedulerFailures:  {FeatureRefresh, Gauge},
	EffectBufferLength: {FeatureEffectBuffer, Gauge},
}

// Names lists the catalogue.
func Names() []Name {
	out := make([]Name, 0, len(catalogue))
	for n := range catalogue {
		out = append(out, n)
	}
	return out
}

func (n Name) Known() bool {
	_, ok := catalogue[n]
	return ok
}

func (n Name) Feature() Feature { return catalogue[n].feature }

func (n Name) Kind() Kind { return catalogue[n].kind }

type Metric struct {
	Timestamp time.Time
	Component string
	Name      Name
	Kind      Kind
	Value     interface{}
	Fields    logger.Fields
}

type MetricHandler func(Metric)

type MetricHandlerID uint64

type registration struct {
	handler  MetricHandler
	features map[Feature]bool
}

func (r registration) wants(f Feature) bool {
	return len(r.features) == 0 || r.features[f]
}

var (
	metricHandlersMu    sync.RWMutex
	metricHandlers      = make(map[MetricHandlerID]registration)
	nextMetricHandlerID MetricHandlerID
)

// RegisterMetricHandler subscribes handler to the given features, or to
// every feature when none are given. A nil handler gets the zero id.
func RegisterMetricHandler(handler MetricHandler, features ...Feature) MetricHandlerID {
	if handler == nil {
		return 0
	}
	reg := registration{handler: handler}
	if len(features) > 0 {
		reg.features = make(map[Feature]bool, len(features))
		for _, f := range features {
			reg.features[f] = true
		}
	}

	metricHandlersMu.Lock()
	defer metricHandlersMu.Unlock()
	nextMetricHandlerID++
	id := nextMetricHandlerID
	metricHandlers[id] = reg
	return id
}

func UnregisterMetricHandler(id MetricHandlerID) {
	if id == 0 {
		return
	}
	metricHandlersMu.Lock()
	delete(metricHandlers, id)
	metricHandlersMu.Unlock()
}

func recordMetric(log *logger.Log, component string, name Name, value interface{}, fields logger.Fields) (Metric, bool) {
	if log == nil {
		log = logger.GetLogger()
	}
	if !name.Known() {
		log.WithComponent(component).WithFields(logger.Fields{"metric": string(name)}).Debug("unknown metric dropped")
		return Metric{}, false
	}
	if !IsFeatureEnabled(name.Feature()) {
		return Metric{}, false
	}

	metric := Metric{
		Timestamp: now(),
		Component: component,
		Name:      name,
		Kind:      name.Kind(),
		Value:     value,
		Fields:    cloneFields(fields),
	}

	logFields := cloneFields(fields)
	logFields["metric"] = string(name)
	logFields["metric_type"] = string(metric.Kind)
	logFields["feature"] = string(name.Feature())
	logFields["value"] = value
	log.WithComponent(component).WithFields(logFields).Info("metric")

	dispatchMetric(metric)
	return metric, true
}

func dispatchMetric(metric Metric) {
	feature := metric.Name.Feature()

	metricHandlersMu.RLock()
	handlers := make([]MetricHandler, 0, len(metricHandlers))
	for _, reg := range metricHandlers {
		if reg.wants(feature) {
			handlers = append(handlers, reg.handler)
		}
	}
	metricHandlersMu.RUnlock()

	for _, handler := range handlers {
		handler(metric)
	}
}

func cloneFields(fields logger.Fields) logger.Fields {
	copied := make(logger.Fields, len(fields)+4)
	for k, v := range fields {
		copied[k] = v
	}
	return copied
}
