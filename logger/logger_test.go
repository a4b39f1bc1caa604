package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"
)

func TestWithComponent(t *testing.T) {
	log := Logger()
	entry := log.WithComponent("test")
	if v, ok := entry.Entry.Data["component"]; !ok || v != "test" {
		t.Fatalf("component field missing: %v", entry.Entry.Data)
	}
}

func TestConfigureInvalidLevel(t *testing.T) {
	// Ensure environment variables do not override the provided level
	t.Setenv("LOG_LEVEL", "")

	log := Logger()
	if err := log.Configure("invalid", "json", "stdout", 0); err == nil {
		t.Fatalf("expected error for invalid level")
	}
}

func TestConfigureInvalidFormat(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")

	log := Logger()
	if err := log.Configure("info", "xml", "stdout", 0); err == nil {
		t.Fatalf("expected error for invalid format")
	}
}

func TestConfigureFileOutput(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")

	path := filepath.Join(t.TempDir(), "algocrafter.log")
	log := Logger()
	if err := log.Configure("debug", "text", path, 0); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if log.GetLevel().String() != "debug" {
		t.Fatalf("expected debug level, got %s", log.GetLevel())
	}
}

func TestWithEnv(t *testing.T) {
	t.Setenv("FOO", "bar")
	log := Logger()
	entry := log.WithEnv("FOO")
	if v, ok := entry.Entry.Data["FOO"]; !ok || v != "bar" {
		t.Fatalf("env field not set: %v", entry.Entry.Data)
	}
}

func TestLogPerformanceEntry(t *testing.T) {
	var buf bytes.Buffer
	log := Logger()
	log.SetOutput(&buf)

	LogPerformanceEntry(log.WithComponent("x"), "marketdata", "refresh", 1500*time.Microsecond, nil)

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if line["operation"] != "refresh" || line["component"] != "marketdata" {
		t.Fatalf("unexpected fields: %v", line)
	}
	if line["duration_ms"].(float64) != 1.5 {
		t.Fatalf("expected 1.5ms, got %v", line["duration_ms"])
	}
	if line["message"] != "performance metric" {
		t.Fatalf("expected message key remapped, got %v", line)
	}
}

func TestModulePackage(t *testing.T) {
	cases := []struct {
		function string
		want     string
		ok       bool
	}{
		{"algocrafter/internal/presentation/strategies.(*ViewModel).toggle", "internal/presentation/strategies", true},
		{"algocrafter/internal/flow.(*Scope).Launch.func1", "internal/flow", true},
		{"algocrafter/config.LoadConfig", "config", true},
		{"main.runServe", "cmd/algocrafter", true},
		{"testing.tRunner", "", false},
		{"github.com/sirupsen/logrus.(*Entry).Log", "", false},
	}
	for _, c := range cases {
		got, ok := modulePackage(c.function)
		if got != c.want || ok != c.ok {
			t.Fatalf("modulePackage(%q) = %q, %v; want %q, %v", c.function, got, ok, c.want, c.ok)
		}
	}
}

func TestAnnotateKeepsExplicitComponent(t *testing.T) {
	log := Logger()

	entry := log.WithComponent("scheduler").Entry
	annotate(entry, "algocrafter/internal/presentation/marketdata.(*Scheduler).run")
	if entry.Data["component"] != "scheduler" {
		t.Fatalf("explicit component overwritten: %v", entry.Data)
	}
	if entry.Data["package"] != "internal/presentation/marketdata" {
		t.Fatalf("package field = %v", entry.Data["package"])
	}

	bare := log.WithFields(Fields{}).Entry
	annotate(bare, "algocrafter/internal/store/sqlite.(*Repository).Save")
	if bare.Data["component"] != "sqlite" {
		t.Fatalf("component not derived from package: %v", bare.Data)
	}

	foreign := log.WithFields(Fields{}).Entry
	annotate(foreign, "testing.tRunner")
	if _, ok := foreign.Data["package"]; ok {
		t.Fatalf("package set for a frame outside the module: %v", foreign.Data)
	}
}

func TestWrapperFramesAreSkipped(t *testing.T) {
	for _, fn := range []string{
		"github.com/sirupsen/logrus.(*Entry).Info",
		"algocrafter/logger.(*Entry).Info",
		"algocrafter/internal/metrics.EmitMetric",
	} {
		if !isWrapper(packageOf(fn)) {
			t.Fatalf("%s should be skipped", fn)
		}
	}
	if isWrapper(packageOf("algocrafter/internal/metricsx.Emit")) {
		t.Fatalf("prefix match on a different package")
	}
}
