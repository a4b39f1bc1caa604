package logger

import (
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

const modulePath = "algocrafter"

// Packages that log on behalf of their caller. The reported frame is the
// first one outside them.
var wrapperPackages = []string{
	"github.com/sirupsen/logrus",
	modulePath + "/logger",
	modulePath + "/internal/metrics",
}

// callerHook points entry.Caller at the code that asked for the log line and
// tags the entry with that code's package inside the module. Entries without
// a component get the package's last path element.
type callerHook struct{}

func (h *callerHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *callerHook) Fire(entry *logrus.Entry) error {
	pcs := make([]uintptr, 24)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !isWrapper(packageOf(frame.Function)) {
			entry.Caller = &frame
			annotate(entry, frame.Function)
			return nil
		}
		if !more {
			return nil
		}
	}
}

func annotate(entry *logrus.Entry, function string) {
	pkg, ok := modulePackage(function)
	if !ok {
		return
	}
	entry.Data["package"] = pkg
	if _, has := entry.Data["component"]; !has {
		entry.Data["component"] = pkg[strings.LastIndex(pkg, "/")+1:]
	}
}

func isWrapper(pkg string) bool {
	for _, w := range wrapperPackages {
		if pkg == w {
			return true
		}
	}
	return false
}

// packageOf strips the receiver and function from a runtime function name:
// "algocrafter/internal/flow.(*Scope).Launch" is "algocrafter/internal/flow".
func packageOf(function string) string {
	slash := strings.LastIndex(function, "/")
	dot := strings.Index(function[slash+1:], ".")
	if dot < 0 {
		return function
	}
	return function[:slash+1+dot]
}

// modulePackage is the package path relative to the module root. The command
// binary reports as package main.
func modulePackage(function string) (string, bool) {
	pkg := packageOf(function)
	switch {
	case pkg == "main":
		return "cmd/algocrafter", true
	case strings.HasPrefix(pkg, modulePath+"/"):
		return strings.TrimPrefix(pkg, modulePath+"/"), true
	default:
		return "", false
	}
}
