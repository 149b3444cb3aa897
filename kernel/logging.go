// Package-level structured logging configuration for the kernel.
//
// Logging configuration is package-level: every Kernel instance in the
// process shares the one logger, mirroring how the source kernel's console
// output is a single global sink rather than a per-subsystem setting. Call
// SetLogger once during boot, before Start.
package kernel

import (
	"sync"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/logiface/stumpy"
)

// Category values are attached to every log line emitted by the kernel, so
// log aggregation can filter by scheduler subsystem without parsing the
// message text.
const (
	CategoryDispatch = "dispatch"
	CategoryDonation = "donation"
	CategorySleep    = "sleep"
	CategoryMLFQS    = "mlfqs"
	CategoryTimer    = "timer"
)

var globalLogger struct {
	sync.RWMutex
	logger *logiface.Logger[*stumpy.Event]
}

// SetLogger installs the process-wide kernel logger. Passing nil restores
// the default (a logger at LevelInformational writing JSON lines to
// stderr via the stumpy backend).
func SetLogger(l *logiface.Logger[*stumpy.Event]) {
	globalLogger.Lock()
	defer globalLogger.Unlock()
	globalLogger.logger = l
}

func getLogger() *logiface.Logger[*stumpy.Event] {
	globalLogger.RLock()
	defer globalLogger.RUnlock()
	if globalLogger.logger != nil {
		return globalLogger.logger
	}
	return defaultLogger()
}

var (
	defaultLoggerOnce sync.Once
	defaultLoggerInst *logiface.Logger[*stumpy.Event]
)

func defaultLogger() *logiface.Logger[*stumpy.Event] {
	defaultLoggerOnce.Do(func() {
		defaultLoggerInst = stumpy.L.New(
			stumpy.L.WithStumpy(),
			stumpy.L.WithLevel(logiface.LevelInformational),
		)
	})
	return defaultLoggerInst
}

// logDispatch records a scheduling decision: who ran next and why.
func logDispatch(k *Kernel, category string, msg string, t *Thread, extra map[string]int) {
	l := getLogger()
	b := l.Info()
	if b == nil {
		return
	}
	b = b.Str("category", category).
		Uint64("ticks", k.ticks)
	if t != nil {
		b = b.Int("tid", int(t.tid)).
			Str("name", t.name).
			Int("eff_priority", t.effectivePriority()).
			Int("base_priority", t.basePriority)
	}
	for key, v := range extra {
		b = b.Int(key, v)
	}
	b.Log(msg)
}

func logDebugf(category, msg string) {
	l := getLogger()
	if b := l.Debug(); b != nil {
		b.Str("category", category).Log(msg)
	}
}
