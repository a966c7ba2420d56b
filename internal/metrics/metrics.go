// Package metrics collects execution statistics from the instruction
// engine: how many instructions ran, how many failed, and how long the
// dispatch path took. The Recorder interface keeps the engine decoupled
// from any particular backend.
package metrics

import (
	"log/slog"
	"sync"
	"time"
)

// Recorder receives execution events from the engine. Implementations must
// be safe for concurrent use.
type Recorder interface {
	// IncrementCounter adds value to the named monotonic counter.
	IncrementCounter(name string, value uint64)

	// RecordDuration folds an observed duration into the named series.
	RecordDuration(name string, d time.Duration)

	// Flush reports all collected values.
	Flush()
}

// Counter names emitted by the engine dispatch path. Per-instruction
// counters use MetricInstructionPrefix plus the instruction name.
const (
	MetricInstructionsExecuted = "instructions_executed"
	MetricInstructionsFailed   = "instructions_failed"
	MetricInstructionDuration  = "instruction_duration"
	MetricInstructionPrefix    = "instruction_"
)

// Noop is a Recorder that discards everything. It is the engine default
// when no recorder is configured.
type Noop struct{}

func (Noop) IncrementCounter(string, uint64)      {}
func (Noop) RecordDuration(string, time.Duration) {}
func (Noop) Flush()                               {}

// durationSeries aggregates observed durations for one name.
type durationSeries struct {
	count uint64
	total time.Duration
	max   time.Duration
}

// LogRecorder accumulates counters and duration series in memory and
// reports them through slog on Flush.
type LogRecorder struct {
	logger *slog.Logger

	mu        sync.Mutex
	counters  map[string]uint64
	durations map[string]*durationSeries
}

// NewLogRecorder creates a LogRecorder. A nil logger falls back to
// slog.Default.
func NewLogRecorder(logger *slog.Logger) *LogRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogRecorder{
		logger:    logger,
		counters:  make(map[string]uint64),
		durations: make(map[string]*durationSeries),
	}
}

// IncrementCounter adds value to the named counter.
func (r *LogRecorder) IncrementCounter(name string, value uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[name] += value
}

// RecordDuration folds d into the named series.
func (r *LogRecorder) RecordDuration(name string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.durations[name]
	if !ok {
		s = &durationSeries{}
		r.durations[name] = s
	}
	s.count++
	s.total += d
	if d > s.max {
		s.max = d
	}
}

// Counter returns the current value of the named counter.
func (r *LogRecorder) Counter(name string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[name]
}

// Flush logs every counter and duration series collected so far.
func (r *LogRecorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, value := range r.counters {
		r.logger.Info("counter", "name", name, "value", value)
	}
	for name, s := range r.durations {
		avg := time.Duration(0)
		if s.count > 0 {
			avg = s.total / time.Duration(s.count)
		}
		r.logger.Info("duration",
			"name", name,
			"count", s.count,
			"avg", avg,
			"max", s.max,
		)
	}
}
