// Package timing records wall-clock durations of named job stages.
package timing

import (
	"sort"
	"sync"
	"time"
)

// Span is an open timing started by Tracker.Start.
type Span struct {
	stage   string
	start   time.Time
	tracker *Tracker
}

// End records the span's duration and returns it. Ending a span twice records it twice.
func (s Span) End() time.Duration {
	if s.tracker == nil {
		return 0
	}
	duration := time.Since(s.start)
	s.tracker.record(s.stage, duration)
	return duration
}

type Tracker struct {
	timings map[string][]time.Duration
	mu      sync.RWMutex
	now     func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		timings: make(map[string][]time.Duration),
		now:     time.Now,
	}
}

func (tt *Tracker) Start(stage string) Span {
	return Span{stage: stage, start: tt.now(), tracker: tt}
}

func (tt *Tracker) record(stage string, duration time.Duration) {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	tt.timings[stage] = append(tt.timings[stage], duration)
}

func (tt *Tracker) Timings(stage string) []time.Duration {
	tt.mu.RLock()
	defer tt.mu.RUnlock()

	timings := tt.timings[stage]
	if timings == nil {
		return nil
	}

	result := make([]time.Duration, len(timings))
	copy(result, timings)
	return result
}

// Last returns the most recent duration of stage, or 0.
func (tt *Tracker) Last(stage string) time.Duration {
	tt.mu.RLock()
	defer tt.mu.RUnlock()

	timings := tt.timings[stage]
	if len(timings) == 0 {
		return 0
	}
	return timings[len(timings)-1]
}

func (tt *Tracker) Average(stage string) time.Duration {
	timings := tt.Timings(stage)
	if len(timings) == 0 {
		return 0
	}

	var total time.Duration
	for _, duration := range timings {
		total += duration
	}
	return total / time.Duration(len(timings))
}

// Stages lists every recorded stage name in sorted order.
func (tt *Tracker) Stages() []string {
	tt.mu.RLock()
	defer tt.mu.RUnlock()

	stages := make([]string, 0, len(tt.timings))
	for stage := range tt.timings {
		stages = append(stages, stage)
	}
	sort.Strings(stages)
	return stages
}

// Fields returns the last and the average duration of every stage in milliseconds, ready
// for a log entry.
func (tt *Tracker) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	for _, stage := range tt.Stages() {
		fields[stage+"_ms"] = tt.Last(stage).Milliseconds()
		fields[stage+"_avg_ms"] = tt.Average(stage).Milliseconds()
	}
	return fields
}

// Reset clears stage, or every stage when stage is empty.
func (tt *Tracker) Reset(stage string) {
	tt.mu.Lock()
	defer tt.mu.Unlock()

	if stage == "" {
		tt.timings = make(map[string][]time.Duration)
		return
	}
	delete(tt.timings, stage)
}
