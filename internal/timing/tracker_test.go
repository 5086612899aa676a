package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsSpans(t *testing.T) {
	tracker := NewTracker()
	base := time.Unix(0, 0)
	tracker.now = func() time.Time { return base }

	span := tracker.Start("segment")
	span.End()
	tracker.Start("segment").End()

	timings := tracker.Timings("segment")
	require.Len(t, timings, 2)
	assert.Equal(t, []string{"segment"}, tracker.Stages())
	assert.Contains(t, tracker.Fields(), "segment_ms")
}

func TestTrackerFieldsCarryLastAndAverage(t *testing.T) {
	tracker := NewTracker()
	tracker.record("segment", 2*time.Second)
	tracker.record("segment", 4*time.Second)

	assert.Equal(t, map[string]interface{}{
		"segment_ms":     int64(4000),
		"segment_avg_ms": int64(3000),
	}, tracker.Fields())
	assert.Zero(t, tracker.Average("read"))
	assert.Zero(t, Span{}.End())
}

func TestTrackerReset(t *testing.T) {
	tracker := NewTracker()
	tracker.record("read", time.Millisecond)
	tracker.record("write", 3*time.Millisecond)
	tracker.record("write", 5*time.Millisecond)

	assert.Equal(t, 4*time.Millisecond, tracker.Average("write"))
	assert.Equal(t, 5*time.Millisecond, tracker.Last("write"))

	tracker.Reset("read")
	assert.Equal(t, []string{"write"}, tracker.Stages())

	tracker.Reset("")
	assert.Empty(t, tracker.Stages())
}

func TestTimingsReturnsCopy(t *testing.T) {
	tracker := NewTracker()
	tracker.record("read", time.Second)

	timings := tracker.Timings("read")
	timings[0] = 0

	assert.Equal(t, time.Second, tracker.Last("read"))
}
