package note

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDGenerator_StrictlyIncreasingWithFrozenClock(t *testing.T) {
	frozen := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	gen := NewIDGenerator(func() time.Time { return frozen })

	seen := make(map[string]bool)
	var prev int64
	for i := 0; i < 1000; i++ {
		id, at := gen.Next()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true

		micros, ok := ParseID(id)
		require.True(t, ok, "id %s should parse", id)
		assert.Greater(t, micros, prev)
		assert.Equal(t, micros, at.UnixMicro())
		prev = micros
	}
}

func TestIDGenerator_ClockStepsBack(t *testing.T) {
	times := []time.Time{
		time.Unix(2000, 0),
		time.Unix(1000, 0),
	}
	i := 0
	gen := NewIDGenerator(func() time.Time {
		tm := times[i]
		i++
		return tm
	})

	first, _ := gen.Next()
	second, _ := gen.Next()

	a, _ := ParseID(first)
	b, _ := ParseID(second)
	assert.Greater(t, b, a)
}

func TestIDGenerator_Observe(t *testing.T) {
	gen := NewIDGenerator(func() time.Time { return time.Unix(100, 0) })
	gen.Observe("note_500.000000")
	gen.Observe("not-a-note-id")

	id, _ := gen.Next()
	assert.Equal(t, "note_500.000001", id)
}

func TestFormatParseID(t *testing.T) {
	micros := int64(1_712_345_678_123_456)
	id := FormatID(micros)
	assert.Equal(t, "note_1712345678.123456", id)

	got, ok := ParseID(id)
	require.True(t, ok)
	assert.Equal(t, micros, got)

	for _, bad := range []string{"", "note_", "note_12", "note_12.34", "nota_1.000000", "note_x.000000"} {
		_, ok := ParseID(bad)
		assert.False(t, ok, "ParseID(%q) should fail", bad)
	}
}
