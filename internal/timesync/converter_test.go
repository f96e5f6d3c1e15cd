package timesync

import (
	"testing"
	"time"
)

func TestOffsetComposition(t *testing.T) {
	bootTime := time.Unix(1000000000, 0)
	converter := NewConverterAt(bootTime)

	tests := []struct {
		name           string
		monotonicNanos uint64
	}{
		{"zero nanoseconds", 0},
		{"one second", 1_000_000_000},
		{"one hour", 3_600_000_000_000},
		{"mixed time", 123_456_789_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// wall = monotonic + offset, exact integer arithmetic.
			//nolint:gosec // test values fit in int64
			adjusted := int64(tt.monotonicNanos) + converter.Offset()
			want := converter.MonotonicToWallClock(tt.monotonicNanos)
			if adjusted != want.UnixNano() {
				t.Errorf("adjusted = %d, want %d", adjusted, want.UnixNano())
			}
		})
	}
}

func TestMonotonicToWallClock(t *testing.T) {
	bootTime := time.Unix(1000000000, 0)
	converter := NewConverterAt(bootTime)

	got := converter.MonotonicToWallClock(1_000_000_000)
	want := bootTime.Add(1 * time.Second)
	if !got.Equal(want) {
		t.Errorf("MonotonicToWallClock() = %v, want %v", got, want)
	}
}

func TestNewConverter(t *testing.T) {
	converter, err := NewConverter()
	if err != nil {
		t.Fatalf("NewConverter() error = %v", err)
	}

	bootTime := converter.BootTime()
	if bootTime.IsZero() {
		t.Error("BootTime() is zero")
	}
	if bootTime.After(time.Now()) {
		t.Error("BootTime() is in the future")
	}
}
