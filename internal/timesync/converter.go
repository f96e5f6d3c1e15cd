package timesync

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Converter translates the monotonic nanosecond timestamps carried in raw
// events into wall-clock time.
type Converter struct {
	bootTime time.Time
}

// NewConverter creates a converter anchored at the system boot time from
// /proc/stat. If reading fails it falls back to a conservative estimate so
// collection can continue with degraded timestamp accuracy.
func NewConverter() (*Converter, error) {
	bootTime, err := readBootTime()
	if err != nil {
		bootTime = time.Now().Add(-time.Hour)
	}
	return &Converter{bootTime: bootTime}, nil
}

// NewConverterAt creates a converter with a fixed boot time, for
// deterministic composition in tests.
func NewConverterAt(bootTime time.Time) *Converter {
	return &Converter{bootTime: bootTime}
}

// Offset returns the additive nanosecond offset that converts a monotonic
// timestamp to wall clock: wall = monotonic + Offset(). The record
// assembler takes this as an explicit parameter so decoding stays
// deterministic under test.
func (c *Converter) Offset() int64 {
	return c.bootTime.UnixNano()
}

// MonotonicToWallClock converts a monotonic timestamp (nanoseconds since
// boot) to wall-clock time.
func (c *Converter) MonotonicToWallClock(monotonicNanos uint64) time.Time {
	//nolint:gosec // uint64 to int64 conversion is safe for realistic uptimes
	return c.bootTime.Add(time.Duration(monotonicNanos))
}

// BootTime returns the boot time anchoring this converter.
func (c *Converter) BootTime() time.Time {
	return c.bootTime
}

// readBootTime parses the btime line of /proc/stat.
func readBootTime() (time.Time, error) {
	file, err := os.Open("/proc/stat")
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to open /proc/stat: %w", err)
	}
	defer func() {
		_ = file.Close() //nolint:errcheck // Read-only file, defer cleanup
	}()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "btime ") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		bootTimeSec, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse btime: %w", err)
		}
		return time.Unix(bootTimeSec, 0), nil
	}

	if err := scanner.Err(); err != nil {
		return time.Time{}, fmt.Errorf("error reading /proc/stat: %w", err)
	}
	return time.Time{}, fmt.Errorf("btime not found in /proc/stat")
}
