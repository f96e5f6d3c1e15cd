// Package timesync anchors monotonic event timestamps to wall-clock time.
//
// Instrumentation emits monotonic timestamps (nanoseconds since system
// boot). The converter reads the boot time from /proc/stat once and exposes
// it as an additive offset, so the decode pipeline can compose wall-clock
// timestamps with exact integer arithmetic.
package timesync
