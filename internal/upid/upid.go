// Package upid composes the 128-bit identity of a traced process instance:
// the address-space id and process-group id in the high 64 bits, the
// process start time in the low 64 bits. Distinct (asid, pid, start)
// triples always yield distinct identities.
package upid

import "fmt"

// UPID is a unique process identity within an address space and lifetime.
type UPID struct {
	hi uint64
	lo uint64
}

// New composes an identity from its three coordinates.
func New(asid uint32, pid uint32, startTimeTicks uint64) UPID {
	return UPID{
		hi: uint64(asid)<<32 | uint64(pid),
		lo: startTimeTicks,
	}
}

// High returns the upper 64 bits (asid | pid).
func (u UPID) High() uint64 { return u.hi }

// Low returns the lower 64 bits (start time).
func (u UPID) Low() uint64 { return u.lo }

// ASID returns the address-space id coordinate.
func (u UPID) ASID() uint32 { return uint32(u.hi >> 32) }

// PID returns the process-group id coordinate.
func (u UPID) PID() uint32 { return uint32(u.hi) }

// StartTimeTicks returns the process start time coordinate.
func (u UPID) StartTimeTicks() uint64 { return u.lo }

// String renders the identity as asid:pid:start_time.
func (u UPID) String() string {
	return fmt.Sprintf("%d:%d:%d", u.ASID(), u.PID(), u.StartTimeTicks())
}
