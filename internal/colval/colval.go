// Package colval defines the typed cell values the decode pipeline hands to
// the output table. A Value is a small tagged union covering every output
// representation a scalar kind normalizes to.
package colval

import (
	"fmt"

	"github.com/tracekit/dtracecol/internal/upid"
)

// Kind tags the concrete representation held by a Value.
type Kind int

const (
	KindBool Kind = iota
	KindInt64
	KindUInt64
	KindFloat64
	KindStr
	KindUPID
	KindTime
)

// Value is one output table cell.
type Value struct {
	kind Kind
	b    bool
	i    int64
	u    uint64
	f    float64
	s    string
	id   upid.UPID
}

// Bool wraps a boolean cell.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Int64 wraps a signed 64-bit cell.
func Int64(v int64) Value { return Value{kind: KindInt64, i: v} }

// UInt64 wraps an unsigned 64-bit cell.
func UInt64(v uint64) Value { return Value{kind: KindUInt64, u: v} }

// Float64 wraps a 64-bit floating cell.
func Float64(v float64) Value { return Value{kind: KindFloat64, f: v} }

// Str wraps a text cell (strings, hex-rendered byte arrays, blob JSON).
func Str(v string) Value { return Value{kind: KindStr, s: v} }

// UPID wraps a 128-bit identity cell.
func UPID(v upid.UPID) Value { return Value{kind: KindUPID, id: v} }

// Time wraps an adjusted wall-clock timestamp in nanoseconds.
func Time(ns int64) Value { return Value{kind: KindTime, i: ns} }

// Kind returns the representation tag.
func (v Value) Kind() Kind { return v.kind }

// BoolVal returns the boolean payload.
func (v Value) BoolVal() bool { return v.b }

// Int64Val returns the signed payload of Int64 and Time cells.
func (v Value) Int64Val() int64 { return v.i }

// UInt64Val returns the unsigned payload.
func (v Value) UInt64Val() uint64 { return v.u }

// Float64Val returns the floating payload.
func (v Value) Float64Val() float64 { return v.f }

// StrVal returns the text payload.
func (v Value) StrVal() string { return v.s }

// UPIDVal returns the identity payload.
func (v Value) UPIDVal() upid.UPID { return v.id }

// Native returns the payload as a plain Go value, the form row filter
// expressions evaluate against.
func (v Value) Native() interface{} {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt64, KindTime:
		return v.i
	case KindUInt64:
		return v.u
	case KindFloat64:
		return v.f
	case KindStr:
		return v.s
	case KindUPID:
		return v.id.String()
	}
	return nil
}

func (v Value) String() string {
	return fmt.Sprintf("%v", v.Native())
}
