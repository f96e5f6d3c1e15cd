// Package assembler decodes one complete raw event into an output row:
// identity and adjusted time derived from the fixed prefix, then every
// declared field in schema order.
package assembler

import (
	"fmt"

	"github.com/tracekit/dtracecol/internal/colval"
	"github.com/tracekit/dtracecol/internal/decoder"
	"github.com/tracekit/dtracecol/internal/projector"
	"github.com/tracekit/dtracecol/internal/schema"
	"github.com/tracekit/dtracecol/internal/upid"
)

// RowBuilder receives the cells of one record by output column index.
type RowBuilder interface {
	Append(colIdx int, v colval.Value)
}

// Assemble decodes raw into rb. The extraction order is fixed by the wire
// layout the instrumentation generator emits and must not be reordered:
// process-group id, process start time, monotonic timestamp, then the
// declared fields. clockOffsetNS converts the monotonic timestamp to wall
// clock; asid scopes the identity.
//
// On error the record is unusable and rb must be discarded uncommitted; no
// partial row may reach the sink.
func Assemble(sc *schema.RecordSchema, asid uint32, clockOffsetNS int64, raw []byte, rb RowBuilder) error {
	cur := decoder.NewCursor(raw, sc.Caps)

	tgid, err := cur.U32()
	if err != nil {
		return fmt.Errorf("tgid: %w", err)
	}
	startTime, err := cur.U64()
	if err != nil {
		return fmt.Errorf("tgid start time: %w", err)
	}
	ktimeNS, err := cur.U64()
	if err != nil {
		return fmt.Errorf("ktime: %w", err)
	}

	colIdx := 0
	rb.Append(colIdx, colval.UPID(upid.New(asid, tgid, startTime)))
	colIdx++
	//nolint:gosec // ktime fits in int64 for any realistic uptime
	rb.Append(colIdx, colval.Time(int64(ktimeNS)+clockOffsetNS))
	colIdx++

	for i := schema.NumPrefixFields; i < len(sc.Fields); i++ {
		f := sc.Fields[i]
		val, err := projector.Project(cur, f.Kind, sc.BlobSpec(i))
		if err != nil {
			return fmt.Errorf("field %d (%s): %w", i, f.Name, err)
		}
		rb.Append(colIdx, val)
		colIdx++
	}

	return nil
}
