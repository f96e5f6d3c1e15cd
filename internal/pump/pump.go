// Package pump drains batches of raw events into committed table rows.
// Delivery is best-effort: events lost upstream are logged and counted,
// never reconstructed, and a malformed event is dropped without disturbing
// the rest of its batch.
package pump

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tracekit/dtracecol/internal/assembler"
	"github.com/tracekit/dtracecol/internal/colval"
	"github.com/tracekit/dtracecol/internal/rowfilter"
	"github.com/tracekit/dtracecol/internal/schema"
	"github.com/tracekit/dtracecol/internal/table"
	"github.com/tracekit/dtracecol/internal/telemetry"
)

// Builder assembles one row and commits it all-or-nothing.
type Builder interface {
	assembler.RowBuilder
	Cells() []colval.Value
	Commit() error
}

// Sink is the boundary to the row storage: one builder per record. Appends
// through a committed builder are assumed synchronous and infallible from
// this package's perspective.
type Sink interface {
	NewRecord() Builder
}

// TableSink adapts the in-memory table to the Sink boundary.
type TableSink struct {
	Table *table.Table
}

// NewRecord starts one row in the underlying table.
func (s TableSink) NewRecord() Builder {
	return s.Table.NewRecord()
}

// Pump consumes polled batches for exactly one output table.
type Pump struct {
	schema        *schema.RecordSchema
	sink          Sink
	asid          uint32
	clockOffsetNS int64
	filter        *rowfilter.Filter
	counters      *telemetry.Counters
	cols          []string
	log           zerolog.Logger
}

// Option customizes a Pump.
type Option func(*Pump)

// WithFilter applies a compiled row filter before commit.
func WithFilter(f *rowfilter.Filter) Option {
	return func(p *Pump) { p.filter = f }
}

// WithCounters wires delivery accounting.
func WithCounters(c *telemetry.Counters) Option {
	return func(p *Pump) { p.counters = c }
}

// WithLogger overrides the pump's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Pump) { p.log = l }
}

// New creates a pump for one table. asid and clockOffsetNS are the external
// inputs of identity and timestamp composition, fixed for the pump's
// lifetime.
func New(sc *schema.RecordSchema, sink Sink, asid uint32, clockOffsetNS int64, opts ...Option) *Pump {
	p := &Pump{
		schema:        sc,
		sink:          sink,
		asid:          asid,
		clockOffsetNS: clockOffsetNS,
		cols:          sc.OutputColumns(),
		log:           log.With().Str("component", "pump").Str("table", sc.Name).Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Drain decodes one polled batch into committed rows and returns the
// committed count. tableNum other than 0 violates the single-table
// contract and terminates the process: it means configuration broke before
// any data flowed. Decode failures drop the offending event only; the
// batch is always fully consumed.
func (p *Pump) Drain(ctx context.Context, tableNum uint32, events [][]byte, lost uint64) int {
	if tableNum != 0 {
		p.log.Fatal().Uint32("table_num", tableNum).
			Msg("pump owns exactly one output table (index 0)")
	}

	if lost > 0 {
		p.log.Warn().Uint64("lost", lost).Msg("events lost before polling")
		//nolint:gosec // loss counts never approach int64 range
		p.counters.AddLost(ctx, int64(lost))
	}

	committed := 0
	filterErrLogged := false
	for i, raw := range events {
		rb := p.sink.NewRecord()
		if err := assembler.Assemble(p.schema, p.asid, p.clockOffsetNS, raw, rb); err != nil {
			p.log.Warn().Err(err).Int("event_idx", i).Int("event_bytes", len(raw)).
				Msg("dropping undecodable event")
			p.counters.AddDropped(ctx, 1)
			continue
		}

		if p.filter != nil {
			keep, err := p.filter.Keep(p.cols, rb.Cells())
			if err != nil && !filterErrLogged {
				// One log line per batch; the filter soft-fails to keep.
				p.log.Warn().Err(err).Msg("row filter evaluation failed")
				filterErrLogged = true
			}
			if !keep {
				p.counters.AddFiltered(ctx, 1)
				continue
			}
		}

		if err := rb.Commit(); err != nil {
			p.log.Error().Err(err).Int("event_idx", i).Msg("dropping row the sink refused")
			p.counters.AddDropped(ctx, 1)
			continue
		}
		committed++
	}

	p.counters.AddCommitted(ctx, int64(committed))
	return committed
}
