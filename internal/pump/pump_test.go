package pump

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracekit/dtracecol/internal/colval"
	"github.com/tracekit/dtracecol/internal/rowfilter"
	"github.com/tracekit/dtracecol/internal/schema"
	"github.com/tracekit/dtracecol/internal/table"
	"github.com/tracekit/dtracecol/internal/upid"
)

var caps = schema.Capacities{String: 32, ByteArray: 32, Blob: 64}

func testSchema(t *testing.T) *schema.RecordSchema {
	t.Helper()
	sc := schema.New("t", []schema.Field{
		{Name: "value", Kind: schema.Int32},
		{Name: "name", Kind: schema.String},
	}, caps, nil)
	require.NoError(t, sc.Validate())
	return sc
}

func encodeEvent(pgid uint32, start, ktime uint64, value uint32, name string) []byte {
	buf := binary.LittleEndian.AppendUint32(nil, pgid)
	buf = binary.LittleEndian.AppendUint64(buf, start)
	buf = binary.LittleEndian.AppendUint64(buf, ktime)
	buf = binary.LittleEndian.AppendUint32(buf, value)
	field := make([]byte, caps.String)
	binary.LittleEndian.PutUint64(field, uint64(len(name)))
	copy(field[schema.SizeTWidth:], name)
	return append(buf, field...)
}

func newTestPump(t *testing.T, sc *schema.RecordSchema, opts ...Option) (*Pump, *table.Table) {
	t.Helper()
	tbl := table.New(sc.Name, sc.OutputColumns())
	return New(sc, TableSink{Table: tbl}, 1, 0, opts...), tbl
}

func TestDrainCommitsBatch(t *testing.T) {
	sc := testSchema(t)
	p, tbl := newTestPump(t, sc)

	events := [][]byte{
		encodeEvent(7, 1000, 500000, 42, "abc"),
		encodeEvent(8, 2000, 600000, 43, "def"),
	}

	committed := p.Drain(context.Background(), 0, events, 0)
	assert.Equal(t, 2, committed)
	require.Equal(t, 2, tbl.RowCount())

	row := tbl.Row(0)
	assert.Equal(t, colval.UPID(upid.New(1, 7, 1000)), row[0])
	assert.Equal(t, colval.Time(500000), row[1])
	assert.Equal(t, colval.Int64(42), row[2])
	assert.Equal(t, colval.Str("abc"), row[3])
}

func TestDrainSkipsTruncatedEvent(t *testing.T) {
	sc := testSchema(t)
	p, tbl := newTestPump(t, sc)

	good := func(n uint32) []byte { return encodeEvent(n, 1, 1, n, "ok") }
	bad := encodeEvent(3, 1, 1, 3, "truncated mid-string")
	bad = bad[:len(bad)-12]

	events := [][]byte{good(1), good(2), bad, good(4), good(5)}

	committed := p.Drain(context.Background(), 0, events, 0)
	assert.Equal(t, 4, committed)
	assert.Equal(t, 4, tbl.RowCount())
}

func TestDrainUnknownKindIsolatesRecord(t *testing.T) {
	sc := schema.New("t", []schema.Field{
		{Name: "bad", Kind: schema.Unknown},
	}, caps, nil)

	p, tbl := newTestPump(t, sc)

	prefix := binary.LittleEndian.AppendUint32(nil, 1)
	prefix = binary.LittleEndian.AppendUint64(prefix, 1)
	prefix = binary.LittleEndian.AppendUint64(prefix, 1)

	// Every event hits the unknown-kind field; the batch still completes.
	committed := p.Drain(context.Background(), 0, [][]byte{prefix, prefix, prefix}, 0)
	assert.Equal(t, 0, committed)
	assert.Equal(t, 0, tbl.RowCount())
}

func TestDrainLossOnlyBatch(t *testing.T) {
	sc := testSchema(t)
	p, tbl := newTestPump(t, sc)

	committed := p.Drain(context.Background(), 0, nil, 17)
	assert.Equal(t, 0, committed)
	assert.Equal(t, 0, tbl.RowCount())
}

func TestDrainWithFilter(t *testing.T) {
	sc := testSchema(t)
	filter, err := rowfilter.Compile(`cols.value > 10`)
	require.NoError(t, err)

	p, tbl := newTestPump(t, sc, WithFilter(filter))

	events := [][]byte{
		encodeEvent(1, 1, 1, 5, "low"),
		encodeEvent(1, 1, 1, 42, "high"),
	}

	committed := p.Drain(context.Background(), 0, events, 0)
	assert.Equal(t, 1, committed)
	require.Equal(t, 1, tbl.RowCount())
	assert.Equal(t, colval.Str("high"), tbl.Row(0)[3])
}
