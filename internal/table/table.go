// Package table is an in-memory columnar row sink standing in for the
// storage engine at the decode pipeline's output boundary. Records are
// appended cell by cell through a RecordBuilder and become visible
// all-or-nothing on Commit.
package table

import (
	"fmt"
	"sync"

	"github.com/tracekit/dtracecol/internal/colval"
)

// Table holds rows in column order. Appends are internally synchronized so
// the table may be shared across goroutines.
type Table struct {
	mu    sync.RWMutex
	name  string
	cols  []string
	cells [][]colval.Value // one slice per column
}

// New creates an empty table with the given column names.
func New(name string, cols []string) *Table {
	return &Table{
		name:  name,
		cols:  cols,
		cells: make([][]colval.Value, len(cols)),
	}
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Columns returns the column names in order.
func (t *Table) Columns() []string { return t.cols }

// RowCount returns the number of committed rows.
func (t *Table) RowCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.cells) == 0 {
		return 0
	}
	return len(t.cells[0])
}

// Row returns a copy of one committed row.
func (t *Table) Row(i int) []colval.Value {
	t.mu.RLock()
	defer t.mu.RUnlock()
	row := make([]colval.Value, len(t.cells))
	for c := range t.cells {
		row[c] = t.cells[c][i]
	}
	return row
}

// NewRecord starts building one row. The builder is not safe for
// concurrent use; the table append it performs on Commit is.
func (t *Table) NewRecord() *RecordBuilder {
	return &RecordBuilder{
		t:     t,
		cells: make([]colval.Value, len(t.cols)),
		set:   make([]bool, len(t.cols)),
	}
}

// RecordBuilder assembles one row cell by cell. An uncommitted builder
// leaves no trace in the table.
type RecordBuilder struct {
	t     *Table
	cells []colval.Value
	set   []bool
	n     int
}

// Append places a cell at its column index.
func (b *RecordBuilder) Append(colIdx int, v colval.Value) {
	if b.set[colIdx] {
		b.cells[colIdx] = v
		return
	}
	b.cells[colIdx] = v
	b.set[colIdx] = true
	b.n++
}

// Cells exposes the cells appended so far, in column order.
func (b *RecordBuilder) Cells() []colval.Value { return b.cells }

// Commit appends the finished row to the table. Every column must have
// been filled; a partial row is a pipeline bug, not a data condition.
func (b *RecordBuilder) Commit() error {
	if b.n != len(b.cells) {
		return fmt.Errorf("table %q: committing row with %d of %d cells", b.t.name, b.n, len(b.cells))
	}
	b.t.mu.Lock()
	defer b.t.mu.Unlock()
	for c := range b.cells {
		b.t.cells[c] = append(b.t.cells[c], b.cells[c])
	}
	return nil
}
