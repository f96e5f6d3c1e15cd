// Package schema describes the compiled record layout the instrumentation
// compiler hands to the decode pipeline: the ordered field kinds, the fixed
// wire capacities for variable-length fields, and the blob specs that label
// sub-fields inside struct-blob payloads.
package schema

import (
	"fmt"
)

// NumPrefixFields is the number of leading physical fields every raw event
// carries before its declared columns: the process-group id, the process
// start time and the monotonic timestamp. They are fixed by the wire
// protocol, not by table configuration.
const NumPrefixFields = 3

// SizeTWidth is the byte width of the generator's size_t length prefixes.
const SizeTWidth = 8

// Field is one declared field of a record.
type Field struct {
	Name string
	Kind ScalarKind
}

// BlobEntry labels one fixed-width scalar inside a struct-blob payload.
// Offset is relative to the start of the payload region; Path is the dotted
// location of the value in the projected JSON document.
type BlobEntry struct {
	Offset int
	Kind   ScalarKind
	Path   string
}

// BlobSpec is the ordered set of entries describing one struct-blob field.
type BlobSpec []BlobEntry

// Capacities holds the three fixed wire sizes of variable-length fields.
// Each variable-length field occupies exactly its capacity on the wire
// (length prefix + payload buffer + one trailing pad byte) regardless of the
// actual payload length. The values must match the code generator that
// produced the instrumentation program bit-for-bit; a mismatch silently
// desynchronizes the cursor.
type Capacities struct {
	String    int
	ByteArray int
	Blob      int
}

// DefaultCapacities mirrors the generator's default wire structs.
var DefaultCapacities = Capacities{
	String:    64,
	ByteArray: 64,
	Blob:      192,
}

// Validate checks that every capacity can hold its length prefix, the
// trailing pad byte and at least one payload byte.
func (c Capacities) Validate() error {
	for _, entry := range []struct {
		name string
		val  int
	}{
		{"string", c.String},
		{"byte_array", c.ByteArray},
		{"blob", c.Blob},
	} {
		if entry.val < SizeTWidth+2 {
			return fmt.Errorf("%s capacity %d cannot hold a length prefix and payload", entry.name, entry.val)
		}
	}
	return nil
}

// RecordSchema is the complete layout of one table's records. Fields
// includes the fixed prefix at indices 0..2 so that field indices line up
// with the physical wire layout; the prefix never surfaces as output
// columns of its own.
type RecordSchema struct {
	Name      string
	Fields    []Field
	Caps      Capacities
	blobSpecs map[int]BlobSpec
}

// New builds a RecordSchema from the visible (declared) fields, prepending
// the protocol's fixed identity/time prefix.
func New(name string, visible []Field, caps Capacities, blobSpecs map[int]BlobSpec) *RecordSchema {
	fields := make([]Field, 0, NumPrefixFields+len(visible))
	fields = append(fields,
		Field{Name: "tgid_", Kind: UInt32},
		Field{Name: "tgid_start_time_", Kind: UInt64},
		Field{Name: "ktime_ns_", Kind: UInt64},
	)
	fields = append(fields, visible...)

	specs := make(map[int]BlobSpec, len(blobSpecs))
	for i, s := range blobSpecs {
		specs[i+NumPrefixFields] = s
	}

	return &RecordSchema{
		Name:      name,
		Fields:    fields,
		Caps:      caps,
		blobSpecs: specs,
	}
}

// BlobSpec returns the blob spec for the field at the given physical index,
// or nil when the field is not a struct blob.
func (s *RecordSchema) BlobSpec(fieldIdx int) BlobSpec {
	return s.blobSpecs[fieldIdx]
}

// OutputColumns lists the columns of the output table: the composed
// identity, the adjusted timestamp, then one column per declared field.
func (s *RecordSchema) OutputColumns() []string {
	cols := make([]string, 0, 2+len(s.Fields)-NumPrefixFields)
	cols = append(cols, "upid", "time_")
	for _, f := range s.Fields[NumPrefixFields:] {
		cols = append(cols, f.Name)
	}
	return cols
}

// Validate checks the structural invariants the assembler relies on: the
// fixed prefix kinds and a blob spec for every struct-blob field. Kind
// validity is deliberately not checked here; an unknown kind is rejected at
// projection time so that one bad field aborts one record, not the table.
func (s *RecordSchema) Validate() error {
	if err := s.Caps.Validate(); err != nil {
		return err
	}
	if len(s.Fields) < NumPrefixFields {
		return fmt.Errorf("schema %q has %d fields, need at least the %d-field prefix",
			s.Name, len(s.Fields), NumPrefixFields)
	}
	if s.Fields[0].Kind != UInt32 || s.Fields[1].Kind != UInt64 || s.Fields[2].Kind != UInt64 {
		return fmt.Errorf("schema %q prefix kinds are %v/%v/%v, want uint32/uint64/uint64",
			s.Name, s.Fields[0].Kind, s.Fields[1].Kind, s.Fields[2].Kind)
	}
	for i, f := range s.Fields[NumPrefixFields:] {
		idx := i + NumPrefixFields
		if f.Kind == StructBlob && len(s.blobSpecs[idx]) == 0 {
			return fmt.Errorf("schema %q field %q is a struct blob without a blob spec", s.Name, f.Name)
		}
	}
	return nil
}
