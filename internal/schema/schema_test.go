package schema

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		name    string
		want    ScalarKind
		wantErr bool
	}{
		{"bool", Bool, false},
		{"int32", Int32, false},
		{"ulonglong", ULongLong, false},
		{"struct_blob", StructBlob, false},
		{"unknown", Unknown, false},
		{"complex128", Unknown, true},
		{"", Unknown, true},
	}

	for _, tt := range tests {
		got, err := ParseKind(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKind(%q) err = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestKindWidths(t *testing.T) {
	tests := []struct {
		kind  ScalarKind
		width int
	}{
		{Bool, 1}, {Char, 1}, {UChar, 1}, {Int8, 1}, {UInt8, 1},
		{Short, 2}, {UShort, 2}, {Int16, 2}, {UInt16, 2},
		{Int, 4}, {UInt, 4}, {Int32, 4}, {UInt32, 4}, {Float, 4},
		{Long, 8}, {ULong, 8}, {LongLong, 8}, {ULongLong, 8},
		{Int64, 8}, {UInt64, 8}, {Double, 8}, {Pointer, 8},
	}
	for _, tt := range tests {
		w, ok := tt.kind.Width()
		if !ok || w != tt.width {
			t.Errorf("%v.Width() = %d,%v, want %d,true", tt.kind, w, ok, tt.width)
		}
	}

	for _, k := range []ScalarKind{String, ByteArray, StructBlob, Unknown} {
		if _, ok := k.Width(); ok {
			t.Errorf("%v.Width() ok = true, want false", k)
		}
	}
}

func TestKindYAML(t *testing.T) {
	var k ScalarKind
	if err := yaml.Unmarshal([]byte(`byte_array`), &k); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if k != ByteArray {
		t.Errorf("got %v, want ByteArray", k)
	}

	if err := yaml.Unmarshal([]byte(`not_a_kind`), &k); err == nil {
		t.Error("expected error for unknown kind name")
	}
}

func TestSchemaPrefixAndColumns(t *testing.T) {
	sc := New("http_events", []Field{
		{Name: "status", Kind: Int32},
		{Name: "path", Kind: String},
	}, DefaultCapacities, nil)

	if len(sc.Fields) != NumPrefixFields+2 {
		t.Fatalf("fields = %d, want %d", len(sc.Fields), NumPrefixFields+2)
	}
	if err := sc.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	cols := sc.OutputColumns()
	want := []string{"upid", "time_", "status", "path"}
	if len(cols) != len(want) {
		t.Fatalf("columns = %v, want %v", cols, want)
	}
	for i := range want {
		if cols[i] != want[i] {
			t.Errorf("columns[%d] = %q, want %q", i, cols[i], want[i])
		}
	}
}

func TestSchemaBlobSpecIndexing(t *testing.T) {
	spec := BlobSpec{{Offset: 0, Kind: Int64, Path: "a"}}
	sc := New("t", []Field{
		{Name: "x", Kind: Int32},
		{Name: "b", Kind: StructBlob},
	}, DefaultCapacities, map[int]BlobSpec{1: spec})

	// Blob specs are addressed by physical field index, after the prefix.
	if got := sc.BlobSpec(NumPrefixFields + 1); len(got) != 1 || got[0].Path != "a" {
		t.Errorf("BlobSpec at physical index: got %v", got)
	}
	if got := sc.BlobSpec(NumPrefixFields); got != nil {
		t.Errorf("non-blob field has spec %v", got)
	}
}

func TestSchemaValidateMissingBlobSpec(t *testing.T) {
	sc := New("t", []Field{{Name: "b", Kind: StructBlob}}, DefaultCapacities, nil)
	if err := sc.Validate(); err == nil {
		t.Error("expected error for blob field without spec")
	}
}

func TestCapacitiesValidate(t *testing.T) {
	if err := DefaultCapacities.Validate(); err != nil {
		t.Errorf("default capacities invalid: %v", err)
	}
	bad := Capacities{String: 8, ByteArray: 64, Blob: 64}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for capacity smaller than prefix+pad")
	}
}
