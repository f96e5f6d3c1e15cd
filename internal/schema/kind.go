package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ScalarKind is the closed set of wire types a field can carry. The numeric
// values are internal; table configuration names kinds by string.
type ScalarKind int

const (
	Unknown ScalarKind = iota
	Bool
	Char
	UChar
	Short
	UShort
	Int
	UInt
	Long
	ULong
	LongLong
	ULongLong
	Int8
	Int16
	Int32
	Int64
	UInt8
	UInt16
	UInt32
	UInt64
	Float
	Double
	Pointer
	String
	ByteArray
	StructBlob

	kindMax // keep last
)

var kindNames = map[ScalarKind]string{
	Unknown:    "unknown",
	Bool:       "bool",
	Char:       "char",
	UChar:      "uchar",
	Short:      "short",
	UShort:     "ushort",
	Int:        "int",
	UInt:       "uint",
	Long:       "long",
	ULong:      "ulong",
	LongLong:   "longlong",
	ULongLong:  "ulonglong",
	Int8:       "int8",
	Int16:      "int16",
	Int32:      "int32",
	Int64:      "int64",
	UInt8:      "uint8",
	UInt16:     "uint16",
	UInt32:     "uint32",
	UInt64:     "uint64",
	Float:      "float",
	Double:     "double",
	Pointer:    "pointer",
	String:     "string",
	ByteArray:  "byte_array",
	StructBlob: "struct_blob",
}

var kindsByName = func() map[string]ScalarKind {
	m := make(map[string]ScalarKind, len(kindNames))
	for k, n := range kindNames {
		m[n] = k
	}
	return m
}()

// Widths of the fixed kinds on an LP64 target, matching the struct layout
// the code generator emits. Variable-length kinds have no entry.
var kindWidths = map[ScalarKind]int{
	Bool:      1,
	Char:      1,
	UChar:     1,
	Short:     2,
	UShort:    2,
	Int:       4,
	UInt:      4,
	Long:      8,
	ULong:     8,
	LongLong:  8,
	ULongLong: 8,
	Int8:      1,
	Int16:     2,
	Int32:     4,
	Int64:     8,
	UInt8:     1,
	UInt16:    2,
	UInt32:    4,
	UInt64:    8,
	Float:     4,
	Double:    8,
	Pointer:   8,
}

func (k ScalarKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("ScalarKind(%d)", int(k))
}

// Width returns the fixed byte width of the kind, or false for
// variable-length and invalid kinds.
func (k ScalarKind) Width() (int, bool) {
	w, ok := kindWidths[k]
	return w, ok
}

// Signed reports whether the kind sign-extends into the 64-bit output
// representation.
func (k ScalarKind) Signed() bool {
	switch k {
	case Char, Short, Int, Long, LongLong, Int8, Int16, Int32, Int64:
		return true
	}
	return false
}

// ParseKind maps a configuration name to its kind.
func ParseKind(name string) (ScalarKind, error) {
	k, ok := kindsByName[name]
	if !ok {
		return Unknown, fmt.Errorf("unsupported scalar kind %q", name)
	}
	return k, nil
}

// UnmarshalYAML decodes a kind from its configuration name.
func (k *ScalarKind) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	parsed, err := ParseKind(name)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalYAML encodes a kind as its configuration name.
func (k ScalarKind) MarshalYAML() (interface{}, error) {
	n, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("cannot marshal %v", k)
	}
	return n, nil
}
