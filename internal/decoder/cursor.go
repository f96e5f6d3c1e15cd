// Package decoder extracts typed values from the packed byte buffers
// emitted by the instrumentation program. Buffers are raw copies of packed C
// structs: fixed-width scalars carry no alignment padding, and every
// variable-length field occupies a statically sized wire struct
// (size_t length + fixed buffer + one pad byte) regardless of payload
// length. All multi-byte values are little-endian.
package decoder

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"

	"github.com/tidwall/sjson"

	"github.com/tracekit/dtracecol/internal/schema"
)

// Cursor is a read-only view over one event buffer. Extractions advance an
// internal offset; the backing buffer is never copied or mutated. On any
// extraction failure the offset is left where it was.
type Cursor struct {
	buf  []byte
	off  int
	caps schema.Capacities
}

// NewCursor wraps a raw event buffer with the wire capacities of its table.
func NewCursor(buf []byte, caps schema.Capacities) *Cursor {
	return &Cursor{buf: buf, caps: caps}
}

// Offset returns the number of bytes consumed so far.
func (c *Cursor) Offset() int { return c.off }

// Remaining returns the number of bytes not yet consumed.
func (c *Cursor) Remaining() int { return len(c.buf) - c.off }

func (c *Cursor) fixed(n int) ([]byte, error) {
	if c.Remaining() < n {
		return nil, fmt.Errorf("need %d bytes at offset %d, %d remain: %w",
			n, c.off, c.Remaining(), ErrResourceExhausted)
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b, nil
}

// U8 extracts one byte.
func (c *Cursor) U8() (uint8, error) {
	b, err := c.fixed(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// U16 extracts a 16-bit unsigned value.
func (c *Cursor) U16() (uint16, error) {
	b, err := c.fixed(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// U32 extracts a 32-bit unsigned value.
func (c *Cursor) U32() (uint32, error) {
	b, err := c.fixed(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// U64 extracts a 64-bit unsigned value.
func (c *Cursor) U64() (uint64, error) {
	b, err := c.fixed(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// F32 extracts a 32-bit float.
func (c *Cursor) F32() (float32, error) {
	v, err := c.U32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// F64 extracts a 64-bit float.
func (c *Cursor) F64() (float64, error) {
	v, err := c.U64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// varField extracts the payload of one length-prefixed field and advances
// the cursor by exactly capacity bytes, the field's full wire footprint.
// A length prefix that exceeds the payload room is treated the same as a
// short buffer: the cursor has lost sync with the generator and must not
// read past the declared region.
func (c *Cursor) varField(capacity int, what string) ([]byte, error) {
	if c.Remaining() < capacity {
		return nil, fmt.Errorf("%s field needs %d bytes at offset %d, %d remain: %w",
			what, capacity, c.off, c.Remaining(), ErrResourceExhausted)
	}
	length := binary.LittleEndian.Uint64(c.buf[c.off : c.off+schema.SizeTWidth])
	maxPayload := uint64(capacity - schema.SizeTWidth - 1) // one trailing pad byte
	if length > maxPayload {
		return nil, fmt.Errorf("%s length prefix %d exceeds wire capacity payload %d: %w",
			what, length, maxPayload, ErrResourceExhausted)
	}
	payload := c.buf[c.off+schema.SizeTWidth : c.off+schema.SizeTWidth+int(length)]
	c.off += capacity
	return payload, nil
}

// String extracts one string field and skips the unused slack of its fixed
// wire struct.
func (c *Cursor) String() (string, error) {
	payload, err := c.varField(c.caps.String, "string")
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

// BytesHex extracts one byte-array field and renders it as compact
// lowercase hex.
func (c *Cursor) BytesHex() (string, error) {
	payload, err := c.varField(c.caps.ByteArray, "byte array")
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(payload), nil
}

// BlobJSON extracts one struct-blob field and projects its flat payload
// into a JSON document per the blob spec: each entry reads a fixed-width
// scalar at its payload offset and writes it at its dotted path.
func (c *Cursor) BlobJSON(spec schema.BlobSpec) (string, error) {
	payload, err := c.varField(c.caps.Blob, "struct blob")
	if err != nil {
		return "", err
	}

	doc := []byte("{}")
	for _, entry := range spec {
		val, err := readScalarAt(payload, entry.Offset, entry.Kind)
		if err != nil {
			return "", fmt.Errorf("blob entry %q: %w", entry.Path, err)
		}
		doc, err = sjson.SetBytes(doc, entry.Path, val)
		if err != nil {
			return "", fmt.Errorf("blob entry %q: %w", entry.Path, err)
		}
	}
	return string(doc), nil
}

// readScalarAt reads one fixed-width scalar out of a blob payload. Blobs
// nest fixed-width kinds only; variable-length kinds inside a blob are a
// schema-compiler defect.
func readScalarAt(payload []byte, offset int, kind schema.ScalarKind) (interface{}, error) {
	width, ok := kind.Width()
	if !ok {
		return nil, fmt.Errorf("kind %v is not fixed-width: %w", kind, ErrInternal)
	}
	if offset < 0 || offset+width > len(payload) {
		return nil, fmt.Errorf("offset %d width %d outside %d-byte payload: %w",
			offset, width, len(payload), ErrResourceExhausted)
	}
	b := payload[offset : offset+width]

	switch kind {
	case schema.Bool:
		return b[0] != 0, nil
	case schema.Float:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b))), nil
	case schema.Double:
		return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
	}

	var u uint64
	switch width {
	case 1:
		u = uint64(b[0])
	case 2:
		u = uint64(binary.LittleEndian.Uint16(b))
	case 4:
		u = uint64(binary.LittleEndian.Uint32(b))
	case 8:
		u = binary.LittleEndian.Uint64(b)
	}
	if kind.Signed() {
		return signExtend(u, width), nil
	}
	return u, nil
}

func signExtend(u uint64, width int) int64 {
	shift := uint(64 - width*8)
	return int64(u<<shift) >> shift
}
