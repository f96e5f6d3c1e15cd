// Package projector converts one positioned field into its output cell
// representation, dispatching purely on the field's scalar kind.
package projector

import (
	"fmt"

	"github.com/tracekit/dtracecol/internal/colval"
	"github.com/tracekit/dtracecol/internal/decoder"
	"github.com/tracekit/dtracecol/internal/schema"
)

// Project extracts the next field from the cursor per the declared kind and
// normalizes it: signed integer kinds sign-extend into signed 64-bit cells,
// unsigned and pointer kinds widen into unsigned 64-bit cells, floating
// kinds widen to 64-bit floats, and the three variable-length kinds all
// produce text cells. blobSpec is consulted only for struct-blob fields.
//
// An Unknown or out-of-range kind is a schema-compiler defect and fails
// with ErrInternal; cursor failures propagate unchanged.
func Project(c *decoder.Cursor, kind schema.ScalarKind, blobSpec schema.BlobSpec) (colval.Value, error) {
	switch kind {
	case schema.Bool:
		v, err := c.U8()
		if err != nil {
			return colval.Value{}, err
		}
		return colval.Bool(v != 0), nil

	case schema.Char, schema.Int8:
		v, err := c.U8()
		if err != nil {
			return colval.Value{}, err
		}
		return colval.Int64(int64(int8(v))), nil

	case schema.Short, schema.Int16:
		v, err := c.U16()
		if err != nil {
			return colval.Value{}, err
		}
		return colval.Int64(int64(int16(v))), nil

	case schema.Int, schema.Int32:
		v, err := c.U32()
		if err != nil {
			return colval.Value{}, err
		}
		return colval.Int64(int64(int32(v))), nil

	case schema.Long, schema.LongLong, schema.Int64:
		v, err := c.U64()
		if err != nil {
			return colval.Value{}, err
		}
		return colval.Int64(int64(v)), nil

	case schema.UChar, schema.UInt8:
		v, err := c.U8()
		if err != nil {
			return colval.Value{}, err
		}
		return colval.UInt64(uint64(v)), nil

	case schema.UShort, schema.UInt16:
		v, err := c.U16()
		if err != nil {
			return colval.Value{}, err
		}
		return colval.UInt64(uint64(v)), nil

	case schema.UInt, schema.UInt32:
		v, err := c.U32()
		if err != nil {
			return colval.Value{}, err
		}
		return colval.UInt64(uint64(v)), nil

	case schema.ULong, schema.ULongLong, schema.UInt64, schema.Pointer:
		v, err := c.U64()
		if err != nil {
			return colval.Value{}, err
		}
		return colval.UInt64(v), nil

	case schema.Float:
		v, err := c.F32()
		if err != nil {
			return colval.Value{}, err
		}
		return colval.Float64(float64(v)), nil

	case schema.Double:
		v, err := c.F64()
		if err != nil {
			return colval.Value{}, err
		}
		return colval.Float64(v), nil

	case schema.String:
		v, err := c.String()
		if err != nil {
			return colval.Value{}, err
		}
		return colval.Str(v), nil

	case schema.ByteArray:
		v, err := c.BytesHex()
		if err != nil {
			return colval.Value{}, err
		}
		return colval.Str(v), nil

	case schema.StructBlob:
		v, err := c.BlobJSON(blobSpec)
		if err != nil {
			return colval.Value{}, err
		}
		return colval.Str(v), nil

	default:
		return colval.Value{}, fmt.Errorf("scalar kind %v cannot be projected: %w", kind, decoder.ErrInternal)
	}
}
