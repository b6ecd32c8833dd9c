package record

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrCorruptRow is returned when decoding encounters bytes that cannot be a
// valid encoding under the given schema: a boolean byte outside {0,1}, a
// truncated buffer, or an invalid UTF-8 string payload.
var ErrCorruptRow = errors.New("record: corrupt row")

// EncodeRow serializes row according to schema's column order. Layout:
//
//	u16 column_count
//	per column, in schema order:
//	  INTEGER -> 8-byte little-endian int64
//	  BOOLEAN -> 1 byte, 0 or 1
//	  VARCHAR -> u32 length, then length UTF-8 bytes
//
// There is no per-row type tag; decoding is driven entirely by schema.
func EncodeRow(schema Schema, row []Value) ([]byte, error) {
	if err := schema.Validate(row); err != nil {
		return nil, err
	}

	buf := make([]byte, 2, 16)
	binary.LittleEndian.PutUint16(buf, uint16(len(row)))

	for i, col := range schema.Columns {
		v := row[i]
		switch col.Type {
		case IntegerType:
			var b [8]byte
			binary.LittleEndian.PutUint64(b[:], uint64(v.I))
			buf = append(buf, b[:]...)
		case BooleanType:
			if v.B {
				buf = append(buf, 1)
			} else {
				buf = append(buf, 0)
			}
		case VarcharType:
			s := []byte(v.S)
			var l [4]byte
			binary.LittleEndian.PutUint32(l[:], uint32(len(s)))
			buf = append(buf, l[:]...)
			buf = append(buf, s...)
		default:
			return nil, fmt.Errorf("record: unsupported column type %s", col.Type)
		}
	}
	return buf, nil
}

// DecodeRow deserializes buf into row values according to schema.
func DecodeRow(schema Schema, buf []byte) ([]Value, error) {
	if len(buf) < 2 {
		return nil, ErrCorruptRow
	}
	count := int(binary.LittleEndian.Uint16(buf))
	if count != schema.Arity() {
		return nil, fmt.Errorf("%w: column count %d != schema arity %d", ErrCorruptRow, count, schema.Arity())
	}

	i := 2
	out := make([]Value, count)
	for idx, col := range schema.Columns {
		switch col.Type {
		case IntegerType:
			if i+8 > len(buf) {
				return nil, ErrCorruptRow
			}
			out[idx] = Integer(int64(binary.LittleEndian.Uint64(buf[i : i+8])))
			i += 8
		case BooleanType:
			if i+1 > len(buf) {
				return nil, ErrCorruptRow
			}
			switch buf[i] {
			case 0:
				out[idx] = Boolean(false)
			case 1:
				out[idx] = Boolean(true)
			default:
				return nil, ErrCorruptRow
			}
			i++
		case VarcharType:
			if i+4 > len(buf) {
				return nil, ErrCorruptRow
			}
			l := int(binary.LittleEndian.Uint32(buf[i : i+4]))
			i += 4
			if l < 0 || i+l > len(buf) {
				return nil, ErrCorruptRow
			}
			s := buf[i : i+l]
			if !utf8.Valid(s) {
				return nil, ErrCorruptRow
			}
			out[idx] = String(string(s))
			i += l
		default:
			return nil, fmt.Errorf("record: unsupported column type %s", col.Type)
		}
	}
	return out, nil
}

// EncodeSchema serializes a Schema for storage in a table's metadata page.
// Layout: u16 column_count, then per column: u8 type tag, u16 name length,
// name bytes (self-describing; used only for table metadata, not rows).
func EncodeSchema(s Schema) []byte {
	buf := make([]byte, 2, 32)
	binary.LittleEndian.PutUint16(buf, uint16(len(s.Columns)))
	for _, c := range s.Columns {
		buf = append(buf, byte(c.Type))
		var l [2]byte
		binary.LittleEndian.PutUint16(l[:], uint16(len(c.Name)))
		buf = append(buf, l[:]...)
		buf = append(buf, []byte(c.Name)...)
	}
	return buf
}

// DecodeSchema is the inverse of EncodeSchema.
func DecodeSchema(buf []byte) (Schema, error) {
	if len(buf) < 2 {
		return Schema{}, ErrCorruptRow
	}
	count := int(binary.LittleEndian.Uint16(buf))
	i := 2
	cols := make([]Column, 0, count)
	for c := 0; c < count; c++ {
		if i+3 > len(buf) {
			return Schema{}, ErrCorruptRow
		}
		typ := ColumnType(buf[i])
		i++
		l := int(binary.LittleEndian.Uint16(buf[i : i+2]))
		i += 2
		if i+l > len(buf) {
			return Schema{}, ErrCorruptRow
		}
		name := string(buf[i : i+l])
		i += l
		cols = append(cols, Column{Name: name, Type: typ})
	}
	return Schema{Columns: cols}, nil
}
