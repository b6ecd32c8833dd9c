package record

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testSchema() Schema {
	return NewSchema(
		Column{Name: "id", Type: IntegerType},
		Column{Name: "active", Type: BooleanType},
		Column{Name: "name", Type: VarcharType},
	)
}

func TestEncodeDecodeRow_RoundTrip(t *testing.T) {
	schema := testSchema()
	row := []Value{Integer(42), Boolean(true), String("hello")}

	buf, err := EncodeRow(schema, row)
	require.NoError(t, err)
	require.NotEmpty(t, buf)

	decoded, err := DecodeRow(schema, buf)
	require.NoError(t, err)
	require.Equal(t, row, decoded)
}

func TestEncodeRow_QuoteEscapedString(t *testing.T) {
	schema := NewSchema(Column{Name: "s", Type: VarcharType})
	row := []Value{String("it's")}

	buf, err := EncodeRow(schema, row)
	require.NoError(t, err)

	decoded, err := DecodeRow(schema, buf)
	require.NoError(t, err)
	require.Equal(t, "it's", decoded[0].S)
}

func TestEncodeRow_ArityMismatch(t *testing.T) {
	schema := testSchema()
	_, err := EncodeRow(schema, []Value{Integer(1)})
	require.Error(t, err)
}

func TestEncodeRow_TypeMismatch(t *testing.T) {
	schema := testSchema()
	row := []Value{String("oops"), Boolean(true), String("x")}
	_, err := EncodeRow(schema, row)
	require.Error(t, err)
}

func TestDecodeRow_CorruptBoolean(t *testing.T) {
	schema := NewSchema(Column{Name: "b", Type: BooleanType})
	buf := []byte{1, 0, 2} // count=1, bool byte=2 (invalid)
	_, err := DecodeRow(schema, buf)
	require.ErrorIs(t, err, ErrCorruptRow)
}

func TestDecodeRow_TruncatedBuffer(t *testing.T) {
	schema := testSchema()
	row := []Value{Integer(1), Boolean(false), String("x")}
	buf, err := EncodeRow(schema, row)
	require.NoError(t, err)

	_, err = DecodeRow(schema, buf[:len(buf)-1])
	require.ErrorIs(t, err, ErrCorruptRow)
}

func TestDecodeRow_InvalidUTF8(t *testing.T) {
	schema := NewSchema(Column{Name: "s", Type: VarcharType})
	buf, err := EncodeRow(schema, []Value{String("ok")})
	require.NoError(t, err)

	// Overwrite the payload bytes with an invalid UTF-8 sequence of the same length.
	bad := append([]byte(nil), buf...)
	bad[len(bad)-2] = 0xff
	bad[len(bad)-1] = 0xfe

	_, err = DecodeRow(schema, bad)
	require.ErrorIs(t, err, ErrCorruptRow)
}

func TestEncodeDecodeSchema_RoundTrip(t *testing.T) {
	schema := testSchema()
	buf := EncodeSchema(schema)
	decoded, err := DecodeSchema(buf)
	require.NoError(t, err)
	require.Equal(t, schema, decoded)
}

func TestSchema_IndexOfCaseSensitive(t *testing.T) {
	schema := testSchema()
	require.Equal(t, 0, schema.IndexOf("id"))
	require.Equal(t, -1, schema.IndexOf("ID"))
	require.Equal(t, -1, schema.IndexOf("missing"))
}

func TestValue_CompareCrossKindErrors(t *testing.T) {
	_, err := Integer(1).Compare(String("1"))
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestValue_CompareOrdering(t *testing.T) {
	lt, err := Integer(1).Compare(Integer(2))
	require.NoError(t, err)
	require.Negative(t, lt)

	bf, err := Boolean(false).Compare(Boolean(true))
	require.NoError(t, err)
	require.Negative(t, bf)

	strCmp, err := String("a").Compare(String("b"))
	require.NoError(t, err)
	require.Negative(t, strCmp)
}

func TestEncodeRow_LargeVarchar(t *testing.T) {
	schema := NewSchema(Column{Name: "s", Type: VarcharType})
	big := strings.Repeat("x", 70000) // exceeds a u16 length, exercises the u32 length field
	buf, err := EncodeRow(schema, []Value{String(big)})
	require.NoError(t, err)

	decoded, err := DecodeRow(schema, buf)
	require.NoError(t, err)
	require.Equal(t, big, decoded[0].S)
}
