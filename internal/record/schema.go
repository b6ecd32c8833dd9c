package record

import "fmt"

// ColumnType is one of the three scalar types a column may hold.
type ColumnType uint8

const (
	IntegerType ColumnType = iota
	BooleanType
	VarcharType
)

func (t ColumnType) String() string {
	switch t {
	case IntegerType:
		return "INTEGER"
	case BooleanType:
		return "BOOLEAN"
	case VarcharType:
		return "VARCHAR"
	default:
		return "UNKNOWN"
	}
}

func (t ColumnType) matches(k Kind) bool {
	switch t {
	case IntegerType:
		return k == KindInteger
	case BooleanType:
		return k == KindBoolean
	case VarcharType:
		return k == KindString
	default:
		return false
	}
}

// Column is a single (name, type) pair in a Schema.
type Column struct {
	Name string
	Type ColumnType
}

// Schema is an ordered sequence of columns. Column names are unique within
// a schema and looked up case-sensitively.
type Schema struct {
	Columns []Column
}

func NewSchema(cols ...Column) Schema {
	return Schema{Columns: cols}
}

func (s Schema) Arity() int { return len(s.Columns) }

// IndexOf returns the position of name in the schema, or -1 if absent.
func (s Schema) IndexOf(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Validate checks that row has the schema's arity and that every value's
// kind matches its column's declared type.
func (s Schema) Validate(row []Value) error {
	if len(row) != len(s.Columns) {
		return fmt.Errorf("record: row has %d values, schema has %d columns", len(row), len(s.Columns))
	}
	for i, col := range s.Columns {
		if !col.Type.matches(row[i].Kind) {
			return fmt.Errorf("record: column %q expects %s, got %s", col.Name, col.Type, row[i].Kind)
		}
	}
	return nil
}
