package executor

import (
	"github.com/novadb/novadb/internal/record"
)

// Kind classifies a Result, so the REPL layer can render each statement the
// way §6 specifies rather than one generic shape for everything.
type Kind int

const (
	// KindAck covers CREATE TABLE, DROP TABLE, CREATE INDEX: acknowledgment
	// only, no payload.
	KindAck Kind = iota
	// KindRowCount covers INSERT and DELETE.
	KindRowCount
	// KindRows covers SELECT.
	KindRows
)

// Result is the uniform value Exec returns for any statement.
type Result struct {
	Kind     Kind
	RowCount int
	Schema   record.Schema
	Rows     [][]record.Value
	Plan     string // human-readable plan, SELECT only
}
