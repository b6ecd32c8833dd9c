// Package heap implements schema-driven heap tables on top of slotted pages:
// a metadata page 0 followed by append-only data pages, with a sequential
// scan iterator.
package heap

import "fmt"

// RowId identifies a row's physical location. Stable for the row's
// lifetime; rows are never relocated (DELETE tombstones the slot instead).
type RowId struct {
	PageID uint32
	SlotID uint16
}

func (r RowId) String() string {
	return fmt.Sprintf("(%d,%d)", r.PageID, r.SlotID)
}
