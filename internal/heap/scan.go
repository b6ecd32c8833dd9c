package heap

import (
	"github.com/novadb/novadb/internal/record"
	"github.com/novadb/novadb/internal/storage"
)

// TableScan is the volcano source over a heap table: it starts at page 1,
// slot 0, and advances slot then page, skipping tombstones, until pages run
// out. Each page is pinned for the duration of iterating its slots, then
// unpinned before advancing.
type TableScan struct {
	table   *Table
	pageID  uint32
	slot    int
	page    *storage.Page // pinned while non-nil
	done    bool
	current *rowRef
}

type rowRef struct {
	id  RowId
	row []record.Value
}

// NewTableScan creates a scan positioned before the first row.
func NewTableScan(t *Table) *TableScan {
	return &TableScan{table: t, pageID: 1, slot: 0}
}

// Next advances to the next live row and returns true, or returns false
// when the scan is exhausted. It is not restartable after returning false.
func (s *TableScan) Next() (bool, error) {
	if s.done {
		return false, nil
	}

	for {
		if s.page == nil {
			if s.pageID >= s.table.numPages {
				s.done = true
				return false, nil
			}
			page, err := s.table.bp.Fetch(s.pageID)
			if err != nil {
				return false, err
			}
			s.page = page
			s.slot = 0
		}

		if s.slot >= s.page.NumSlots() {
			_ = s.table.bp.Unpin(s.pageID, false)
			s.page = nil
			s.pageID++
			continue
		}

		slot := s.slot
		s.slot++
		if !s.page.IsLive(slot) {
			continue
		}
		data, ok := s.page.GetRow(slot)
		if !ok {
			continue
		}
		row, err := record.DecodeRow(s.table.Schema, data)
		if err != nil {
			_ = s.table.bp.Unpin(s.pageID, false)
			return false, err
		}
		s.current = &rowRef{id: RowId{PageID: s.pageID, SlotID: uint16(slot)}, row: row}
		return true, nil
	}
}

// Row returns the (RowId, row) most recently produced by Next.
func (s *TableScan) Row() (RowId, []record.Value) {
	return s.current.id, s.current.row
}

// Close releases the pin on the currently held page, if any. Safe to call
// multiple times; a caller that drains Next to completion need not call it.
func (s *TableScan) Close() {
	if s.page != nil {
		_ = s.table.bp.Unpin(s.pageID, false)
		s.page = nil
	}
	s.done = true
}
