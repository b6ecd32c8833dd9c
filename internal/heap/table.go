package heap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/novadb/novadb/internal/bufferpool"
	"github.com/novadb/novadb/internal/record"
	"github.com/novadb/novadb/internal/storage"
)

var (
	ErrNotFound     = errors.New("heap: row not found")
	ErrRowTooLarge  = storage.ErrRowTooLarge
	ErrBadMetaPage  = errors.New("heap: malformed metadata page")
)

// Table is a per-table heap file: page 0 is metadata (name + schema), pages
// 1..n are data pages filled in append order.
type Table struct {
	Name   string
	Schema record.Schema

	dm       *storage.DiskManager
	bp       *bufferpool.Pool
	numPages uint32 // total pages including page 0
}

// Create creates a new table file at path, writes its metadata page, and
// flushes it durably.
func Create(name string, schema record.Schema, path string, bpCapacity int) (*Table, error) {
	dm, err := storage.OpenDiskManager(path)
	if err != nil {
		return nil, err
	}
	n, err := dm.NumPages()
	if err != nil {
		return nil, err
	}
	if n != 0 {
		return nil, fmt.Errorf("heap: table file %s already exists", path)
	}

	bp := bufferpool.NewPool(dm, bpCapacity)

	metaPage, err := bp.NewPage(storage.PageTypeMeta)
	if err != nil {
		return nil, err
	}
	nameSlot, err := metaPage.AddRow([]byte("TABLE:" + name + "\n"))
	if err != nil {
		return nil, err
	}
	if nameSlot != 0 {
		return nil, ErrBadMetaPage
	}
	schemaSlot, err := metaPage.AddRow(record.EncodeSchema(schema))
	if err != nil {
		return nil, err
	}
	if schemaSlot != 1 {
		return nil, ErrBadMetaPage
	}
	if err := bp.Unpin(metaPage.PageID(), true); err != nil {
		return nil, err
	}
	if err := bp.FlushAll(); err != nil {
		return nil, err
	}

	slog.Debug("heap.table.created", "name", name, "columns", schema.Arity())

	return &Table{Name: name, Schema: schema, dm: dm, bp: bp, numPages: 1}, nil
}

// Open reads page 0 of the table file at path and reconstructs the schema.
func Open(path string, bpCapacity int) (*Table, error) {
	dm, err := storage.OpenDiskManager(path)
	if err != nil {
		return nil, err
	}
	n, err := dm.NumPages()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("heap: table file %s has no metadata page", path)
	}

	bp := bufferpool.NewPool(dm, bpCapacity)

	metaPage, err := bp.Fetch(0)
	if err != nil {
		return nil, err
	}
	nameBytes, ok := metaPage.GetRow(0)
	if !ok {
		return nil, ErrBadMetaPage
	}
	name, err := parseTableNameLine(nameBytes)
	if err != nil {
		return nil, err
	}
	schemaBytes, ok := metaPage.GetRow(1)
	if !ok {
		return nil, ErrBadMetaPage
	}
	schema, err := record.DecodeSchema(schemaBytes)
	if err != nil {
		return nil, err
	}
	if err := bp.Unpin(0, false); err != nil {
		return nil, err
	}

	return &Table{Name: name, Schema: schema, dm: dm, bp: bp, numPages: n}, nil
}

func parseTableNameLine(b []byte) (string, error) {
	const prefix = "TABLE:"
	s := string(b)
	if len(s) < len(prefix)+1 || s[:len(prefix)] != prefix || s[len(s)-1] != '\n' {
		return "", ErrBadMetaPage
	}
	return s[len(prefix) : len(s)-1], nil
}

// Insert validates row against the schema, encodes it, and appends it to
// the last data page (allocating a new one if the current one is full).
func (t *Table) Insert(row []record.Value) (RowId, error) {
	if err := t.Schema.Validate(row); err != nil {
		return RowId{}, err
	}
	data, err := record.EncodeRow(t.Schema, row)
	if err != nil {
		return RowId{}, err
	}

	if t.numPages < 2 {
		if err := t.allocateDataPage(); err != nil {
			return RowId{}, err
		}
	}
	pageID := t.numPages - 1

	for {
		page, err := t.bp.Fetch(pageID)
		if err != nil {
			return RowId{}, err
		}

		slot, err := page.AddRow(data)
		if errors.Is(err, storage.ErrPageFull) {
			_ = t.bp.Unpin(pageID, false)
			if err := t.allocateDataPage(); err != nil {
				return RowId{}, err
			}
			pageID = t.numPages - 1
			continue
		}
		if err != nil {
			_ = t.bp.Unpin(pageID, false)
			return RowId{}, err
		}

		if err := t.bp.Unpin(pageID, true); err != nil {
			return RowId{}, err
		}
		return RowId{PageID: pageID, SlotID: uint16(slot)}, nil
	}
}

func (t *Table) allocateDataPage() error {
	page, err := t.bp.NewPage(storage.PageTypeData)
	if err != nil {
		return err
	}
	t.numPages++
	return t.bp.Unpin(page.PageID(), true)
}

// Get fetches and decodes the row at id. A tombstoned or out-of-range slot
// is ErrNotFound.
func (t *Table) Get(id RowId) ([]record.Value, error) {
	page, err := t.bp.Fetch(id.PageID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = t.bp.Unpin(id.PageID, false) }()

	data, ok := page.GetRow(int(id.SlotID))
	if !ok {
		return nil, ErrNotFound
	}
	return record.DecodeRow(t.Schema, data)
}

// Delete tombstones the slot at id.
func (t *Table) Delete(id RowId) error {
	page, err := t.bp.Fetch(id.PageID)
	if err != nil {
		return err
	}
	if !page.IsLive(int(id.SlotID)) {
		_ = t.bp.Unpin(id.PageID, false)
		return ErrNotFound
	}
	if err := page.DeleteRow(int(id.SlotID)); err != nil {
		_ = t.bp.Unpin(id.PageID, false)
		return err
	}
	return t.bp.Unpin(id.PageID, true)
}

// Flush flushes the buffer pool and syncs the disk manager.
func (t *Table) Flush() error {
	return t.bp.FlushAll()
}

// NumDataPages returns the number of data pages (excluding metadata page 0).
func (t *Table) NumDataPages() uint32 {
	if t.numPages == 0 {
		return 0
	}
	return t.numPages - 1
}
