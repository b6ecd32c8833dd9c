// Package storage implements the slotted page format and the disk manager
// that durably persists pages, one file per table.
package storage

import (
	"encoding/binary"
	"errors"
)

// PageSize is the fixed size of every page on disk and in the buffer pool.
const PageSize = 8192

// Header layout, little-endian:
//
//	page_type: u16
//	page_id: u32
//	num_slots: u16
//	free_space_offset: u16
const (
	offPageType         = 0
	offPageID           = 2
	offNumSlots         = 6
	offFreeSpaceOffset  = 8
	HeaderSize          = 10
	SlotSize            = 4 // (offset: u16, length: u16)
)

type PageType uint16

const (
	PageTypeMeta PageType = 1
	PageTypeData PageType = 2
)

var (
	ErrPageFull     = errors.New("storage: page full")
	ErrBadSlot      = errors.New("storage: slot out of range")
	ErrWrongSize    = errors.New("storage: buffer is not exactly PageSize bytes")
	ErrRowTooLarge  = errors.New("storage: row too large for a single page")
	ErrPageNotFound = errors.New("storage: page not found")
	ErrCorruptPage  = errors.New("storage: corrupt page")
)

// Slot is a directory entry: (offset, length). length == 0 marks a tombstone.
type Slot struct {
	Offset uint16
	Length uint16
}

// Page is an 8 KiB slotted page: header, slot directory growing forward,
// row bytes growing backward from the tail.
type Page struct {
	Buf []byte
}

// NewPage wraps buf (which must be exactly PageSize bytes) as a freshly
// initialized page of the given type and id.
func NewPage(buf []byte, pageType PageType, pageID uint32) (*Page, error) {
	if len(buf) != PageSize {
		return nil, ErrWrongSize
	}
	p := &Page{Buf: buf}
	p.init(pageType, pageID)
	return p, nil
}

// WrapPage wraps an existing, already-initialized PageSize buffer without
// touching its contents (used when loading a page back from disk).
func WrapPage(buf []byte) (*Page, error) {
	if len(buf) != PageSize {
		return nil, ErrWrongSize
	}
	return &Page{Buf: buf}, nil
}

func (p *Page) init(pageType PageType, pageID uint32) {
	for i := range p.Buf {
		p.Buf[i] = 0
	}
	p.setPageType(pageType)
	p.setPageID(pageID)
	p.setNumSlots(0)
	p.setFreeSpaceOffset(PageSize)
}

func (p *Page) PageType() PageType {
	return PageType(binary.LittleEndian.Uint16(p.Buf[offPageType:]))
}

func (p *Page) setPageType(t PageType) {
	binary.LittleEndian.PutUint16(p.Buf[offPageType:], uint16(t))
}

func (p *Page) PageID() uint32 {
	return binary.LittleEndian.Uint32(p.Buf[offPageID:])
}

func (p *Page) setPageID(id uint32) {
	binary.LittleEndian.PutUint32(p.Buf[offPageID:], id)
}

func (p *Page) NumSlots() int {
	return int(binary.LittleEndian.Uint16(p.Buf[offNumSlots:]))
}

func (p *Page) setNumSlots(n int) {
	binary.LittleEndian.PutUint16(p.Buf[offNumSlots:], uint16(n))
}

func (p *Page) freeSpaceOffset() int {
	return int(binary.LittleEndian.Uint16(p.Buf[offFreeSpaceOffset:]))
}

func (p *Page) setFreeSpaceOffset(v int) {
	binary.LittleEndian.PutUint16(p.Buf[offFreeSpaceOffset:], uint16(v))
}

// slotDirEnd is the first byte past the slot directory.
func (p *Page) slotDirEnd() int {
	return HeaderSize + p.NumSlots()*SlotSize
}

func (p *Page) slotAt(i int) Slot {
	off := HeaderSize + i*SlotSize
	return Slot{
		Offset: binary.LittleEndian.Uint16(p.Buf[off:]),
		Length: binary.LittleEndian.Uint16(p.Buf[off+2:]),
	}
}

func (p *Page) putSlot(i int, s Slot) {
	off := HeaderSize + i*SlotSize
	binary.LittleEndian.PutUint16(p.Buf[off:], s.Offset)
	binary.LittleEndian.PutUint16(p.Buf[off+2:], s.Length)
}

// FreeSpace is the number of bytes available between the slot directory and
// the row-data tail.
func (p *Page) FreeSpace() int {
	return p.freeSpaceOffset() - p.slotDirEnd()
}

// AddRow appends bytes as a new row, returning its slot index.
// Fails with ErrPageFull if there is not enough contiguous free space for
// both the payload and a new slot directory entry.
func (p *Page) AddRow(row []byte) (int, error) {
	maxInline := PageSize - HeaderSize - SlotSize
	if len(row) > maxInline {
		return -1, ErrRowTooLarge
	}
	need := len(row) + SlotSize
	if p.FreeSpace() < need {
		return -1, ErrPageFull
	}

	newOffset := p.freeSpaceOffset() - len(row)
	copy(p.Buf[newOffset:], row)
	p.setFreeSpaceOffset(newOffset)

	idx := p.NumSlots()
	p.putSlot(idx, Slot{Offset: uint16(newOffset), Length: uint16(len(row))})
	p.setNumSlots(idx + 1)
	return idx, nil
}

// GetRow returns the payload slice for slot, or (nil, false) if the slot is
// out of range or tombstoned.
func (p *Page) GetRow(slot int) ([]byte, bool) {
	if slot < 0 || slot >= p.NumSlots() {
		return nil, false
	}
	s := p.slotAt(slot)
	if s.Length == 0 {
		return nil, false
	}
	start, end := int(s.Offset), int(s.Offset)+int(s.Length)
	if start < 0 || end > PageSize || start >= end {
		return nil, false
	}
	return p.Buf[start:end], true
}

// UpdateRow overwrites slot's payload in place. The new payload must be
// exactly the same length as the existing one (fixed-size in-place update).
func (p *Page) UpdateRow(slot int, row []byte) error {
	if slot < 0 || slot >= p.NumSlots() {
		return ErrBadSlot
	}
	s := p.slotAt(slot)
	if s.Length == 0 {
		return ErrBadSlot
	}
	if int(s.Length) != len(row) {
		return errors.New("storage: update_row length must equal existing row length")
	}
	copy(p.Buf[s.Offset:int(s.Offset)+len(row)], row)
	return nil
}

// DeleteRow tombstones slot by zeroing its length. Space is not reclaimed.
func (p *Page) DeleteRow(slot int) error {
	if slot < 0 || slot >= p.NumSlots() {
		return ErrBadSlot
	}
	s := p.slotAt(slot)
	p.putSlot(slot, Slot{Offset: s.Offset, Length: 0})
	return nil
}

// IsLive reports whether slot is in range and not tombstoned.
func (p *Page) IsLive(slot int) bool {
	if slot < 0 || slot >= p.NumSlots() {
		return false
	}
	return p.slotAt(slot).Length != 0
}
