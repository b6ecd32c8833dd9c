// Package bufferpool implements a fixed-frame LRU cache of pages keyed by
// page id, with pin/unpin discipline and write-back on eviction.
package bufferpool

import (
	"errors"
	"log/slog"

	"github.com/novadb/novadb/internal/storage"
)

var (
	ErrBufferPoolExhausted = errors.New("bufferpool: all frames pinned, no victim available")
	ErrPageNotPinned       = errors.New("bufferpool: unpin called with pin_count already zero")
)

// frame holds one cached page plus its bookkeeping.
type frame struct {
	pageID    uint32
	page      *storage.Page
	dirty     bool
	pinCount  int
	lastUsed  uint64
	occupied  bool
}

// Pool is a fixed-capacity buffer pool. A pinned page is never evicted; a
// dirty page is written back before its frame is reused.
type Pool struct {
	dm       *storage.DiskManager
	frames   []frame
	pageToFr map[uint32]int
	tick     uint64
}

// NewPool creates a pool of capacity frames backed by dm.
func NewPool(dm *storage.DiskManager, capacity int) *Pool {
	if capacity <= 0 {
		capacity = 1
	}
	return &Pool{
		dm:       dm,
		frames:   make([]frame, capacity),
		pageToFr: make(map[uint32]int, capacity),
	}
}

func (p *Pool) Capacity() int { return len(p.frames) }

// Fetch pins and returns the page with id pageID, loading it from disk if
// not already cached.
func (p *Pool) Fetch(pageID uint32) (*storage.Page, error) {
	if idx, ok := p.pageToFr[pageID]; ok {
		f := &p.frames[idx]
		f.pinCount++
		p.tick++
		f.lastUsed = p.tick
		return f.page, nil
	}

	idx, err := p.victim()
	if err != nil {
		return nil, err
	}

	if err := p.evictFrame(idx); err != nil {
		return nil, err
	}

	buf, err := p.dm.ReadPage(pageID)
	if err != nil {
		return nil, err
	}
	page, err := storage.WrapPage(buf)
	if err != nil {
		return nil, err
	}

	p.tick++
	p.frames[idx] = frame{
		pageID:   pageID,
		page:     page,
		dirty:    false,
		pinCount: 1,
		lastUsed: p.tick,
		occupied: true,
	}
	p.pageToFr[pageID] = idx

	slog.Debug("bufferpool.fetch.miss", "page_id", pageID, "frame", idx)
	return page, nil
}

// NewPage allocates a fresh page on disk of the given type, then pins and
// returns it (pin count 1).
func (p *Pool) NewPage(pageType storage.PageType) (*storage.Page, error) {
	id, err := p.dm.AllocatePage(pageType)
	if err != nil {
		return nil, err
	}
	return p.Fetch(id)
}

// Unpin decrements the pin count for pageID, ORing dirty into the frame's
// dirty flag. pinCount must be > 0 on entry.
func (p *Pool) Unpin(pageID uint32, dirty bool) error {
	idx, ok := p.pageToFr[pageID]
	if !ok {
		return nil
	}
	f := &p.frames[idx]
	if f.pinCount <= 0 {
		return ErrPageNotPinned
	}
	if dirty {
		f.dirty = true
	}
	f.pinCount--
	return nil
}

// victim selects a frame to (re)use: an empty slot first, else the unpinned
// frame with the smallest lastUsed tick.
func (p *Pool) victim() (int, error) {
	for i := range p.frames {
		if !p.frames[i].occupied {
			return i, nil
		}
	}

	best := -1
	var bestTick uint64
	for i := range p.frames {
		if p.frames[i].pinCount > 0 {
			continue
		}
		if best == -1 || p.frames[i].lastUsed < bestTick {
			best = i
			bestTick = p.frames[i].lastUsed
		}
	}
	if best == -1 {
		return 0, ErrBufferPoolExhausted
	}
	return best, nil
}

// evictFrame writes back a dirty occupied frame and removes its page-table
// entry so the frame can be reused. No-op on an unoccupied frame.
func (p *Pool) evictFrame(idx int) error {
	f := &p.frames[idx]
	if !f.occupied {
		return nil
	}
	if f.dirty {
		if err := p.dm.WritePage(f.pageID, f.page.Buf); err != nil {
			return err
		}
		slog.Debug("bufferpool.evict.writeback", "page_id", f.pageID, "frame", idx)
	}
	delete(p.pageToFr, f.pageID)
	f.occupied = false
	return nil
}

// FlushPage writes pageID's frame to disk if dirty, without evicting it.
func (p *Pool) FlushPage(pageID uint32) error {
	idx, ok := p.pageToFr[pageID]
	if !ok {
		return nil
	}
	f := &p.frames[idx]
	if !f.dirty {
		return nil
	}
	if err := p.dm.WritePage(f.pageID, f.page.Buf); err != nil {
		return err
	}
	f.dirty = false
	return nil
}

// FlushAll writes every dirty frame to disk, clearing each dirty flag, then
// fsyncs the underlying file. Does not evict.
func (p *Pool) FlushAll() error {
	for i := range p.frames {
		f := &p.frames[i]
		if !f.occupied || !f.dirty {
			continue
		}
		if err := p.dm.WritePage(f.pageID, f.page.Buf); err != nil {
			return err
		}
		f.dirty = false
	}
	return p.dm.SyncAll()
}
