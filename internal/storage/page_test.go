package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestPage(t *testing.T) *Page {
	t.Helper()
	p, err := NewPage(make([]byte, PageSize), PageTypeData, 7)
	require.NoError(t, err)
	return p
}

func TestPage_AddRowThenGetRow(t *testing.T) {
	p := newTestPage(t)

	slot, err := p.AddRow([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 0, slot)

	got, ok := p.GetRow(slot)
	require.True(t, ok)
	require.Equal(t, []byte("hello"), got)
}

func TestPage_GetRow_Tombstone(t *testing.T) {
	p := newTestPage(t)
	slot, err := p.AddRow([]byte("x"))
	require.NoError(t, err)

	require.NoError(t, p.DeleteRow(slot))
	_, ok := p.GetRow(slot)
	require.False(t, ok)
}

func TestPage_GetRow_OutOfRange(t *testing.T) {
	p := newTestPage(t)
	_, ok := p.GetRow(3)
	require.False(t, ok)
}

func TestPage_AddRow_FillsUntilPageFull(t *testing.T) {
	p := newTestPage(t)
	row := make([]byte, 100)

	count := 0
	for {
		_, err := p.AddRow(row)
		if err != nil {
			require.ErrorIs(t, err, ErrPageFull)
			break
		}
		count++
	}
	require.Greater(t, count, 0)
	require.Less(t, p.FreeSpace(), len(row)+SlotSize)
}

func TestPage_AddRow_RowTooLarge(t *testing.T) {
	p := newTestPage(t)
	_, err := p.AddRow(make([]byte, PageSize))
	require.ErrorIs(t, err, ErrRowTooLarge)
}

func TestPage_UpdateRow_WrongLength(t *testing.T) {
	p := newTestPage(t)
	slot, err := p.AddRow([]byte("abc"))
	require.NoError(t, err)

	err = p.UpdateRow(slot, []byte("ab"))
	require.Error(t, err)

	require.NoError(t, p.UpdateRow(slot, []byte("xyz")))
	got, ok := p.GetRow(slot)
	require.True(t, ok)
	require.Equal(t, []byte("xyz"), got)
}

func TestPage_RoundTripsThroughBytes(t *testing.T) {
	p := newTestPage(t)
	_, err := p.AddRow([]byte("row-a"))
	require.NoError(t, err)
	_, err = p.AddRow([]byte("row-b"))
	require.NoError(t, err)

	cloned, err := WrapPage(append([]byte(nil), p.Buf...))
	require.NoError(t, err)

	require.Equal(t, p.PageID(), cloned.PageID())
	require.Equal(t, p.NumSlots(), cloned.NumSlots())

	for i := 0; i < p.NumSlots(); i++ {
		want, _ := p.GetRow(i)
		got, _ := cloned.GetRow(i)
		require.Equal(t, want, got)
	}
}

func TestPage_DisjointSlotRanges(t *testing.T) {
	p := newTestPage(t)
	var slots []int
	for i := 0; i < 5; i++ {
		s, err := p.AddRow([]byte{byte(i), byte(i), byte(i)})
		require.NoError(t, err)
		slots = append(slots, s)
	}

	type rng struct{ lo, hi int }
	var ranges []rng
	for _, s := range slots {
		sl := p.slotAt(s)
		ranges = append(ranges, rng{int(sl.Offset), int(sl.Offset) + int(sl.Length)})
	}
	for i := range ranges {
		for j := range ranges {
			if i == j {
				continue
			}
			overlap := ranges[i].lo < ranges[j].hi && ranges[j].lo < ranges[i].hi
			require.False(t, overlap, "slot ranges must be disjoint")
		}
	}
}
