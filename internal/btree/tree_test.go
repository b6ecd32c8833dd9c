package btree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/novadb/novadb/internal/heap"
)

func rid(page uint32, slot uint16) heap.RowId {
	return heap.RowId{PageID: page, SlotID: slot}
}

func TestTree_InsertSearchRoundTrip(t *testing.T) {
	tr := New(1)
	for i := int64(0); i < 20; i++ {
		tr.Insert(CompositeKey{i}, rid(uint32(i), 0))
	}
	for i := int64(0); i < 20; i++ {
		vals, ok := tr.Search(CompositeKey{i})
		require.True(t, ok)
		require.Equal(t, []heap.RowId{rid(uint32(i), 0)}, vals)
	}
	_, ok := tr.Search(CompositeKey{99})
	require.False(t, ok)
}

func TestTree_SplitsAndStaysBalanced(t *testing.T) {
	tr := New(1)
	// enough inserts to force several levels of splitting
	for i := int64(0); i < 200; i++ {
		tr.Insert(CompositeKey{i}, rid(uint32(i), 0))
	}
	require.Greater(t, tr.Height, 0)
	for i := int64(0); i < 200; i++ {
		_, ok := tr.Search(CompositeKey{i})
		require.True(t, ok, "missing key %d", i)
	}
}

func TestTree_InsertOutOfOrder(t *testing.T) {
	tr := New(1)
	keys := []int64{5, 1, 9, 3, 7, 2, 8, 0, 6, 4}
	for _, k := range keys {
		tr.Insert(CompositeKey{k}, rid(uint32(k), 0))
	}
	for _, k := range keys {
		vals, ok := tr.Search(CompositeKey{k})
		require.True(t, ok)
		require.Equal(t, rid(uint32(k), 0), vals[0])
	}
}

func TestTree_MultimapDuplicateKeys(t *testing.T) {
	tr := New(1)
	tr.Insert(CompositeKey{42}, rid(1, 0))
	tr.Insert(CompositeKey{42}, rid(2, 0))
	tr.Insert(CompositeKey{42}, rid(3, 0))

	vals, ok := tr.Search(CompositeKey{42})
	require.True(t, ok)
	require.ElementsMatch(t, []heap.RowId{rid(1, 0), rid(2, 0), rid(3, 0)}, vals)
}

func TestTree_DeleteRemovesOnlyOneRowId(t *testing.T) {
	tr := New(1)
	tr.Insert(CompositeKey{1}, rid(1, 0))
	tr.Insert(CompositeKey{1}, rid(2, 0))

	ok := tr.Delete(CompositeKey{1}, rid(1, 0))
	require.True(t, ok)

	vals, found := tr.Search(CompositeKey{1})
	require.True(t, found)
	require.Equal(t, []heap.RowId{rid(2, 0)}, vals)
}

func TestTree_DeleteLastValueRemovesKey(t *testing.T) {
	tr := New(1)
	tr.Insert(CompositeKey{1}, rid(1, 0))

	ok := tr.Delete(CompositeKey{1}, rid(1, 0))
	require.True(t, ok)

	_, found := tr.Search(CompositeKey{1})
	require.False(t, found)
}

func TestTree_DeleteMissingReturnsFalse(t *testing.T) {
	tr := New(1)
	tr.Insert(CompositeKey{1}, rid(1, 0))
	require.False(t, tr.Delete(CompositeKey{1}, rid(9, 9)))
	require.False(t, tr.Delete(CompositeKey{404}, rid(1, 0)))
}

func TestTree_RangeScanAscendingInclusive(t *testing.T) {
	tr := New(1)
	for i := int64(0); i < 50; i++ {
		tr.Insert(CompositeKey{i}, rid(uint32(i), 0))
	}

	it := tr.RangeScan(CompositeKey{10}, CompositeKey{15})
	var got []int64
	for it.Next() {
		got = append(got, it.Key()[0])
	}
	require.Equal(t, []int64{10, 11, 12, 13, 14, 15}, got)
}

func TestTree_RangeScanEmptyWhenLoAfterAllKeys(t *testing.T) {
	tr := New(1)
	for i := int64(0); i < 5; i++ {
		tr.Insert(CompositeKey{i}, rid(uint32(i), 0))
	}
	it := tr.RangeScan(CompositeKey{100}, CompositeKey{200})
	require.False(t, it.Next())
}

func TestTree_RangeScanFansOutMultimapValues(t *testing.T) {
	tr := New(1)
	tr.Insert(CompositeKey{1}, rid(1, 0))
	tr.Insert(CompositeKey{1}, rid(2, 0))
	tr.Insert(CompositeKey{2}, rid(3, 0))

	it := tr.RangeScan(CompositeKey{1}, CompositeKey{2})
	var got []heap.RowId
	for it.Next() {
		got = append(got, it.Value())
	}
	require.ElementsMatch(t, []heap.RowId{rid(1, 0), rid(2, 0), rid(3, 0)}, got)
}

func TestTree_CompositeKeyOrdering(t *testing.T) {
	tr := New(2)
	tr.Insert(CompositeKey{1, 2}, rid(1, 0))
	tr.Insert(CompositeKey{1, 1}, rid(2, 0))
	tr.Insert(CompositeKey{0, 9}, rid(3, 0))

	it := tr.RangeScan(CompositeKey{0, 0}, CompositeKey{1, 2})
	var got []CompositeKey
	for it.Next() {
		got = append(got, it.Key())
	}
	require.Equal(t, []CompositeKey{{0, 9}, {1, 1}, {1, 2}}, got)
}
