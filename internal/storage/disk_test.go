package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiskManager_AllocateWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.db")
	dm, err := OpenDiskManager(path)
	require.NoError(t, err)
	defer dm.Close()

	id, err := dm.AllocatePage(PageTypeData)
	require.NoError(t, err)
	require.Equal(t, uint32(0), id)

	n, err := dm.NumPages()
	require.NoError(t, err)
	require.Equal(t, uint32(1), n)

	buf, err := dm.ReadPage(id)
	require.NoError(t, err)
	require.Len(t, buf, PageSize)

	p, err := WrapPage(buf)
	require.NoError(t, err)
	_, err = p.AddRow([]byte("hi"))
	require.NoError(t, err)

	require.NoError(t, dm.WritePage(id, p.Buf))

	reread, err := dm.ReadPage(id)
	require.NoError(t, err)
	require.Equal(t, p.Buf, reread)
}

func TestDiskManager_ReadPastEOF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.db")
	dm, err := OpenDiskManager(path)
	require.NoError(t, err)
	defer dm.Close()

	_, err = dm.ReadPage(0)
	require.ErrorIs(t, err, ErrPageNotFound)
}

func TestDiskManager_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.db")
	dm, err := OpenDiskManager(path)
	require.NoError(t, err)

	id, err := dm.AllocatePage(PageTypeData)
	require.NoError(t, err)
	require.NoError(t, dm.SyncAll())
	require.NoError(t, dm.Close())

	dm2, err := OpenDiskManager(path)
	require.NoError(t, err)
	defer dm2.Close()

	n, err := dm2.NumPages()
	require.NoError(t, err)
	require.Equal(t, uint32(1), n)

	buf, err := dm2.ReadPage(id)
	require.NoError(t, err)
	require.Len(t, buf, PageSize)
}
