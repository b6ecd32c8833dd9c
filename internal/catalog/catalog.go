// Package catalog holds the process-wide table and index registry: which
// heap tables are open, and which in-memory B+Tree indexes exist over them.
// It is populated at startup by scanning the data directory and the index
// metadata file, and stays resident until shutdown.
package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/novadb/novadb/internal/btree"
	"github.com/novadb/novadb/internal/heap"
	"github.com/novadb/novadb/internal/record"
)

var (
	ErrTableExists    = errors.New("catalog: table already exists")
	ErrTableNotFound  = errors.New("catalog: table not found")
	ErrIndexExists    = errors.New("catalog: index already exists")
	ErrIndexNotFound  = errors.New("catalog: index not found")
	ErrColumnNotFound = errors.New("catalog: column not found")
)

// IndexMetadata identifies one B+Tree index: its globally-unique name, the
// table it covers, and the ordered list of indexed columns.
type IndexMetadata struct {
	Name    string
	Table   string
	Columns []string
}

// IndexEntry pairs an index's metadata with its live in-memory tree.
type IndexEntry struct {
	Meta IndexMetadata
	Tree *btree.Tree
}

const metaFileName = "indexes.meta"
const tableFileSuffix = ".db"
const defaultBPCapacity = 64

// Catalog is the process-wide table/index registry, rooted at one data
// directory on disk.
type Catalog struct {
	dataDir    string
	bpCapacity int

	tables     map[string]*heap.Table
	indexes    map[string]*IndexEntry
	indexOrder []string // discovery order, for stable tie-breaking in IndexesOn
}

// Open scans dataDir for "<name>.db" table files and the "indexes.meta"
// index listing, opening every table and rebuilding every index from its
// table's current contents. dataDir is created if absent.
func Open(dataDir string, bpCapacity int) (*Catalog, error) {
	if bpCapacity <= 0 {
		bpCapacity = defaultBPCapacity
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("catalog: create data dir: %w", err)
	}

	c := &Catalog{
		dataDir:    dataDir,
		bpCapacity: bpCapacity,
		tables:     make(map[string]*heap.Table),
		indexes:    make(map[string]*IndexEntry),
	}

	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("catalog: read data dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), tableFileSuffix) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), tableFileSuffix)
		tbl, err := heap.Open(filepath.Join(dataDir, e.Name()), bpCapacity)
		if err != nil {
			return nil, fmt.Errorf("catalog: open table %s: %w", name, err)
		}
		c.tables[name] = tbl
		slog.Info("catalog.table.opened", "name", name)
	}

	metas, err := readIndexMetaFile(c.metaPath())
	if err != nil {
		return nil, err
	}
	for _, m := range metas {
		if err := c.rebuildIndex(m); err != nil {
			return nil, fmt.Errorf("catalog: rebuild index %s: %w", m.Name, err)
		}
		slog.Info("catalog.index.rebuilt", "name", m.Name, "table", m.Table)
	}

	return c, nil
}

func (c *Catalog) metaPath() string {
	return filepath.Join(c.dataDir, metaFileName)
}

func (c *Catalog) tablePath(name string) string {
	return filepath.Join(c.dataDir, name+tableFileSuffix)
}

// Table returns the open table named name.
func (c *Catalog) Table(name string) (*heap.Table, bool) {
	t, ok := c.tables[name]
	return t, ok
}

// CreateTable creates a new heap table file and registers it.
func (c *Catalog) CreateTable(name string, schema record.Schema) (*heap.Table, error) {
	if _, exists := c.tables[name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrTableExists, name)
	}
	tbl, err := heap.Create(name, schema, c.tablePath(name), c.bpCapacity)
	if err != nil {
		return nil, err
	}
	c.tables[name] = tbl
	slog.Info("catalog.table.created", "name", name)
	return tbl, nil
}

// DropTable flushes, deregisters, and deletes the file of a table along
// with any indexes defined over it. The table's open file handle is not
// closed.
func (c *Catalog) DropTable(name string) error {
	tbl, ok := c.tables[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	_ = tbl.Flush()
	delete(c.tables, name)

	for indexName, e := range c.indexes {
		if e.Meta.Table == name {
			delete(c.indexes, indexName)
		}
	}
	if err := c.persistIndexMeta(); err != nil {
		return err
	}

	if err := os.Remove(c.tablePath(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("catalog: remove table file %s: %w", name, err)
	}
	slog.Info("catalog.table.dropped", "name", name)
	return nil
}

// CreateIndex builds a new B+Tree index over table's columns, scanning the
// table's current contents, and persists the index metadata.
func (c *Catalog) CreateIndex(name, table string, columns []string) error {
	if _, exists := c.indexes[name]; exists {
		return fmt.Errorf("%w: %s", ErrIndexExists, name)
	}
	tbl, ok := c.tables[table]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	for _, col := range columns {
		if tbl.Schema.IndexOf(col) < 0 {
			return fmt.Errorf("%w: %s.%s", ErrColumnNotFound, table, col)
		}
	}

	meta := IndexMetadata{Name: name, Table: table, Columns: columns}
	if err := c.rebuildIndex(meta); err != nil {
		return err
	}
	if err := c.persistIndexMeta(); err != nil {
		return err
	}
	slog.Info("catalog.index.created", "name", name, "table", table, "columns", columns)
	return nil
}

// DropIndex removes an index from the catalog (Open Question 4: the SQL
// surface has no DROP INDEX syntax yet, but the catalog operation exists
// as a trivial deletion for callers that have one, e.g. tests or a future
// statement).
func (c *Catalog) DropIndex(name string) error {
	if _, ok := c.indexes[name]; !ok {
		return fmt.Errorf("%w: %s", ErrIndexNotFound, name)
	}
	delete(c.indexes, name)
	return c.persistIndexMeta()
}

// Index returns the named index entry.
func (c *Catalog) Index(name string) (*IndexEntry, bool) {
	e, ok := c.indexes[name]
	return e, ok
}

// IndexesOn returns every index defined over table, in catalog discovery
// order (stable: the order they were created or loaded from disk).
func (c *Catalog) IndexesOn(table string) []*IndexEntry {
	var out []*IndexEntry
	for _, name := range c.indexOrder {
		e, ok := c.indexes[name]
		if ok && e.Meta.Table == table {
			out = append(out, e)
		}
	}
	return out
}

// rebuildIndex creates an empty tree for meta and populates it by scanning
// meta.Table's current rows, projecting the indexed columns into a
// CompositeKey per row.
func (c *Catalog) rebuildIndex(meta IndexMetadata) error {
	tbl, ok := c.tables[meta.Table]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, meta.Table)
	}
	positions := make([]int, len(meta.Columns))
	for i, col := range meta.Columns {
		pos := tbl.Schema.IndexOf(col)
		if pos < 0 {
			return fmt.Errorf("%w: %s.%s", ErrColumnNotFound, meta.Table, col)
		}
		positions[i] = pos
	}

	tree := btree.New(len(meta.Columns))
	scan := heap.NewTableScan(tbl)
	for {
		ok, err := scan.Next()
		if err != nil {
			scan.Close()
			return err
		}
		if !ok {
			break
		}
		id, row := scan.Row()
		key, err := projectKey(row, positions)
		if err != nil {
			scan.Close()
			return err
		}
		tree.Insert(key, id)
	}

	c.indexes[meta.Name] = &IndexEntry{Meta: meta, Tree: tree}
	if !containsString(c.indexOrder, meta.Name) {
		c.indexOrder = append(c.indexOrder, meta.Name)
	}
	return nil
}

func containsString(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

// projectKey extracts the values at positions from row as a CompositeKey.
// Only INTEGER columns are indexable (spec §4.6: composite integer keys).
func projectKey(row []record.Value, positions []int) (btree.CompositeKey, error) {
	key := make(btree.CompositeKey, len(positions))
	for i, pos := range positions {
		v := row[pos]
		if v.Kind != record.KindInteger {
			return nil, fmt.Errorf("catalog: index column at position %d is not INTEGER", pos)
		}
		key[i] = v.I
	}
	return key, nil
}

// InsertIntoIndexes updates every index on table with the new row's key,
// after a successful HeapTable insert.
func (c *Catalog) InsertIntoIndexes(table string, row []record.Value, id heap.RowId) error {
	for _, e := range c.IndexesOn(table) {
		positions := make([]int, len(e.Meta.Columns))
		tbl := c.tables[table]
		for i, col := range e.Meta.Columns {
			positions[i] = tbl.Schema.IndexOf(col)
		}
		key, err := projectKey(row, positions)
		if err != nil {
			return err
		}
		e.Tree.Insert(key, id)
	}
	return nil
}

// DeleteFromIndexes removes the specific (key, RowId) pair from every index
// on table for the row being deleted (resolves Open Question 2: multimap
// removal of the exact pair, not the whole key).
func (c *Catalog) DeleteFromIndexes(table string, row []record.Value, id heap.RowId) error {
	for _, e := range c.IndexesOn(table) {
		positions := make([]int, len(e.Meta.Columns))
		tbl := c.tables[table]
		for i, col := range e.Meta.Columns {
			positions[i] = tbl.Schema.IndexOf(col)
		}
		key, err := projectKey(row, positions)
		if err != nil {
			return err
		}
		e.Tree.Delete(key, id)
	}
	return nil
}

// FlushAll flushes every open table's buffer pool and syncs its disk file.
func (c *Catalog) FlushAll() error {
	for name, tbl := range c.tables {
		if err := tbl.Flush(); err != nil {
			return fmt.Errorf("catalog: flush table %s: %w", name, err)
		}
	}
	return nil
}
