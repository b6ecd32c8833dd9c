package catalog

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// readIndexMetaFile parses "indexes.meta": one line per index,
// "name|table|col1,col2,...\n", in file order. A missing file yields an
// empty slice, not an error (a fresh data directory has none yet).
func readIndexMetaFile(path string) ([]IndexMetadata, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer f.Close()

	var metas []IndexMetadata
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) != 3 {
			return nil, fmt.Errorf("catalog: malformed index meta line %q", line)
		}
		cols := strings.Split(parts[2], ",")
		metas = append(metas, IndexMetadata{Name: parts[0], Table: parts[1], Columns: cols})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("catalog: scan %s: %w", path, err)
	}
	return metas, nil
}

// persistIndexMeta rewrites "indexes.meta" from the catalog's current index
// set, preserving discovery order.
func (c *Catalog) persistIndexMeta() error {
	var b strings.Builder
	for _, name := range c.indexOrder {
		e, ok := c.indexes[name]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%s|%s|%s\n", e.Meta.Name, e.Meta.Table, strings.Join(e.Meta.Columns, ","))
	}
	return os.WriteFile(c.metaPath(), []byte(b.String()), 0o644)
}
