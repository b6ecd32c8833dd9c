// Package engine wires the catalog and executor behind a single Exec entry
// point, mirroring the shape of the teacher's internal/engine/db.go (there,
// a *DB wrapping a page manager and a catalog; here, a *Engine wrapping a
// catalog.Catalog).
package engine

import (
	"fmt"
	"log/slog"

	"github.com/novadb/novadb/internal/catalog"
	"github.com/novadb/novadb/internal/config"
	"github.com/novadb/novadb/internal/sql/executor"
	"github.com/novadb/novadb/internal/sql/parser"
)

// Engine is the single-process, single-node database: one catalog over one
// data directory, driving parse -> plan -> execute for every statement.
type Engine struct {
	cat *catalog.Catalog
}

// Open populates the catalog from cfg.DataDir, rebuilding every index by
// scanning its table (catalog.Open does the scan; nothing here is lazy).
func Open(cfg *config.Config) (*Engine, error) {
	cat, err := catalog.Open(cfg.DataDir, cfg.BufferPool.Capacity)
	if err != nil {
		return nil, fmt.Errorf("engine: open catalog: %w", err)
	}
	slog.Info("engine.opened", "data_dir", cfg.DataDir)
	return &Engine{cat: cat}, nil
}

// Exec parses and executes a single ';'-terminated SQL statement.
func (e *Engine) Exec(sql string) (*executor.Result, error) {
	stmt, err := parser.Parse(sql)
	if err != nil {
		return nil, err
	}
	return executor.Exec(e.cat, stmt)
}

// Close flushes every open table to disk. Per spec.md §6, `.exit` triggers
// this before the process terminates.
func (e *Engine) Close() error {
	if err := e.cat.FlushAll(); err != nil {
		return fmt.Errorf("engine: flush: %w", err)
	}
	slog.Info("engine.closed")
	return nil
}
