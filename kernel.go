// Package dbkernel wires the five components (C1-C5) plus the catalog and
// transaction/log handles into a single open/close unit; the optional
// hot-key cache is not wired here and is attached per tree with
// Tree.AttachCache. Grounded on storage_engine/structs.go's StorageEngine
// struct (BufferPool + DiskManager + CatalogManager + IndexManager +
// TxnManager fields). Unlike the teacher's struct, which also wires a
// heap file manager, WAL manager, and query layers, Kernel only wires
// what spec.md's scope covers; see DESIGN.md for what was dropped.
package dbkernel

import (
	"cmp"
	"fmt"
	"log/slog"

	"dbkernel/pkg/btree"
	"dbkernel/pkg/buffer"
	"dbkernel/pkg/catalog"
	"dbkernel/pkg/disk"
	"dbkernel/pkg/log"
	"dbkernel/pkg/logging"
	"dbkernel/pkg/page"
	"dbkernel/pkg/txn"
)

// Config configures a Kernel. Grounded on storage_engine/structs.go's
// plain-struct configuration style: no functional-options indirection,
// since every field here is a one-shot startup value.
type Config struct {
	// DBFile is the backing file for page storage.
	DBFile string
	// PoolSize is the buffer pool's frame count. Defaults to 128.
	PoolSize int
	// ReplacerK is LRU-K's K. Defaults to 2.
	ReplacerK int
	// Logger receives pool diagnostics. Nil falls back to the process-wide
	// logger from pkg/logging.
	Logger *slog.Logger
}

// Kernel is an open storage engine: one disk file, one buffer pool, one
// root catalog, and handle-only transaction/log managers.
type Kernel struct {
	Disk    *disk.Manager
	Pool    *buffer.Pool
	Catalog *catalog.Catalog
	Txns    *txn.Manager
	Log     *log.Manager
}

// Open creates or attaches to the engine backed by cfg.DBFile.
func Open(cfg Config) (*Kernel, error) {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 128
	}
	if cfg.ReplacerK <= 0 {
		cfg.ReplacerK = 2
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Get()
	}

	dm, err := disk.NewManager(cfg.DBFile)
	if err != nil {
		return nil, fmt.Errorf("dbkernel: open disk manager: %w", err)
	}
	pool := buffer.New(cfg.PoolSize, cfg.ReplacerK, dm, cfg.Logger)
	cat, err := catalog.New(pool)
	if err != nil {
		dm.Close()
		return nil, fmt.Errorf("dbkernel: open catalog: %w", err)
	}

	return &Kernel{
		Disk:    dm,
		Pool:    pool,
		Catalog: cat,
		Txns:    txn.NewManager(),
		Log:     log.NewManager(),
	}, nil
}

// Close flushes every dirty page and closes the backing file.
func (k *Kernel) Close() error {
	if err := k.Pool.FlushAllPages(); err != nil {
		return err
	}
	return k.Disk.Close()
}

// OpenTree attaches to (or creates) the named B+Tree index, sizing its
// leaf and internal nodes to fill a page for codec's key width.
func OpenTree[K cmp.Ordered](k *Kernel, name string, codec page.Codec[K]) *btree.Tree[K] {
	leafMaxSize, internalMaxSize := page.MaxSizesForKey(codec)
	return btree.Open[K](name, k.Pool, k.Catalog, codec, leafMaxSize, internalMaxSize)
}
