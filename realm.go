package realm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/sagarc03/realm/database"
	_ "github.com/sagarc03/realm/database/postgres"
	"github.com/sagarc03/realm/database/sqlite"
	"github.com/sagarc03/realm/filesystem"
	"github.com/sagarc03/realm/schema"
)

// Realm is an open realm. It is safe for concurrent use. The caller must
// Close it; every operation after Close fails with ErrRealmClosed.
type Realm struct {
	cfg  Configuration
	db   database.Database
	dir  *filesystem.Store
	lock *filesystem.Lock

	mu     sync.RWMutex
	closed bool
}

// Open opens the realm described by cfg, creating it if it does not exist
// and reconciling its stored schema with the configuration.
func Open(ctx context.Context, cfg Configuration) (*Realm, error) {
	if cfg.schema == nil {
		return nil, fmt.Errorf("open realm: %w: configuration was not built", ErrInvalidConfiguration)
	}

	r := &Realm{cfg: cfg}
	dbCfg := database.Config{Type: cfg.backend}

	switch {
	case cfg.backend == database.TypePostgres:
		dbCfg.DSN = cfg.dsn
		dbCfg.Namespace = cfg.Namespace()
	case cfg.inMemory:
		dbCfg.DSN = sqlite.MemoryDSN
	default:
		dir, err := filesystem.Open(cfg.directory)
		if err != nil {
			return nil, fmt.Errorf("open realm %s: %w", cfg.name, err)
		}
		r.dir = dir

		lock, err := dir.Share(cfg.name)
		if err != nil {
			_ = r.release()
			if errors.Is(err, filesystem.ErrLocked) {
				return nil, fmt.Errorf("open realm %s: %w", cfg.name, ErrRealmInUse)
			}
			return nil, fmt.Errorf("open realm %s: %w", cfg.name, err)
		}
		r.lock = lock
		dbCfg.DSN = dir.Path(cfg.name)
	}

	db, err := database.Connect(ctx, dbCfg)
	if err != nil {
		_ = r.release()
		return nil, fmt.Errorf("open realm %s: %w", cfg.name, err)
	}
	r.db = db

	if err := reconcile(ctx, db, cfg); err != nil {
		_ = r.release()
		return nil, fmt.Errorf("open realm %s: %w", cfg.name, err)
	}

	cfg.log().DebugContext(ctx, "realm opened",
		"name", cfg.name,
		"path", cfg.Path(),
		"backend", cfg.backend,
		"schema_version", cfg.schemaVersion)

	return r, nil
}

// With opens the realm described by cfg, runs fn and closes the realm on
// every exit path.
func With(ctx context.Context, cfg Configuration, fn func(*Realm) error) (err error) {
	r, err := Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := r.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return fn(r)
}

// Configuration returns the configuration the realm was opened with.
func (r *Realm) Configuration() Configuration {
	return r.cfg
}

// IsClosed reports whether Close has been called.
func (r *Realm) IsClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

// Close releases the database connection and the realm file lock. It waits
// for running transactions and is safe to call more than once.
func (r *Realm) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	if err := r.release(); err != nil {
		return fmt.Errorf("close realm %s: %w", r.cfg.name, err)
	}

	r.cfg.log().Debug("realm closed", "name", r.cfg.name)
	return nil
}

func (r *Realm) release() error {
	var errs []error
	if r.db != nil {
		errs = append(errs, r.db.Close())
	}
	if r.lock != nil {
		errs = append(errs, r.lock.Release())
	}
	if r.dir != nil {
		errs = append(errs, r.dir.Close())
	}
	return errors.Join(errs...)
}

// Read runs fn in a read transaction. fn must use tx, not the realm, for
// object access.
func (r *Realm) Read(ctx context.Context, fn func(tx *ReadTx) error) error {
	return r.view(ctx, func(tx database.Tx) error {
		return fn(&ReadTx{realm: r, tx: tx})
	})
}

// Write runs fn in a write transaction, committed only when fn returns nil.
// fn must use tx for object access. Reading through the realm or calling
// Close from inside fn blocks forever: the transaction holds the only
// sqlite connection and Close waits for fn to return.
func (r *Realm) Write(ctx context.Context, fn func(tx *WriteTx) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return ErrRealmClosed
	}

	return r.db.Write(ctx, func(tx database.Tx) error {
		return fn(&WriteTx{ReadTx{realm: r, tx: tx}})
	})
}

func (r *Realm) view(ctx context.Context, fn func(database.Tx) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return ErrRealmClosed
	}

	return r.db.Read(ctx, fn)
}

func (r *Realm) schemaSet() *schema.Set {
	return r.cfg.schema
}

// ClassInfo describes one class stored in a realm.
type ClassInfo struct {
	Name  string `json:"name" yaml:"name"`
	Table string `json:"table" yaml:"table"`
	Count int64  `json:"count" yaml:"count"`
}

// Info summarises an open realm.
type Info struct {
	Name          string      `json:"name" yaml:"name"`
	Path          string      `json:"path,omitempty" yaml:"path,omitempty"`
	Backend       string      `json:"backend" yaml:"backend"`
	InMemory      bool        `json:"in_memory" yaml:"in_memory"`
	SchemaVersion uint64      `json:"schema_version" yaml:"schema_version"`
	Size          int64       `json:"size,omitempty" yaml:"size,omitempty"`
	Classes       []ClassInfo `json:"classes" yaml:"classes"`
}

// Info returns the realm's name, location, schema version and per-class object counts.
func (r *Realm) Info(ctx context.Context) (Info, error) {
	info := Info{
		Name:          r.cfg.name,
		Path:          r.cfg.Path(),
		Backend:       r.cfg.backend,
		InMemory:      r.cfg.inMemory,
		SchemaVersion: r.cfg.schemaVersion,
	}

	err := r.view(ctx, func(tx database.Tx) error {
		for _, t := range r.cfg.schema.Types() {
			n, err := tx.Count(ctx, t, nil)
			if err != nil {
				return err
			}
			info.Classes = append(info.Classes, ClassInfo{Name: t.Name, Table: t.Table, Count: n})
		}
		return nil
	})
	if err != nil {
		return Info{}, fmt.Errorf("realm info: %w", err)
	}

	if r.dir != nil {
		size, err := r.dir.Size(ctx, r.cfg.name)
		if err != nil && !errors.Is(err, filesystem.ErrNotFound) {
			return Info{}, fmt.Errorf("realm info: %w", err)
		}
		info.Size = size
	}

	return info, nil
}

// WriteCopyTo writes a compacted copy of the realm to path. The destination
// must not exist. Postgres realms fail with ErrUnsupported.
func (r *Realm) WriteCopyTo(ctx context.Context, path string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return ErrRealmClosed
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("write copy to %s: %w", path, os.ErrExist)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("write copy to %s: %w", path, err)
	}

	if err := r.db.CopyTo(ctx, path); err != nil {
		return fmt.Errorf("write copy to %s: %w", path, err)
	}

	r.cfg.log().DebugContext(ctx, "realm copied", "name", r.cfg.name, "dest", path)
	return nil
}

// DeleteRealm removes the realm file described by cfg and its auxiliary
// files. It fails with ErrRealmInUse while any handle on the realm is open.
// Deleting a realm that does not exist is a no-op. In-memory and postgres
// realms fail with ErrUnsupported.
func DeleteRealm(cfg Configuration) error {
	if cfg.schema == nil {
		return fmt.Errorf("delete realm: %w: configuration was not built", ErrInvalidConfiguration)
	}
	if cfg.inMemory || cfg.backend != database.TypeSQLite {
		return fmt.Errorf("delete realm %s: %w", cfg.name, ErrUnsupported)
	}

	if _, err := os.Stat(cfg.directory); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	dir, err := filesystem.Open(cfg.directory)
	if err != nil {
		return fmt.Errorf("delete realm %s: %w", cfg.name, err)
	}
	defer func() { _ = dir.Close() }()

	removed, err := dir.Remove(context.Background(), cfg.name)
	if err != nil {
		if errors.Is(err, filesystem.ErrLocked) {
			return fmt.Errorf("delete realm %s: %w", cfg.name, ErrRealmInUse)
		}
		return fmt.Errorf("delete realm %s: %w", cfg.name, err)
	}

	if removed {
		cfg.log().Debug("realm deleted", "name", cfg.name, "path", cfg.Path())
	}
	return nil
}
