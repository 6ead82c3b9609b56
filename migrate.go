package realm

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sagarc03/realm/database"
)

// reconcile brings the stored schema in line with cfg and records the
// realm name and schema version.
func reconcile(ctx context.Context, db database.Database, cfg Configuration) error {
	logger := cfg.log()
	types := cfg.schema.Types()

	meta, err := db.Metadata(ctx)
	if err != nil {
		return err
	}

	// A sqlite realm is identified by its file; copies are reopened under new names.
	if name, ok := meta[database.MetadataRealmName]; ok && cfg.backend == database.TypePostgres && name != cfg.name {
		return fmt.Errorf("%w: namespace %s holds realm %q, not %q", ErrNameConflict, cfg.Namespace(), name, cfg.name)
	}

	raw, ok := meta[database.MetadataSchemaVersion]
	if !ok {
		if err := db.Migrate(ctx, types); err != nil {
			return err
		}
		if err := db.SetMetadata(ctx, database.MetadataCreatedAt, time.Now().UTC().Format(time.RFC3339)); err != nil {
			return err
		}
		return recordVersion(ctx, db, cfg)
	}

	stored, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid stored schema version %q", ErrSchemaMismatch, raw)
	}

	if stored > cfg.schemaVersion {
		return fmt.Errorf("%w: stored schema version %d is newer than %d", ErrSchemaMismatch, stored, cfg.schemaVersion)
	}

	verr := db.Validate(ctx, types)
	if verr != nil && !errors.Is(verr, ErrSchemaMismatch) {
		return verr
	}

	if verr != nil && cfg.schemaVersion > stored {
		logger.InfoContext(ctx, "migrating realm schema",
			"name", cfg.name,
			"from", stored,
			"to", cfg.schemaVersion)

		if err := db.Migrate(ctx, types); err != nil {
			return err
		}
		verr = db.Validate(ctx, types)
		if verr != nil && !errors.Is(verr, ErrSchemaMismatch) {
			return verr
		}
	}

	if verr != nil {
		if !cfg.deleteIfDirty {
			return fmt.Errorf("migration needed: %w", verr)
		}

		logger.WarnContext(ctx, "deleting realm data, migration needed",
			"name", cfg.name,
			"err", verr)

		if err := db.Drop(ctx); err != nil {
			return err
		}
		if err := db.Migrate(ctx, types); err != nil {
			return err
		}
		if err := db.SetMetadata(ctx, database.MetadataCreatedAt, time.Now().UTC().Format(time.RFC3339)); err != nil {
			return err
		}
	}

	return recordVersion(ctx, db, cfg)
}

func recordVersion(ctx context.Context, db database.Database, cfg Configuration) error {
	if err := db.SetMetadata(ctx, database.MetadataRealmName, cfg.name); err != nil {
		return err
	}
	return db.SetMetadata(ctx, database.MetadataSchemaVersion, strconv.FormatUint(cfg.schemaVersion, 10))
}
