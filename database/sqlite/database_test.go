package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/sagarc03/realm/database"
	"github.com/sagarc03/realm/database/sqlite"
	"github.com/sagarc03/realm/schema"
)

func TestConnect_EmptyDSN(t *testing.T) {
	t.Parallel()

	_, err := sqlite.Connect(context.Background(), "")
	assert.Error(t, err)
}

func TestConnect_Registered(t *testing.T) {
	t.Parallel()

	assert.Contains(t, database.Backends(), database.TypeSQLite)

	db, err := database.Connect(context.Background(), database.Config{Type: database.TypeSQLite, DSN: sqlite.MemoryDSN})
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	assert.NoError(t, db.Ping(context.Background()))
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := setupTestDB(t)

	require.NoError(t, db.Migrate(ctx, []schema.Type{frogType, pondType}))
	assert.NoError(t, db.Validate(ctx, []schema.Type{frogType, pondType}))
}

func TestValidate_MissingTable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, err := sqlite.Connect(ctx, sqlite.MemoryDSN)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	err = db.Validate(ctx, []schema.Type{frogType})
	assert.ErrorIs(t, err, database.ErrSchemaMismatch)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestValidate_MismatchedColumns(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := setupTestDB(t)

	changed := frogType
	changed.Fields = append([]schema.Field{}, frogType.Fields...)
	changed.Fields = append(changed.Fields, schema.Field{Name: "Color", Column: "color", Kind: schema.String})
	changed.Fields[1].Kind = schema.Float

	err := db.Validate(ctx, []schema.Type{changed})
	require.ErrorIs(t, err, database.ErrSchemaMismatch)
	assert.Contains(t, err.Error(), "missing columns: color")
	assert.Contains(t, err.Error(), "age: expected real, got integer")
}

func TestMigrate_AddsColumns(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := setupTestDB(t)
	insertFrogs(t, db, Frog{Name: "Kermit", Age: 5})

	grown := frogType
	grown.Fields = append([]schema.Field{}, frogType.Fields...)
	grown.Fields = append(grown.Fields,
		schema.Field{Name: "Color", Column: "color", Kind: schema.String},
		schema.Field{Name: "Nickname", Column: "nickname", Kind: schema.String, Nullable: true},
	)

	require.ErrorIs(t, db.Validate(ctx, []schema.Type{grown}), database.ErrSchemaMismatch)
	require.NoError(t, db.Migrate(ctx, []schema.Type{grown}))
	require.NoError(t, db.Validate(ctx, []schema.Type{grown}))

	err := db.Read(ctx, func(tx database.Tx) error {
		result, err := tx.List(ctx, grown, database.ListQuery{})
		require.NoError(t, err)
		require.Len(t, result.Rows, 1)

		values := result.Rows[0].Values
		assert.Equal(t, "Kermit", values[0])
		assert.Equal(t, "", values[len(values)-2], "new non-nullable column gets zero value")
		assert.Nil(t, values[len(values)-1], "new nullable column is null")
		return nil
	})
	require.NoError(t, err)
}

func TestMetadata(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, err := sqlite.Connect(ctx, sqlite.MemoryDSN)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	meta, err := db.Metadata(ctx)
	require.NoError(t, err)
	assert.Empty(t, meta, "fresh database has no metadata")

	require.NoError(t, db.SetMetadata(ctx, database.MetadataSchemaVersion, "1"))
	require.NoError(t, db.SetMetadata(ctx, database.MetadataSchemaVersion, "2"))
	require.NoError(t, db.SetMetadata(ctx, database.MetadataRealmName, "frogs.realm"))

	meta, err = db.Metadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		database.MetadataSchemaVersion: "2",
		database.MetadataRealmName:     "frogs.realm",
	}, meta)
}

func TestDrop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := setupTestDB(t)
	require.NoError(t, db.SetMetadata(ctx, database.MetadataSchemaVersion, "1"))
	insertFrogs(t, db, Frog{Name: "Kermit"})

	require.NoError(t, db.Drop(ctx))

	meta, err := db.Metadata(ctx)
	require.NoError(t, err)
	assert.Empty(t, meta)
	assert.ErrorIs(t, db.Validate(ctx, []schema.Type{frogType}), database.ErrSchemaMismatch)
}

func TestWrite_RollbackOnError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := setupTestDB(t)
	boom := errors.New("boom")

	err := db.Write(ctx, func(tx database.Tx) error {
		require.NoError(t, tx.Insert(ctx, frogType, frogRow(t, Frog{Name: "Kermit"})))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	err = db.Read(ctx, func(tx database.Tx) error {
		n, err := tx.Count(ctx, frogType, nil)
		require.NoError(t, err)
		assert.Zero(t, n)
		return nil
	})
	require.NoError(t, err)
}

func TestCopyTo(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := setupTestDB(t)
	insertFrogs(t, db, Frog{Name: "Kermit"}, Frog{Name: "Gregory"})

	dest := filepath.Join(t.TempDir(), "copy.realm")
	require.NoError(t, db.CopyTo(ctx, dest))

	copied, err := sql.Open("sqlite", dest)
	require.NoError(t, err)
	defer func() { _ = copied.Close() }()

	var n int
	require.NoError(t, copied.QueryRowContext(ctx, `SELECT COUNT(*) FROM "class_frog"`).Scan(&n))
	assert.Equal(t, 2, n)

	assert.Error(t, db.CopyTo(ctx, dest), "refuses to overwrite an existing file")
}

func TestConnect_FileIsShared(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "shared.realm")

	first, err := sqlite.Connect(ctx, path)
	require.NoError(t, err)
	defer func() { _ = first.Close() }()
	require.NoError(t, first.Migrate(ctx, []schema.Type{frogType}))
	insertFrogs(t, first, Frog{Name: "Kermit", Born: time.Now()})

	second, err := sqlite.Connect(ctx, path)
	require.NoError(t, err)
	defer func() { _ = second.Close() }()

	err = second.Read(ctx, func(tx database.Tx) error {
		n, err := tx.Count(ctx, frogType, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		return nil
	})
	require.NoError(t, err)
}

func TestValidate_MissingUniqueIndex(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := setupTestDB(t)

	keyed := pondType
	keyed.Fields = append([]schema.Field{}, pondType.Fields...)
	keyed.Fields[0].PrimaryKey = true

	insertPond := func(title string) error {
		values, err := keyed.Encode(Pond{Title: title})
		require.NoError(t, err)
		return db.Write(ctx, func(tx database.Tx) error {
			return tx.Insert(ctx, keyed, database.Row{ID: newID(t), Values: values})
		})
	}

	require.NoError(t, insertPond("Swamp"))
	require.NoError(t, insertPond("Swamp"))

	err := db.Validate(ctx, []schema.Type{keyed})
	require.ErrorIs(t, err, database.ErrSchemaMismatch)
	assert.Contains(t, err.Error(), "missing unique index uniq_class_pond_title")

	require.Error(t, db.Migrate(ctx, []schema.Type{keyed}), "duplicates block the unique index")
	require.ErrorIs(t, db.Validate(ctx, []schema.Type{keyed}), database.ErrSchemaMismatch,
		"a failed index build stays a mismatch")

	err = db.Write(ctx, func(tx database.Tx) error {
		_, err := tx.DeleteAll(ctx, keyed)
		return err
	})
	require.NoError(t, err)

	require.NoError(t, db.Migrate(ctx, []schema.Type{keyed}))
	require.NoError(t, db.Validate(ctx, []schema.Type{keyed}))

	require.NoError(t, insertPond("Swamp"))
	assert.ErrorIs(t, insertPond("Swamp"), database.ErrConflict)
}
