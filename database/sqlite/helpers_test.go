package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/realm/database"
	"github.com/sagarc03/realm/database/sqlite"
	"github.com/sagarc03/realm/schema"
)

type Frog struct {
	Name    string `realm:"name,primarykey"`
	Age     int
	Species *string
	Weight  float64
	Alive   bool
	Born    time.Time
	Photo   []byte
}

type Pond struct {
	Title string
}

var (
	frogType = schema.MustFor[Frog]()
	pondType = schema.MustFor[Pond]()
)

// setupTestDB opens an in-memory database with the frog and pond tables migrated
func setupTestDB(t *testing.T) database.Database {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Connect(ctx, sqlite.MemoryDSN)
	require.NoError(t, err, "failed to connect")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx, []schema.Type{frogType, pondType}), "failed to migrate")

	return db
}

func newID(t *testing.T) string {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	return id.String()
}

func frogRow(t *testing.T, f Frog) database.Row {
	t.Helper()
	values, err := frogType.Encode(f)
	require.NoError(t, err)
	return database.Row{ID: newID(t), Values: values}
}

func insertFrogs(t *testing.T, db database.Database, frogs ...Frog) []database.Row {
	t.Helper()

	rows := make([]database.Row, 0, len(frogs))
	err := db.Write(context.Background(), func(tx database.Tx) error {
		for _, f := range frogs {
			row := frogRow(t, f)
			if err := tx.Insert(context.Background(), frogType, row); err != nil {
				return err
			}
			rows = append(rows, row)
		}
		return nil
	})
	require.NoError(t, err)

	return rows
}
