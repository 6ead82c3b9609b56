package realm_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sagarc03/realm"
	"github.com/sagarc03/realm/schema"
)

type Frog struct {
	Name    string `realm:"name,primarykey"`
	Age     int
	Species *string
}

type Pond struct {
	Name  string `realm:"name,primarykey"`
	Depth float64
}

type Toad struct {
	Name string
}

var (
	frogType = schema.MustFor[Frog]()
	pondType = schema.MustFor[Pond]()
)

var discard = slog.New(slog.DiscardHandler)

// newBuilder returns a builder for a file realm in a fresh temp directory.
func newBuilder(t *testing.T, types ...schema.Type) *realm.Builder {
	t.Helper()
	if len(types) == 0 {
		types = []schema.Type{frogType, pondType}
	}
	return realm.NewBuilder(types...).Directory(t.TempDir()).Logger(discard)
}

func mustBuild(t *testing.T, b *realm.Builder) realm.Configuration {
	t.Helper()
	cfg, err := b.Build()
	require.NoError(t, err)
	return cfg
}

// openRealm opens cfg and closes the realm when the test ends.
func openRealm(t *testing.T, cfg realm.Configuration) *realm.Realm {
	t.Helper()

	r, err := realm.Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	return r
}

func openMemory(t *testing.T) *realm.Realm {
	t.Helper()
	return openRealm(t, mustBuild(t, newBuilder(t).InMemory()))
}

func insertFrogs(t *testing.T, r *realm.Realm, frogs ...Frog) []realm.ObjectID {
	t.Helper()
	ctx := context.Background()

	ids := make([]realm.ObjectID, 0, len(frogs))
	err := r.Write(ctx, func(tx *realm.WriteTx) error {
		for i := range frogs {
			id, err := realm.Insert(ctx, tx, &frogs[i])
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	require.NoError(t, err)

	return ids
}

func ptr[T any](v T) *T {
	return &v
}
