// Package realm provides named, schema-typed object stores ("realms") backed
// by an embedded SQLite file or a PostgreSQL schema.
//
// A realm is described by an immutable Configuration built from a non-empty
// set of schema types and an optional name, then opened into a *Realm handle.
// The caller owns the handle and must Close it; With opens a realm for the
// duration of one function and always releases it.
//
// # Key Components
//
//   - Builder / Configuration: name, directory, schema set and version, backend
//   - Realm: the open handle with Read and Write transactions
//   - Get, Find, All, Count, Insert, Update, Delete: generic object access
//   - DeleteRealm and (*Realm).WriteCopyTo: whole-realm file operations
//
// # Example Usage
//
//	type Frog struct {
//	    Name string `realm:"name,primarykey"`
//	    Age  int
//	}
//
//	cfg, err := realm.NewBuilder(schema.MustFor[Frog]()).
//	    Name("frogs.realm").
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	r, err := realm.Open(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	slog.Info("Successfully opened realm: " + r.Configuration().Name())
//
//	err = r.Write(ctx, func(tx *realm.WriteTx) error {
//	    _, err := realm.Insert(ctx, tx, &Frog{Name: "Kermit", Age: 3})
//	    return err
//	})
//
// Schema changes are reconciled on Open: a higher SchemaVersion migrates
// additively (new classes and new fields), while an incompatible change at
// the same version fails with ErrSchemaMismatch unless
// DeleteRealmIfMigrationNeeded is set.
package realm
