// Package database defines the storage contract realms are persisted through.
//
// A backend implements Database and Tx and registers itself under a type name,
// the same way database/sql drivers do:
//
//	import _ "github.com/sagarc03/realm/database/sqlite"
//
//	db, err := database.Connect(ctx, database.Config{
//	    Type: "sqlite",
//	    DSN:  "frogs.realm",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
// Connect only opens the connection. Callers run Migrate and Validate against
// the schema types they intend to use before reading or writing objects.
//
// # Supported Backends
//
//   - sqlite: embedded single-file backend using modernc.org/sqlite (default)
//   - postgres: server backend using the pgx connection pool; each realm lives
//     in its own Postgres schema named by Config.Namespace
//
// # Rows
//
// Every class table has a hidden text primary key column (schema.IDColumn)
// holding a time-ordered UUID, followed by one column per schema field. Rows
// move between the realm and a backend as canonical values (see package
// schema); backends translate them to and from their native column types.
package database
