package realm

import (
	"errors"

	"github.com/sagarc03/realm/database"
)

var (
	// ErrInvalidConfiguration is returned when a configuration cannot be built or opened
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrRealmClosed is returned by every operation on a closed realm
	ErrRealmClosed = errors.New("realm is closed")
	// ErrRealmInUse is returned when a realm file is locked by another handle
	ErrRealmInUse = errors.New("realm is in use")
	// ErrNameConflict is returned when a postgres namespace already holds a realm with another name
	ErrNameConflict = errors.New("realm name conflict")
	// ErrTypeNotInSchema is returned when a Go type is not part of the realm's schema
	ErrTypeNotInSchema = errors.New("type not in schema")

	// ErrNotFound is returned when an object does not exist
	ErrNotFound = database.ErrNotFound
	// ErrConflict is returned when an object's primary key is already taken
	ErrConflict = database.ErrConflict
	// ErrUnsupported is returned when the backend cannot perform an operation
	ErrUnsupported = database.ErrUnsupported
	// ErrSchemaMismatch is returned when the stored schema is incompatible with the configuration
	ErrSchemaMismatch = database.ErrSchemaMismatch
	// ErrInvalidQuery is returned for unknown fields, mistyped values or malformed cursors
	ErrInvalidQuery = database.ErrInvalidQuery
)
