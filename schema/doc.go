// Package schema describes the object classes a realm can persist.
//
// A Type is derived from a Go struct with For or MustFor. Every exported field
// becomes a column; the `realm` struct tag renames a column, marks the primary
// key, or skips a field:
//
//	type Frog struct {
//	    Name    string `realm:"name,primarykey"`
//	    Age     int
//	    Species *string
//	    Secret  string `realm:"-"`
//	}
//
//	frog := schema.MustFor[Frog]()
//
// # Kinds
//
// Supported field types and the kind they map to:
//
//   - string: String
//   - int, int8..int64, uint, uint8..uint64: Int
//   - float32, float64: Float
//   - bool: Bool
//   - time.Time: Time
//   - []byte: Bytes (always nullable)
//
// A pointer to any of the scalar types makes the field nullable.
//
// # Values
//
// Encode and Decode convert between struct values and canonical column values
// (string, int64, float64, bool, time.Time in UTC, []byte or nil). Storage
// backends only ever see canonical values.
package schema
