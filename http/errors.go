package http

import "errors"

// ErrReadOnly is returned when a write is attempted on a read-only server.
var ErrReadOnly = errors.New("read only")
