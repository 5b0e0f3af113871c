package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped)
// and services translate them into coded domain errors.
//
//   - ErrNotFound: no document for the key
//   - ErrAlreadyExists: a unique key is already taken (second initialize)
//   - ErrVersionConflict: the document changed between read and conditional write
//   - ErrUnavailable: backing service cannot be reached
var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrVersionConflict = errors.New("version conflict")
	ErrUnavailable     = errors.New("unavailable")
)
