// Package repositories implements the persistence layer for Job and
// Payload rows, backed by gorm over the shared *gorm.DB connection.
package repositories

import "errors"

// ErrNotFound is returned by repository methods when the requested record
// does not exist in the database. Callers should check for this error
// explicitly using errors.Is to distinguish missing records from other
// database errors.
var ErrNotFound = errors.New("record not found")
