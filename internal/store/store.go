// Package store is the document store adapter: typed CRUD-by-filter over the
// users and messages collections. Absent documents are reported as (nil, nil)
// by the single-document lookups; every other failure is returned wrapped.
package store

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned by UpdateByID when no document has the id.
var ErrNotFound = errors.New("store: document not found")

func absent(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
