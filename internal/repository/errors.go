// Package repository wraps gorm access to each table. Methods ending in Tx
// run on a caller-supplied transaction handle; the rest use the repo's DB.
//
// Storage failures are normalized into the sentinels below so higher layers
// can distinguish "absent" and "conflicting" from real database errors.
package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound is returned when the requested row does not exist (or is
// soft-deleted).
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique constraint rejects a write.
var ErrDuplicate = errors.New("duplicate")

// ErrConflict is returned when a write is rejected because of related
// state, such as a foreign key pointing at a missing row.
var ErrConflict = errors.New("conflict")

// translate maps gorm errors onto the repository sentinels, keeping the
// original message for logs.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}
