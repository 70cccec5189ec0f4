package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// IsNotFoundError checks whether a storage error means the record is absent.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError checks whether a write hit a unique constraint. Requires
// TranslateError to be enabled on the gorm connection.
func IsDuplicateError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
