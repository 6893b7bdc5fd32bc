// Package repositories provides the SQLite-backed implementations of the
// tracking domain's repository interfaces.
package repositories

import (
	stderr "errors"

	"gorm.io/gorm"

	appErrors "github.com/uspto-tools/pairwatch/pkg/errors"
)

// isNotFound reports whether err is GORM's missing-row sentinel.
func isNotFound(err error) bool {
	return stderr.Is(err, gorm.ErrRecordNotFound)
}

// wrapDB converts a low-level GORM error into the domain error taxonomy.
// Constraint violations get their own code so callers can distinguish a
// duplicate insert from an I/O failure.
func wrapDB(err error, msg string) error {
	if err == nil {
		return nil
	}
	if stderr.Is(err, gorm.ErrDuplicatedKey) {
		return appErrors.Wrap(err, appErrors.CodeDBConstraint, msg)
	}
	return appErrors.Wrap(err, appErrors.CodeDatabaseError, msg)
}
