// Package repository implements the service storage contracts on gorm.
package repository

import (
	stderrors "errors"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a single-row lookup matches nothing.
var ErrNotFound = stderrors.New("record not found")

// translate maps gorm's not-found to ErrNotFound and wraps everything else.
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return errors.Wrap(err, op)
}
