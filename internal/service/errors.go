package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/repository"
	"github.com/noah-isme/edutrack-api/internal/rules"
)

var (
	// ErrNotFound matches every NotFoundError.
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidCredentials is returned by login for unknown emails and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountInactive blocks login for deactivated accounts.
	ErrAccountInactive = errors.New("account is inactive")
	// ErrUploadUnavailable indicates no file storage backend is configured.
	ErrUploadUnavailable = errors.New("file storage is not configured")
	// ErrUploadTooLarge indicates the payload exceeded the configured limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrUploadTypeNotAllowed indicates the MIME type is not permitted.
	ErrUploadTypeNotAllowed = errors.New("file type not allowed")
)

// NotFoundError reports a missing record, or one outside the caller's read scope.
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	if e.ID == 0 {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func notFound(entity string, id uint) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// lookupError turns a store miss into a NotFoundError.
func lookupError(err error, entity string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(entity, id)
	}
	return err
}

// duplicateError turns a unique index violation into a conflict for rule.
func duplicateError(err error, rule, message string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return rules.Conflict(rule, "%s", message)
	}
	return err
}
