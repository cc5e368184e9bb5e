package errs

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

// NewPersistenceError wraps a store failure with the operation and entity it
// happened on. The cause is kept for logging only; the surfaced message is a
// generic retry prompt, never the driver error.
func NewPersistenceError(operation, entity string, cause error) *ApiErr {
	status := http.StatusInternalServerError
	if errors.Is(cause, gorm.ErrDuplicatedKey) {
		status = http.StatusConflict
	}
	return &ApiErr{
		StatusCode: status,
		err:        ErrPersistence,
		Details:    fmt.Sprintf("failed to %s %s", operation, entity),
		Cause:      cause,
	}
}

// IsDuplicate reports whether the error chain contains a uniqueness violation.
func IsDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var apiErr *ApiErr
	if errors.As(err, &apiErr) && apiErr.Cause != nil {
		return errors.Is(apiErr.Cause, gorm.ErrDuplicatedKey)
	}
	return false
}
