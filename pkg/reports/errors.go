package reports

import (
	"errors"

	"github.com/Ramsey-B/fern/internal/repositories/report"
	"github.com/Ramsey-B/fern/pkg/lock"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	// ErrStoreUnavailable wraps store failures. Retryable.
	ErrStoreUnavailable = errors.New("record store unavailable")
	// ErrLockTimeout means the scope write lock was not acquired in time. Retryable.
	ErrLockTimeout = lock.ErrTimeout
	ErrDuplicate   = report.ErrDuplicate
	ErrNotFound    = report.ErrNotFound
)
