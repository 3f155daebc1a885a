package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"fleet-relay/backend/app/apperr"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

const (
	txRetryAttempts       = 5
	txRetryInitialBackoff = 10 * time.Millisecond
	txRetryMaxBackoff     = 200 * time.Millisecond

	mysqlDeadlock        = 1213
	mysqlLockWaitTimeout = 1205
)

// errConflict signals that rows changed under a transaction that had
// already read them; the transaction is rolled back and run again.
var errConflict = errors.New("transaction conflict")

// WithTx runs fn inside one transaction. It commits when fn returns nil and
// rolls back on error or panic. Lock contention and conflicts are retried
// with backoff until the budget runs out or ctx is done.
func WithTx(ctx context.Context, gdb *gorm.DB, fn func(tx *gorm.DB) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	delay := txRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < txRetryAttempts; attempt++ {
		lastErr = gdb.WithContext(ctx).Transaction(fn)
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) || attempt == txRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= txRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errConflict) {
		return true
	}
	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDeadlock || myErr.Number == mysqlLockWaitTimeout
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

// MapError converts a storage error into an apperr kind. Errors that
// already carry a kind pass through unchanged.
func MapError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperr.ErrValidation),
		errors.Is(err, apperr.ErrNotFound),
		errors.Is(err, apperr.ErrPersistence):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound(op, "record")
	default:
		return apperr.Persistence(op, err)
	}
}

func isNotFound(err error) bool { return errors.Is(err, gorm.ErrRecordNotFound) }
