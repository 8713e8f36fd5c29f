package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
)

// ErrLockHeld is returned when another instance already holds the
// environment lock.
var ErrLockHeld = errors.New("environment lock held by another instance")

// lockNameSanitizer collapses characters MySQL lock names should not carry.
var lockNameSanitizer = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// EnvironmentLockName builds the advisory lock name for an environment.
// MySQL truncates lock names at 64 characters, so the result is capped.
func EnvironmentLockName(environment string) string {
	name := "dbtctl:env:" + lockNameSanitizer.ReplaceAllString(environment, "_")
	if len(name) > 64 {
		name = name[:64]
	}
	return name
}

// EnvironmentLock prevents two concurrent runs of the same environment
// using MySQL's GET_LOCK(). The lock is released explicitly or when the
// connection closes.
type EnvironmentLock struct {
	db       *sql.DB
	lockName string
	held     bool
}

// NewEnvironmentLock creates a lock for the given environment.
// The lock is not acquired until Acquire is called.
func NewEnvironmentLock(db *sql.DB, environment string) *EnvironmentLock {
	return &EnvironmentLock{
		db:       db,
		lockName: EnvironmentLockName(environment),
	}
}

// Acquire attempts to take the lock, waiting up to timeoutSeconds.
// Returns ErrLockHeld if the timeout elapses with the lock still held
// elsewhere.
//
// GET_LOCK() returns 1 on success, 0 on timeout, and NULL on error.
func (el *EnvironmentLock) Acquire(ctx context.Context, timeoutSeconds int) error {
	if el.held {
		return nil
	}

	var result sql.NullInt64
	err := el.db.QueryRowContext(ctx, "SELECT GET_LOCK(?, ?)", el.lockName, timeoutSeconds).Scan(&result)
	if err != nil {
		return fmt.Errorf("failed to execute GET_LOCK: %w", err)
	}

	if !result.Valid {
		return fmt.Errorf("GET_LOCK returned NULL for lock %q (possible database error)", el.lockName)
	}

	switch result.Int64 {
	case 1:
		el.held = true
		return nil
	case 0:
		return ErrLockHeld
	default:
		return fmt.Errorf("unexpected GET_LOCK return value: %d", result.Int64)
	}
}

// Release releases the lock if held.
//
// RELEASE_LOCK() returns 1 on success, 0 when the lock is held by another
// session, and NULL when it does not exist. Only a query failure is an
// error here.
func (el *EnvironmentLock) Release(ctx context.Context) error {
	if !el.held {
		return nil
	}

	var result sql.NullInt64
	err := el.db.QueryRowContext(ctx, "SELECT RELEASE_LOCK(?)", el.lockName).Scan(&result)
	if err != nil {
		return fmt.Errorf("failed to execute RELEASE_LOCK: %w", err)
	}

	el.held = false
	return nil
}

// Held reports whether this instance currently holds the lock.
func (el *EnvironmentLock) Held() bool {
	return el.held
}
