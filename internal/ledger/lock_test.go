package ledger

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironmentLockName(t *testing.T) {
	tests := []struct {
		environment string
		expected    string
	}{
		{"prod", "dbtctl:env:prod"},
		{"preprod", "dbtctl:env:preprod"},
		{"dev-eu", "dbtctl:env:dev-eu"},
		{"env with spaces", "dbtctl:env:env_with_spaces"},
		{"env.dots", "dbtctl:env:env_dots"},
		{"env/slash", "dbtctl:env:env_slash"},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			assert.Equal(t, tt.expected, EnvironmentLockName(tt.environment))
		})
	}
}

func TestEnvironmentLockNameTruncated(t *testing.T) {
	long := make([]byte, 100)
	for i := range long {
		long[i] = 'x'
	}
	name := EnvironmentLockName(string(long))
	assert.Len(t, name, 64)
}

func TestAcquireSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT GET_LOCK").
		WithArgs("dbtctl:env:prod", 1).
		WillReturnRows(sqlmock.NewRows([]string{"GET_LOCK"}).AddRow(1))

	el := NewEnvironmentLock(db, "prod")
	require.NoError(t, el.Acquire(context.Background(), 1))
	assert.True(t, el.Held())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquireHeldElsewhere(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT GET_LOCK").
		WithArgs("dbtctl:env:prod", 1).
		WillReturnRows(sqlmock.NewRows([]string{"GET_LOCK"}).AddRow(0))

	el := NewEnvironmentLock(db, "prod")
	err = el.Acquire(context.Background(), 1)
	require.ErrorIs(t, err, ErrLockHeld)
	assert.False(t, el.Held())
}

func TestAcquireNullResult(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT GET_LOCK").
		WithArgs("dbtctl:env:prod", 1).
		WillReturnRows(sqlmock.NewRows([]string{"GET_LOCK"}).AddRow(nil))

	el := NewEnvironmentLock(db, "prod")
	err = el.Acquire(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GET_LOCK returned NULL")
}

func TestAcquireIdempotentWhileHeld(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT GET_LOCK").
		WithArgs("dbtctl:env:prod", 1).
		WillReturnRows(sqlmock.NewRows([]string{"GET_LOCK"}).AddRow(1))

	el := NewEnvironmentLock(db, "prod")
	require.NoError(t, el.Acquire(context.Background(), 1))

	// Second acquire must not hit the database again
	require.NoError(t, el.Acquire(context.Background(), 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRelease(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT GET_LOCK").
		WithArgs("dbtctl:env:prod", 1).
		WillReturnRows(sqlmock.NewRows([]string{"GET_LOCK"}).AddRow(1))
	mock.ExpectQuery("SELECT RELEASE_LOCK").
		WithArgs("dbtctl:env:prod").
		WillReturnRows(sqlmock.NewRows([]string{"RELEASE_LOCK"}).AddRow(1))

	el := NewEnvironmentLock(db, "prod")
	require.NoError(t, el.Acquire(context.Background(), 1))
	require.NoError(t, el.Release(context.Background()))
	assert.False(t, el.Held())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseNotHeld(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	el := NewEnvironmentLock(db, "prod")

	// Release without acquire must not touch the database
	require.NoError(t, el.Release(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
