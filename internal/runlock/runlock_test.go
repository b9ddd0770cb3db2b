package runlock

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLockExcludesSecondRun(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	first := New(client, nil, "reactivation-journey-v1", time.Minute)
	second := New(client, nil, "reactivation-journey-v1", time.Minute)

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "first invocation should take the lock")

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "overlapping invocation must not take the lock")

	require.NoError(t, first.Release(ctx))

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "lock should be free again after release")
}

func TestRedisLockDifferentCampaignsDoNotContend(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	a := New(client, nil, "reactivation-journey-v1", time.Minute)
	b := New(client, nil, "winback-journey-v2", time.Minute)

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "locks are keyed per campaign")
}

func TestRedisLockReleaseRequiresOwnership(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	holder := New(client, nil, "reactivation-journey-v1", time.Minute)
	intruder := New(client, nil, "reactivation-journey-v1", time.Minute)

	ok, err := holder.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// A non-owner release is a no-op.
	require.NoError(t, intruder.Release(ctx))

	ok, err = intruder.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "holder must still own the lock")
}

func TestAdvisoryLockFallback(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT pg_try_advisory_lock").
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))
	mock.ExpectExec("SELECT pg_advisory_unlock").
		WillReturnResult(sqlmock.NewResult(0, 0))

	lock := New(nil, db, "reactivation-journey-v1", time.Minute)

	ok, err := lock.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, lock.Release(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvisoryLockNotAcquiredReleaseIsNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// Only the try-lock query; a lock we never held must not be unlocked.
	mock.ExpectQuery("SELECT pg_try_advisory_lock").
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(false))

	lock := New(nil, db, "reactivation-journey-v1", time.Minute)

	ok, err := lock.Acquire(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, lock.Release(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
