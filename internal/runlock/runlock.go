// internal/runlock/runlock.go
package runlock

import (
	"context"
	"database/sql"
	"hash/fnv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RunLock guards a campaign against overlapping invocations of the job.
// Acquire is non-blocking: a second invocation that loses the race skips
// its run and leaves the work to the holder.
type RunLock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// New picks the best available backend: Redis when a client is provided
// (works across hosts), otherwise a Postgres advisory lock on the store
// handle. The lock key is derived from the campaign identifier.
func New(redisClient *redis.Client, db *sql.DB, campaignID string, ttl time.Duration) RunLock {
	key := "retention-run:" + campaignID
	if redisClient != nil {
		return newRedisLock(redisClient, key, ttl)
	}
	return newAdvisoryLock(db, key)
}

// advisoryLock uses pg_try_advisory_lock, which is session-scoped: the
// acquiring connection must stay pinned until release, or an unlock
// routed to another pooled session silently no-ops. If the process dies,
// the lock goes with the connection.
type advisoryLock struct {
	db     *sql.DB
	conn   *sql.Conn
	lockID int64
}

func newAdvisoryLock(db *sql.DB, key string) *advisoryLock {
	h := fnv.New64a()
	h.Write([]byte(key))
	return &advisoryLock{db: db, lockID: int64(h.Sum64())}
}

func (l *advisoryLock) Acquire(ctx context.Context) (bool, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, err
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.lockID).Scan(&acquired); err != nil {
		conn.Close()
		return false, err
	}
	if !acquired {
		conn.Close()
		return false, nil
	}

	l.conn = conn
	return true, nil
}

func (l *advisoryLock) Release(ctx context.Context) error {
	if l.conn == nil {
		return nil
	}
	_, err := l.conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", l.lockID)
	l.conn.Close()
	l.conn = nil
	return err
}
