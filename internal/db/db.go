// internal/db/db.go
package db

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"

	appErrors "github.com/retainly/retention-engine/internal/errors"
)

// Open connects to the user store and verifies the connection. The
// caller owns the handle and closes it on every exit path; there is no
// package-level connection.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	conn, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, appErrors.NewStoreUnavailable(err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, appErrors.NewStoreUnavailable(err)
	}

	return conn, nil
}
