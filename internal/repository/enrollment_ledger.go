// internal/repository/enrollment_ledger.go
package repository

import (
	"context"
	"database/sql"
	"time"
)

// Ledger records which users were already enrolled in a campaign, so a
// re-run against an unchanged store does not enroll them twice. The
// pipeline runs without one by default (at-least-once, no dedup).
type Ledger interface {
	Enrolled(ctx context.Context, userID int, campaignID string) (bool, error)
	Record(ctx context.Context, userID int, campaignID, runID string, runDate time.Time) error
}

// EnrollmentLedger is the Postgres-backed implementation.
type EnrollmentLedger struct {
	DB *sql.DB
}

// EnsureSchema creates the enrollments table if it does not exist.
func (l *EnrollmentLedger) EnsureSchema(ctx context.Context) error {
	query := `
        CREATE TABLE IF NOT EXISTS enrollments (
            user_id     INTEGER NOT NULL,
            campaign_id TEXT NOT NULL,
            run_date    DATE NOT NULL,
            run_id      TEXT NOT NULL,
            enrolled_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            PRIMARY KEY (user_id, campaign_id)
        )
    `
	_, err := l.DB.ExecContext(ctx, query)
	return err
}

// Enrolled reports whether the user already has a ledger row for the campaign.
func (l *EnrollmentLedger) Enrolled(ctx context.Context, userID int, campaignID string) (bool, error) {
	query := `
        SELECT 1 FROM enrollments
        WHERE user_id = $1 AND campaign_id = $2
    `
	var one int
	err := l.DB.QueryRowContext(ctx, query, userID, campaignID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Record writes one enrollment. Conflicts are ignored: a duplicate row
// means another run already recorded this user, which is fine.
func (l *EnrollmentLedger) Record(ctx context.Context, userID int, campaignID, runID string, runDate time.Time) error {
	query := `
        INSERT INTO enrollments (user_id, campaign_id, run_date, run_id)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id, campaign_id) DO NOTHING
    `
	_, err := l.DB.ExecContext(ctx, query, userID, campaignID, runDate, runID)
	return err
}
