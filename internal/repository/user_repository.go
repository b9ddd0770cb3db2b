// internal/repository/user_repository.go
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	appErrors "github.com/retainly/retention-engine/internal/errors"
	"github.com/retainly/retention-engine/internal/model"
)

// UserSegmenter defines the segmentation contract used by the orchestrator
type UserSegmenter interface {
	SelectAtRiskUsers(ctx context.Context, criteria model.Criteria) ([]model.UserRecord, error)
}

// UserRepository is the concrete implementation over the users table.
// Query holds the loaded eligibility SQL; both the retention job and the
// dashboard are handed the same text, so the predicate has one definition.
type UserRepository struct {
	DB    *sql.DB
	Query string
}

// SelectAtRiskUsers executes the eligibility query and returns every row
// satisfying the predicate. Read-only; the returned set is exactly the
// rows matching the criteria for the current store snapshot.
func (r *UserRepository) SelectAtRiskUsers(ctx context.Context, criteria model.Criteria) ([]model.UserRecord, error) {
	cutoff := criteria.LoginCutoff(time.Now().UTC())

	rows, err := r.DB.QueryContext(ctx, r.Query, cutoff, criteria.MinSpend)
	if err != nil {
		return nil, appErrors.NewStoreUnavailable(err)
	}
	defer rows.Close()

	users, err := scanUsers(rows)
	if err != nil {
		return nil, appErrors.NewStoreUnavailable(err)
	}
	return users, nil
}

// ListAll fetches every user, for the reporting view only.
func (r *UserRepository) ListAll(ctx context.Context) ([]model.UserRecord, error) {
	query := `
        SELECT id, email, last_login, total_spend, status
        FROM users
        ORDER BY id
    `
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, appErrors.NewStoreUnavailable(err)
	}
	defer rows.Close()

	users, err := scanUsers(rows)
	if err != nil {
		return nil, appErrors.NewStoreUnavailable(err)
	}
	return users, nil
}

// CountByStatus returns user counts keyed by status, for the reporting view.
func (r *UserRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	query := `
        SELECT status, COUNT(*)
        FROM users
        GROUP BY status
    `
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, appErrors.NewStoreUnavailable(err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, appErrors.NewStoreUnavailable(err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.NewStoreUnavailable(err)
	}
	return counts, nil
}

// scanUsers deserializes rows into UserRecords, validating each one at
// the boundary so nothing downstream re-checks fields.
func scanUsers(rows *sql.Rows) ([]model.UserRecord, error) {
	users := []model.UserRecord{}
	for rows.Next() {
		var u model.UserRecord
		if err := rows.Scan(&u.ID, &u.Email, &u.LastLogin, &u.TotalSpend, &u.Status); err != nil {
			return nil, err
		}
		if err := validateUser(u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func validateUser(u model.UserRecord) error {
	if u.ID <= 0 {
		return fmt.Errorf("user row with invalid id %d", u.ID)
	}
	if u.TotalSpend < 0 {
		return fmt.Errorf("user %d has negative total_spend %.2f", u.ID, u.TotalSpend)
	}
	if u.Status != "active" && u.Status != "churned" {
		return fmt.Errorf("user %d has unknown status %q", u.ID, u.Status)
	}
	return nil
}
