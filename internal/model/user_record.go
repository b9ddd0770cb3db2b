// internal/model/user_record.go
package model

import "time"

// UserRecord is one row of the segmentation result. The repository
// validates it once at the scan boundary; after that it is immutable
// for the rest of the run.
type UserRecord struct {
	ID         int       `db:"id" json:"id"`
	Email      string    `db:"email" json:"email"`
	LastLogin  time.Time `db:"last_login" json:"last_login"`
	TotalSpend float64   `db:"total_spend" json:"total_spend"`
	Status     string    `db:"status" json:"status"` // active, churned
}
