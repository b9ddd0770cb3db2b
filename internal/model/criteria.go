// internal/model/criteria.go
package model

import "time"

// Criteria is the eligibility predicate for the at-risk segment.
// The comparisons are strict: a user whose last login sits exactly on
// the cutoff, or whose spend equals the floor, is not eligible.
type Criteria struct {
	InactivityThresholdDays int     `json:"inactivity_threshold_days"`
	MinSpend                float64 `json:"min_spend"`
}

// LoginCutoff returns the timestamp a user's last login must be strictly
// older than to count as inactive.
func (c Criteria) LoginCutoff(now time.Time) time.Time {
	return now.AddDate(0, 0, -c.InactivityThresholdDays)
}
