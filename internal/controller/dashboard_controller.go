// internal/controller/dashboard_controller.go
package controller

import (
	"encoding/json"
	"net/http"

	"github.com/retainly/retention-engine/internal/model"
	"github.com/retainly/retention-engine/internal/repository"
)

// DashboardController serves the read-only monitoring view. It reuses
// the retention job's repository and criteria, so the segment shown here
// is by construction the segment the job would dispatch.
type DashboardController struct {
	Users    *repository.UserRepository
	Criteria model.Criteria
}

// Stats returns total/active/churned counts.
func (c *DashboardController) Stats(w http.ResponseWriter, r *http.Request) {
	counts, err := c.Users.CountByStatus(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"total_users":   total,
		"active_users":  counts["active"],
		"churned_users": counts["churned"],
	})
}

// Segment returns the current at-risk segment.
func (c *DashboardController) Segment(w http.ResponseWriter, r *http.Request) {
	users, err := c.Users.SelectAtRiskUsers(r.Context(), c.Criteria)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"criteria": c.Criteria,
		"count":    len(users),
		"users":    users,
	})
}

// ListUsers returns the full users table.
func (c *DashboardController) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := c.Users.ListAll(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"count": len(users),
		"users": users,
	})
}
