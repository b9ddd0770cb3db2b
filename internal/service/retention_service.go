// internal/service/retention_service.go
package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/retainly/retention-engine/internal/braze"
	"github.com/retainly/retention-engine/internal/events"
	"github.com/retainly/retention-engine/internal/model"
	"github.com/retainly/retention-engine/internal/repository"
)

// SegmentLabel is attached to every dispatched attribute bag.
const SegmentLabel = "at-risk-high-value"

// RetentionService orchestrates one run: segment once, fan dispatches
// out over a bounded worker pool, summarize. It keeps no state between
// runs.
type RetentionService struct {
	Users      repository.UserSegmenter
	Dispatcher braze.Dispatcher
	Ledger     repository.Ledger // optional; nil means at-least-once, no dedup
	Events     events.Publisher  // optional; nil disables enrollment events
	CampaignID string
	Criteria   model.Criteria
	Workers    int
}

// Run executes a single pass. The returned error is non-nil only for
// fatal conditions (segmentation or ledger read failure); individual
// dispatch failures are contained in the summary.
func (s *RetentionService) Run(ctx context.Context) (*model.RunSummary, error) {
	runID := uuid.NewString()
	log.Printf("run %s: executing churn analysis segmentation", runID)

	users, err := s.Users.SelectAtRiskUsers(ctx, s.Criteria)
	if err != nil {
		return nil, fmt.Errorf("segmentation failed: %w", err)
	}

	summary := &model.RunSummary{RunID: runID, SegmentSize: len(users)}
	log.Printf("run %s: found %d at-risk users", runID, len(users))

	if s.Ledger != nil {
		users, err = s.filterEnrolled(ctx, runID, users, summary)
		if err != nil {
			return nil, err
		}
	}

	if len(users) == 0 {
		log.Printf("run %s: no users require re-activation", runID)
		return summary, nil
	}

	summary.Outcomes = s.dispatchAll(ctx, runID, users)
	for _, o := range summary.Outcomes {
		if o.Succeeded {
			summary.Dispatched++
		} else {
			summary.Failed++
		}
	}

	log.Printf("run %s: finished enrolling users into campaign %s (%d ok, %d failed)",
		runID, s.CampaignID, summary.Dispatched, summary.Failed)
	return summary, nil
}

// filterEnrolled drops users the ledger already has for this campaign.
// A ledger read failure is a store failure and aborts before any dispatch.
func (s *RetentionService) filterEnrolled(ctx context.Context, runID string, users []model.UserRecord, summary *model.RunSummary) ([]model.UserRecord, error) {
	remaining := make([]model.UserRecord, 0, len(users))
	for _, u := range users {
		enrolled, err := s.Ledger.Enrolled(ctx, u.ID, s.CampaignID)
		if err != nil {
			return nil, fmt.Errorf("ledger lookup failed: %w", err)
		}
		if enrolled {
			summary.Skipped++
			log.Printf("run %s: user %d already enrolled in %s, skipping", runID, u.ID, s.CampaignID)
			continue
		}
		remaining = append(remaining, u)
	}
	return remaining, nil
}

// dispatchAll feeds the segment through a fixed pool of workers. Order
// of completion does not matter; every completed dispatch appends one
// outcome under the mutex. On cancellation the remaining users are left
// for the next scheduled run.
func (s *RetentionService) dispatchAll(ctx context.Context, runID string, users []model.UserRecord) []model.DispatchOutcome {
	workers := s.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(users) {
		workers = len(users)
	}

	jobs := make(chan model.UserRecord)
	outcomes := make([]model.DispatchOutcome, 0, len(users))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range jobs {
				outcome := s.dispatch(ctx, runID, u)
				mu.Lock()
				outcomes = append(outcomes, outcome)
				mu.Unlock()
			}
		}()
	}

feed:
	for _, u := range users {
		select {
		case jobs <- u:
		case <-ctx.Done():
			log.Printf("run %s: shutdown requested, leaving remaining users for the next run", runID)
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

// dispatch enrolls one user and records the outcome. Failures are
// retryable but not retried within this run.
func (s *RetentionService) dispatch(ctx context.Context, runID string, u model.UserRecord) model.DispatchOutcome {
	attributes := braze.Attributes{
		"last_login_date": u.LastLogin.Format(time.RFC3339),
		"ltv":             u.TotalSpend,
		"segment":         SegmentLabel,
	}

	if err := s.Dispatcher.TriggerCampaign(ctx, u.ID, s.CampaignID, attributes); err != nil {
		log.Printf("run %s: retryable failure for user %d: %v", runID, u.ID, err)
		return model.DispatchOutcome{UserID: u.ID, Succeeded: false, Error: err.Error()}
	}

	now := time.Now().UTC()
	if s.Ledger != nil {
		if err := s.Ledger.Record(ctx, u.ID, s.CampaignID, runID, now); err != nil {
			log.Printf("run %s: ⚠️ failed to record enrollment for user %d: %v", runID, u.ID, err)
		}
	}
	if s.Events != nil {
		e := events.Enrollment{RunID: runID, UserID: u.ID, CampaignID: s.CampaignID, EnrolledAt: now}
		if err := s.Events.PublishEnrollment(ctx, e); err != nil {
			log.Printf("run %s: ⚠️ failed to publish enrollment event for user %d: %v", runID, u.ID, err)
		}
	}

	return model.DispatchOutcome{UserID: u.ID, Succeeded: true}
}
