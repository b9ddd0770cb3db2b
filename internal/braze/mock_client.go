// internal/braze/mock_client.go
package braze

import (
	"context"
	"log"
	"time"

	appErrors "github.com/retainly/retention-engine/internal/errors"
)

// MockClient simulates Braze campaign triggering for demo mode, when no
// API key is configured. It logs the intent and sleeps for a small
// simulated network latency.
type MockClient struct {
	Latency time.Duration
	// Fail, when set, forces a rejection for the given user. Used by
	// tests to exercise the failure path.
	Fail func(userID int) bool
}

// NewMockClient creates a mock dispatcher with the default latency.
func NewMockClient() *MockClient {
	return &MockClient{Latency: 200 * time.Millisecond}
}

// TriggerCampaign simulates one enrollment request.
func (m *MockClient) TriggerCampaign(ctx context.Context, userID int, campaignID string, attributes Attributes) error {
	select {
	case <-time.After(m.Latency):
	case <-ctx.Done():
		return appErrors.NewDispatchRejected(userID, ctx.Err().Error())
	}

	if m.Fail != nil && m.Fail(userID) {
		return appErrors.NewDispatchRejected(userID, "mock rejection")
	}

	log.Printf("Simulating POST to Braze API... user %d added to campaign %s", userID, campaignID)
	return nil
}
