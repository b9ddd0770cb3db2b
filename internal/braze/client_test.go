package braze_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/retainly/retention-engine/internal/braze"
	appErrors "github.com/retainly/retention-engine/internal/errors"
)

func TestClientTriggerCampaign(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody struct {
		CampaignID string `json:"campaign_id"`
		Recipients []struct {
			ExternalUserID string                 `json:"external_user_id"`
			Attributes     map[string]interface{} `json:"attributes"`
		} `json:"recipients"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := braze.NewClient(server.URL, "test-key")
	attrs := braze.Attributes{"ltv": 120.00, "segment": "at-risk-high-value"}

	err := client.TriggerCampaign(context.Background(), 42, "reactivation-journey-v1", attrs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/campaigns/trigger/send" {
		t.Errorf("expected /campaigns/trigger/send, got %s", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("expected bearer auth header, got %q", gotAuth)
	}
	if gotBody.CampaignID != "reactivation-journey-v1" {
		t.Errorf("expected campaign_id in payload, got %q", gotBody.CampaignID)
	}
	if len(gotBody.Recipients) != 1 || gotBody.Recipients[0].ExternalUserID != "42" {
		t.Errorf("expected one recipient with external_user_id 42, got %+v", gotBody.Recipients)
	}
	if gotBody.Recipients[0].Attributes["segment"] != "at-risk-high-value" {
		t.Errorf("expected segment attribute, got %v", gotBody.Recipients[0].Attributes)
	}
}

func TestClientRejectionIsNotFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := braze.NewClient(server.URL, "test-key")
	err := client.TriggerCampaign(context.Background(), 7, "reactivation-journey-v1", braze.Attributes{})
	if err == nil {
		t.Fatal("expected an error for a non-2xx response")
	}

	var rejected *appErrors.DispatchRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected DispatchRejectedError, got %v", err)
	}
	if rejected.UserID != 7 {
		t.Errorf("expected rejection to carry user 7, got %d", rejected.UserID)
	}
}

func TestClientTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse all connections

	client := braze.NewClient(server.URL, "test-key")
	err := client.TriggerCampaign(context.Background(), 9, "reactivation-journey-v1", braze.Attributes{})

	var rejected *appErrors.DispatchRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected DispatchRejectedError for a transport failure, got %v", err)
	}
}

func TestMockClientSucceeds(t *testing.T) {
	mock := &braze.MockClient{Latency: time.Millisecond}
	err := mock.TriggerCampaign(context.Background(), 1, "reactivation-journey-v1", braze.Attributes{})
	if err != nil {
		t.Fatalf("mock client must succeed by default, got %v", err)
	}
}

func TestMockClientForcedFailure(t *testing.T) {
	mock := &braze.MockClient{Latency: time.Millisecond, Fail: func(userID int) bool { return userID == 2 }}

	if err := mock.TriggerCampaign(context.Background(), 1, "reactivation-journey-v1", nil); err != nil {
		t.Errorf("user 1 should succeed, got %v", err)
	}
	if err := mock.TriggerCampaign(context.Background(), 2, "reactivation-journey-v1", nil); err == nil {
		t.Error("user 2 should be rejected")
	}
}

func TestMockClientHonorsCancellation(t *testing.T) {
	mock := &braze.MockClient{Latency: time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := mock.TriggerCampaign(ctx, 1, "reactivation-journey-v1", nil)
	if err == nil {
		t.Fatal("expected an error when the context is cancelled")
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("cancelled dispatch should return promptly, not wait out the latency")
	}
}
