// internal/braze/client.go
package braze

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	appErrors "github.com/retainly/retention-engine/internal/errors"
)

// Attributes is the personalization context sent with an enrollment.
type Attributes map[string]interface{}

// Dispatcher is the campaign-dispatch capability used by the orchestrator.
// One call is one outbound enrollment request; the call is not idempotent
// at the protocol level, so callers must not re-dispatch within a run.
type Dispatcher interface {
	TriggerCampaign(ctx context.Context, userID int, campaignID string, attributes Attributes) error
}

// HTTPDoer is satisfied by *http.Client and by test doubles.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the real Braze API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient HTTPDoer
}

// NewClient creates a Braze client with a bounded per-request timeout.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing)
func (c *Client) SetHTTPClient(client HTTPDoer) {
	c.httpClient = client
}

type triggerRequest struct {
	CampaignID string      `json:"campaign_id"`
	Recipients []recipient `json:"recipients"`
}

type recipient struct {
	ExternalUserID string     `json:"external_user_id"`
	Attributes     Attributes `json:"attributes"`
}

// TriggerCampaign enrolls one user via POST /campaigns/trigger/send.
// Any failure, transport or service-level, comes back as a
// DispatchRejectedError so the orchestrator can record it and move on.
func (c *Client) TriggerCampaign(ctx context.Context, userID int, campaignID string, attributes Attributes) error {
	payload := triggerRequest{
		CampaignID: campaignID,
		Recipients: []recipient{
			{ExternalUserID: strconv.Itoa(userID), Attributes: attributes},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return appErrors.NewDispatchRejected(userID, fmt.Sprintf("marshal payload: %v", err))
	}

	url := c.baseURL + "/campaigns/trigger/send"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return appErrors.NewDispatchRejected(userID, fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return appErrors.NewDispatchRejected(userID, fmt.Sprintf("request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return appErrors.NewDispatchRejected(userID,
			fmt.Sprintf("braze returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))))
	}

	return nil
}
