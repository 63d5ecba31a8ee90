// Package notify completes workflow waitpoints over HTTP. An ingest request
// may carry a waitpoint token; when the run finishes, the result payload is
// posted to the workflow engine so the suspended workflow resumes.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the workflow engine's waitpoint API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Complete posts a terminal status plus result body to a waitpoint token. The
// body fields are flattened next to the status, matching what the workflow
// expects to destructure.
func (c *Client) Complete(ctx context.Context, tokenID, accessToken string, status int, body map[string]any) error {
	content := map[string]any{"status": status}
	for k, v := range body {
		content[k] = v
	}

	payload, err := json.Marshal(map[string]any{"data": content})
	if err != nil {
		return fmt.Errorf("marshal completion: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/waitpoints/tokens/%s/complete", c.baseURL, tokenID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("complete waitpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("complete waitpoint %s: status %d: %s", tokenID, resp.StatusCode, string(respBody))
	}
	return nil
}

// Close releases any resources.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
