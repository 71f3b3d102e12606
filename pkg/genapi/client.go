package genapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the image-generation provider. One batch covers all
// photos bought in a single payment.
type Client struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
}

func NewClient(apiURL, apiKey string) *Client {
	return &Client{
		apiURL:     apiURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type Prompt struct {
	Text     string   `json:"text"`
	Negative string   `json:"negative,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

type submitRequest struct {
	Prompts     []Prompt `json:"prompts"`
	TotalPhotos int      `json:"total_photos"`
}

type submitResponse struct {
	BatchID string `json:"batch_id"`
	Error   string `json:"error"`
}

func (c *Client) Submit(ctx context.Context, prompts []Prompt, totalPhotos int) (string, error) {
	var resp submitResponse
	err := c.do(ctx, http.MethodPost, "/v1/batches", submitRequest{
		Prompts:     prompts,
		TotalPhotos: totalPhotos,
	}, &resp)
	if err != nil {
		return "", err
	}

	if resp.Error != "" {
		return "", fmt.Errorf("provider error: %s", resp.Error)
	}
	if resp.BatchID == "" {
		return "", fmt.Errorf("provider returned empty batch id")
	}

	return resp.BatchID, nil
}

type BatchStatus struct {
	Completed int      `json:"completed"`
	Total     int      `json:"total"`
	URLs      []string `json:"urls"`
	Done      bool     `json:"done"`
	Failed    bool     `json:"failed"`
}

func (c *Client) Status(ctx context.Context, batchID string) (*BatchStatus, error) {
	var status BatchStatus
	err := c.do(ctx, http.MethodGet, "/v1/batches/"+batchID, nil, &status)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("error marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, body)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("error parsing response: %w", err)
	}

	return nil
}
