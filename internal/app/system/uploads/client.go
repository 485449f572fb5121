// Package uploads talks to the external content host: it stages, transfers,
// and finalizes binary assets, and removes them again. The host exposes a
// query-based API plus pre-authorized multipart upload targets.
package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Client issues query calls against the content host API.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
	logger   *zap.Logger
}

// NewClient builds a content host client. timeout bounds each individual
// API call and each upload transfer.
func NewClient(endpoint, token string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		token:    token,
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type queryRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type queryError struct {
	Message string `json:"message"`
}

type queryResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []queryError    `json:"errors"`
}

// query runs a single API call and decodes the data payload into out.
// API-level errors are returned as one error joining every message.
func (c *Client) query(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(queryRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("encoding query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Access-Token", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling content host: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("content host returned %d: %s", resp.StatusCode, snippet)
	}

	var qr queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if len(qr.Errors) > 0 {
		msgs := make([]string, len(qr.Errors))
		for i, e := range qr.Errors {
			msgs[i] = e.Message
		}
		return fmt.Errorf("content host rejected query: %v", msgs)
	}
	if out != nil {
		if err := json.Unmarshal(qr.Data, out); err != nil {
			return fmt.Errorf("decoding data payload: %w", err)
		}
	}
	return nil
}
