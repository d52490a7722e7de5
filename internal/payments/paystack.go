package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a minimal Paystack API client covering transaction initialization.
type Client struct {
	baseURL    string
	secret     string
	httpClient *http.Client
}

// NewClient creates a Paystack client.
func NewClient(baseURL, secret string) *Client {
	return &Client{
		baseURL: baseURL,
		secret:  secret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type initializeRequest struct {
	Email     string `json:"email"`
	Amount    int64  `json:"amount"` // minor units
	Reference string `json:"reference"`
}

type initializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

// InitializeTransaction creates a charge on the gateway and returns the URL
// the payer is redirected to. Amount is in the gateway's minor unit.
func (c *Client) InitializeTransaction(ctx context.Context, email string, amountMinor int64, reference string) (string, error) {
	body, err := json.Marshal(initializeRequest{
		Email:     email,
		Amount:    amountMinor,
		Reference: reference,
	})
	if err != nil {
		return "", fmt.Errorf("marshal initialize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build initialize request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway initialize call: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read gateway response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gateway initialize returned %d: %s", resp.StatusCode, raw)
	}

	var out initializeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode gateway response: %w", err)
	}
	if !out.Status {
		return "", fmt.Errorf("gateway initialize rejected: %s", out.Message)
	}
	return out.Data.AuthorizationURL, nil
}
