package keyrotator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPBalanceChecker queries a key's remaining balance from a configurable
// billing endpoint, used when no SDK-native balance API is available.
type HTTPBalanceChecker struct {
	client      *http.Client
	endpointURL string
}

// NewHTTPBalanceChecker creates a checker against the given endpoint. The
// key is sent as a bearer token; the response is expected to be a JSON
// object with a numeric "balance" field.
func NewHTTPBalanceChecker(endpointURL string) *HTTPBalanceChecker {
	return &HTTPBalanceChecker{
		client:      &http.Client{Timeout: 10 * time.Second},
		endpointURL: endpointURL,
	}
}

func (c *HTTPBalanceChecker) CheckBalance(ctx context.Context, key string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpointURL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("balance check: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Balance float64 `json:"balance"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("balance check: decode response: %w", err)
	}
	return body.Balance, nil
}
