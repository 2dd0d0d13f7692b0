// Package textbee is a small client for the TextBee SMS gateway, which sends
// messages through an Android device registered to the account.
package textbee

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/agrolink/agrolink_api/internal/utils"
)

const (
	// DefaultBaseURL is the hosted TextBee API.
	DefaultBaseURL = "https://api.textbee.dev/api/v1"

	maxAttempts = 3

	minAttemptTimeout = time.Second
)

// ErrNotConfigured is returned when the API key or device id is missing.
var ErrNotConfigured = errors.New("textbee: api key or device id not configured")

// Client sends SMS through one TextBee device.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	deviceID   string
	retryBase  time.Duration
	debug      bool
}

// NewClient constructs a client. timeout is the budget for a whole SendSMS
// call; each HTTP attempt gets an equal share of it so a hung first attempt
// still leaves room for the retries.
func NewClient(baseURL, apiKey, deviceID string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: attemptTimeout(timeout)},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		deviceID:   deviceID,
		retryBase:  500 * time.Millisecond,
		debug:      os.Getenv("ENV") == "development",
	}
}

// attemptTimeout splits budget across maxAttempts, never below one second.
func attemptTimeout(budget time.Duration) time.Duration {
	d := budget / maxAttempts
	if d < minAttemptTimeout {
		d = minAttemptTimeout
	}
	return d
}

// Configured reports whether credentials are present.
func (c *Client) Configured() bool {
	return c.apiKey != "" && c.deviceID != ""
}

// SendSMS sends message to every recipient. Network errors, timeouts, 429
// and 5xx replies are retried with exponential backoff; other 4xx replies
// fail immediately.
func (c *Client) SendSMS(ctx context.Context, recipients []string, message string) (*SendSMSResult, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	payload, err := json.Marshal(SendSMSRequest{Recipients: recipients, Message: message})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/gateway/devices/%s/send-sms", c.baseURL, c.deviceID)

	var out SendSMSResponse
	err = utils.Retry(ctx, maxAttempts, c.retryBase, func(attempt int) error {
		err := c.doRequest(ctx, endpoint, payload, &out)
		if err == nil {
			return nil
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Temporary() {
			return utils.Permanent(err)
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("[TEXTBEE] Send failed")
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) doRequest(ctx context.Context, endpoint string, payload []byte, result any) error {
	if c.debug {
		log.Debug().
			Str("endpoint", endpoint).
			RawJSON("request", payload).
			Msg("[TEXTBEE] Outgoing request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if c.debug {
		log.Debug().
			Int("status_code", resp.StatusCode).
			Str("response", string(respBody)).
			Msg("[TEXTBEE] Incoming response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	if len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
