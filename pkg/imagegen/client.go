// Package imagegen calls an OpenAI-compatible image generation endpoint to
// produce catalogue pictures for listed products.
package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const DefaultSize = "512x512"

var (
	ErrNotConfigured = errors.New("imagegen: base url or api key not configured")
	ErrEmptyResult   = errors.New("imagegen: response contained no image")
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	size       string
}

func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		size:       DefaultSize,
	}
}

func (c *Client) Configured() bool {
	return c.baseURL != "" && c.apiKey != ""
}

// ProductPrompt builds the prompt for a crop photo.
func ProductPrompt(englishName string) string {
	return fmt.Sprintf("A realistic, well lit photograph of fresh %s as sold at an Ethiopian farmers market, plain background", englishName)
}

// Generate requests a single image for prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (*Image, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	payload, err := json.Marshal(GenerateRequest{Model: c.model, Prompt: prompt, Size: c.size, N: 1})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/generations", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	log.Debug().
		Int("status_code", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("[IMAGEGEN] Response received")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("imagegen: status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var out GenerateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(out.Data) == 0 {
		return nil, ErrEmptyResult
	}

	d := out.Data[0]
	switch {
	case d.URL != "":
		return &Image{URL: d.URL}, nil
	case d.B64JSON != "":
		raw, err := base64.StdEncoding.DecodeString(d.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("decode image data: %w", err)
		}
		return &Image{Data: raw, ContentType: http.DetectContentType(raw)}, nil
	default:
		return nil, ErrEmptyResult
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
